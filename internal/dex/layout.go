// Package dex owns the Raydium/OpenBook side of the pipeline: account
// layout decoding, program-derived addresses, and swap transaction
// construction. The rest of the system treats it as an opaque builder
// given resolved keys.
package dex

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// RaydiumAuthorityV4 is the fixed AMM authority for v4 pools.
	RaydiumAuthorityV4 = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	// OpenBook is the OpenBook (Serum v3) DEX program ID.
	OpenBook = "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"
	// TokenProgram is the SPL token program ID.
	TokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	// AssociatedTokenProgram is the SPL associated-token-account program ID.
	AssociatedTokenProgram = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	// SystemProgram is the Solana system program ID.
	SystemProgram = "11111111111111111111111111111111"
)

// Raydium AMM v4 liquidity state layout (752 bytes). Offsets below are the
// subscription memcmp contract shared with the discovery feed.
const (
	PoolStateSize = 752

	PoolStatusOffset        = 0
	PoolOpenTimeOffset      = 224
	PoolBaseVaultOffset     = 336
	PoolQuoteVaultOffset    = 368
	PoolBaseMintOffset      = 400
	PoolQuoteMintOffset     = 432
	PoolOpenOrdersOffset    = 496
	PoolMarketIDOffset      = 528
	PoolMarketProgramOffset = 560
	PoolTargetOrdersOffset  = 592
)

// OpenBook market state layout v3 (388 bytes, 5-byte head padding).
const (
	MarketStateSize = 388

	MarketOwnAddressOffset   = 13
	MarketVaultNonceOffset   = 45
	MarketBaseMintOffset     = 53
	MarketQuoteMintOffset    = 85
	MarketBaseVaultOffset    = 117
	MarketQuoteVaultOffset   = 165
	MarketRequestQueueOffset = 221
	MarketEventQueueOffset   = 253
	MarketBidsOffset         = 285
	MarketAsksOffset         = 317
)

// PoolState is the decoded Raydium AMM v4 liquidity state.
type PoolState struct {
	Status        uint64
	BaseDecimals  uint64
	QuoteDecimals uint64
	OpenTime      int64
	BaseVault     string
	QuoteVault    string
	BaseMint      string
	QuoteMint     string
	OpenOrders    string
	MarketID      string
	MarketProgram string
	TargetOrders  string
}

// MarketState is the decoded OpenBook market state.
type MarketState struct {
	OwnAddress   string
	VaultNonce   uint64
	BaseMint     string
	QuoteMint    string
	BaseVault    string
	QuoteVault   string
	RequestQueue string
	EventQueue   string
	Bids         string
	Asks         string
}

// pubkeyAt reads a 32-byte public key at offset and base58-encodes it.
func pubkeyAt(data []byte, offset int) string {
	return base58.Encode(data[offset : offset+32])
}

// DecodePoolState decodes a raw Raydium AMM v4 liquidity account blob.
func DecodePoolState(data []byte) (*PoolState, error) {
	if len(data) != PoolStateSize {
		return nil, fmt.Errorf("pool state must be %d bytes, got %d", PoolStateSize, len(data))
	}

	return &PoolState{
		Status:        binary.LittleEndian.Uint64(data[PoolStatusOffset:]),
		BaseDecimals:  binary.LittleEndian.Uint64(data[32:]),
		QuoteDecimals: binary.LittleEndian.Uint64(data[40:]),
		OpenTime:      int64(binary.LittleEndian.Uint64(data[PoolOpenTimeOffset:])),
		BaseVault:     pubkeyAt(data, PoolBaseVaultOffset),
		QuoteVault:    pubkeyAt(data, PoolQuoteVaultOffset),
		BaseMint:      pubkeyAt(data, PoolBaseMintOffset),
		QuoteMint:     pubkeyAt(data, PoolQuoteMintOffset),
		OpenOrders:    pubkeyAt(data, PoolOpenOrdersOffset),
		MarketID:      pubkeyAt(data, PoolMarketIDOffset),
		MarketProgram: pubkeyAt(data, PoolMarketProgramOffset),
		TargetOrders:  pubkeyAt(data, PoolTargetOrdersOffset),
	}, nil
}

// DecodeMarketState decodes a raw OpenBook market account blob.
func DecodeMarketState(data []byte) (*MarketState, error) {
	if len(data) != MarketStateSize {
		return nil, fmt.Errorf("market state must be %d bytes, got %d", MarketStateSize, len(data))
	}

	return &MarketState{
		OwnAddress:   pubkeyAt(data, MarketOwnAddressOffset),
		VaultNonce:   binary.LittleEndian.Uint64(data[MarketVaultNonceOffset:]),
		BaseMint:     pubkeyAt(data, MarketBaseMintOffset),
		QuoteMint:    pubkeyAt(data, MarketQuoteMintOffset),
		BaseVault:    pubkeyAt(data, MarketBaseVaultOffset),
		QuoteVault:   pubkeyAt(data, MarketQuoteVaultOffset),
		RequestQueue: pubkeyAt(data, MarketRequestQueueOffset),
		EventQueue:   pubkeyAt(data, MarketEventQueueOffset),
		Bids:         pubkeyAt(data, MarketBidsOffset),
		Asks:         pubkeyAt(data, MarketAsksOffset),
	}, nil
}

// SPL token mint layout: the first 4 bytes are the COption tag of the mint
// authority. A zero tag means the authority was renounced.
const mintStateSize = 82

// MintRenounced reports whether a raw mint account blob has no mint
// authority left.
func MintRenounced(data []byte) (bool, error) {
	if len(data) < mintStateSize {
		return false, fmt.Errorf("mint state must be at least %d bytes, got %d", mintStateSize, len(data))
	}
	return binary.LittleEndian.Uint32(data[0:4]) == 0, nil
}
