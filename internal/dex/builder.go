package dex

import (
	"encoding/binary"
	"fmt"

	"solana-pool-sniper/internal/domain"
)

// Raydium AMM v4 instruction tags.
const (
	swapBaseInTag = 9
)

// SPL token instruction tags.
const (
	closeAccountTag = 9
)

// ResolvePoolKeys combines decoded pool and market state into the full set
// of swap-execution keys.
func ResolvePoolKeys(poolID string, pool *PoolState, market *domain.MarketMeta) (*domain.PoolKeys, error) {
	if pool.MarketID != market.MarketID {
		return nil, fmt.Errorf("pool references market %s, got %s", pool.MarketID, market.MarketID)
	}

	signer, err := MarketVaultSigner(market.MarketID, market.VaultNonce)
	if err != nil {
		return nil, fmt.Errorf("derive market vault signer: %w", err)
	}

	return &domain.PoolKeys{
		PoolID:        poolID,
		Authority:     RaydiumAuthorityV4,
		OpenOrders:    pool.OpenOrders,
		TargetOrders:  pool.TargetOrders,
		BaseVault:     pool.BaseVault,
		QuoteVault:    pool.QuoteVault,
		BaseMint:      pool.BaseMint,
		QuoteMint:     pool.QuoteMint,
		MarketProgram: pool.MarketProgram,
		MarketID:      market.MarketID,
		MarketBids:    market.Bids,
		MarketAsks:    market.Asks,
		MarketEvents:  market.EventQueue,
		MarketBase:    market.BaseVault,
		MarketQuote:   market.QuoteVault,
		MarketSigner:  signer,
	}, nil
}

// MarketMetaFromState converts a decoded market state to the cacheable
// domain record.
func MarketMetaFromState(state *MarketState) *domain.MarketMeta {
	return &domain.MarketMeta{
		MarketID:   state.OwnAddress,
		BaseMint:   state.BaseMint,
		QuoteMint:  state.QuoteMint,
		Bids:       state.Bids,
		Asks:       state.Asks,
		EventQueue: state.EventQueue,
		BaseVault:  state.BaseVault,
		QuoteVault: state.QuoteVault,
		VaultNonce: state.VaultNonce,
	}
}

// Builder constructs signed swap transactions for Raydium AMM v4 pools.
type Builder struct {
	signer Signer
}

// NewBuilder creates a transaction builder signing with the given keypair.
func NewBuilder(signer Signer) *Builder {
	return &Builder{signer: signer}
}

// Owner returns the fee payer and token account owner public key.
func (b *Builder) Owner() string {
	return b.signer.PublicKey()
}

// SwapParams describes one swap leg against a resolved pool.
type SwapParams struct {
	Keys          *domain.PoolKeys
	SourceAccount string // user token account being spent
	DestAccount   string // user token account being credited
	DestMint      string // mint of the destination account
	AmountIn      uint64
	MinAmountOut  uint64
	Blockhash     string
}

// swapInstruction builds the Raydium swapBaseIn instruction.
func (b *Builder) swapInstruction(p SwapParams) Instruction {
	data := make([]byte, 17)
	data[0] = swapBaseInTag
	binary.LittleEndian.PutUint64(data[1:9], p.AmountIn)
	binary.LittleEndian.PutUint64(data[9:17], p.MinAmountOut)

	k := p.Keys
	return Instruction{
		ProgramID: RaydiumAMMV4,
		Accounts: []AccountMeta{
			meta(TokenProgram, false, false),
			meta(k.PoolID, false, true),
			meta(k.Authority, false, false),
			meta(k.OpenOrders, false, true),
			meta(k.TargetOrders, false, true),
			meta(k.BaseVault, false, true),
			meta(k.QuoteVault, false, true),
			meta(k.MarketProgram, false, false),
			meta(k.MarketID, false, true),
			meta(k.MarketBids, false, true),
			meta(k.MarketAsks, false, true),
			meta(k.MarketEvents, false, true),
			meta(k.MarketBase, false, true),
			meta(k.MarketQuote, false, true),
			meta(k.MarketSigner, false, false),
			meta(p.SourceAccount, false, true),
			meta(p.DestAccount, false, true),
			meta(b.signer.PublicKey(), true, false),
		},
		Data: data,
	}
}

// createATAInstruction builds an idempotent associated-token-account
// creation for the destination mint.
func (b *Builder) createATAInstruction(ata, mint string) Instruction {
	owner := b.signer.PublicKey()
	return Instruction{
		ProgramID: AssociatedTokenProgram,
		Accounts: []AccountMeta{
			meta(owner, true, true),
			meta(ata, false, true),
			meta(owner, false, false),
			meta(mint, false, false),
			meta(SystemProgram, false, false),
			meta(TokenProgram, false, false),
		},
		Data: []byte{1}, // CreateIdempotent
	}
}

// closeAccountInstruction closes an emptied token account, reclaiming rent
// to the owner.
func (b *Builder) closeAccountInstruction(account string) Instruction {
	owner := b.signer.PublicKey()
	return Instruction{
		ProgramID: TokenProgram,
		Accounts: []AccountMeta{
			meta(account, false, true),
			meta(owner, false, true),
			meta(owner, true, false),
		},
		Data: []byte{closeAccountTag},
	}
}

// BuildBuy assembles a signed buy transaction: create the destination token
// account if needed, then swap quote for base.
func (b *Builder) BuildBuy(p SwapParams) ([]byte, error) {
	if p.Keys == nil {
		return nil, fmt.Errorf("nil pool keys")
	}
	instructions := []Instruction{
		b.createATAInstruction(p.DestAccount, p.DestMint),
		b.swapInstruction(p),
	}
	return BuildTransaction(instructions, p.Blockhash, b.signer)
}

// BuildSell assembles a signed sell transaction: swap base for quote, then
// close the now-empty base token account.
func (b *Builder) BuildSell(p SwapParams) ([]byte, error) {
	if p.Keys == nil {
		return nil, fmt.Errorf("nil pool keys")
	}
	instructions := []Instruction{
		b.swapInstruction(p),
		b.closeAccountInstruction(p.SourceAccount),
	}
	return BuildTransaction(instructions, p.Blockhash, b.signer)
}
