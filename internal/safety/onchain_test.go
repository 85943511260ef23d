package safety

import (
	"context"
	"encoding/binary"
	"log"
	"testing"

	"github.com/mr-tron/base58"

	"solana-pool-sniper/internal/dex"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/solana/stub"
)

func poolWithQuoteVault(t *testing.T, vault string) *domain.CandidatePool {
	t.Helper()

	raw, err := base58.Decode(vault)
	if err != nil {
		t.Fatalf("decode vault: %v", err)
	}

	data := make([]byte, dex.PoolStateSize)
	binary.LittleEndian.PutUint64(data[dex.PoolOpenTimeOffset:], 1700000000)
	copy(data[dex.PoolQuoteVaultOffset:dex.PoolQuoteVaultOffset+32], raw)

	return &domain.CandidatePool{PoolID: "pool", RawState: data}
}

func vaultKey() string {
	b := make([]byte, 32)
	for i := range b {
		b[i] = 0x33
	}
	return base58.Encode(b)
}

func TestOnChainSourceGetLiquidity(t *testing.T) {
	vault := vaultKey()
	rpc := stub.NewRPCClient()
	rpc.Balances[vault] = 5_000_000_000 // 5 SOL in lamports

	source := NewOnChainSource(rpc, domain.QuoteWSOL, log.Default())
	got := source.GetLiquidity(context.Background(), poolWithQuoteVault(t, vault))
	if got != 5.0 {
		t.Errorf("GetLiquidity = %v, want 5.0", got)
	}
}

func TestOnChainSourceLiquidityFailsClosed(t *testing.T) {
	source := NewOnChainSource(stub.NewRPCClient(), domain.QuoteWSOL, log.Default())

	// Vault balance lookup fails: liquidity reads as zero.
	got := source.GetLiquidity(context.Background(), poolWithQuoteVault(t, vaultKey()))
	if got != 0 {
		t.Errorf("GetLiquidity = %v, want 0 on lookup failure", got)
	}

	// Undecodable state also reads as zero.
	bad := &domain.CandidatePool{PoolID: "pool", RawState: []byte{1, 2, 3}}
	if got := source.GetLiquidity(context.Background(), bad); got != 0 {
		t.Errorf("GetLiquidity = %v, want 0 for bad state", got)
	}
}

func TestOnChainSourceGetPriceImpact(t *testing.T) {
	vault := vaultKey()
	rpc := stub.NewRPCClient()
	rpc.Balances[vault] = 10_000_000_000 // 10 SOL

	source := NewOnChainSource(rpc, domain.QuoteWSOL, log.Default())
	got := source.GetPriceImpact(context.Background(), poolWithQuoteVault(t, vault), 0.5)
	if got != 5.0 {
		t.Errorf("GetPriceImpact = %v, want 5.0 (0.5 of 10)", got)
	}
}

func TestOnChainSourceImpactFailsClosed(t *testing.T) {
	source := NewOnChainSource(stub.NewRPCClient(), domain.QuoteWSOL, log.Default())

	got := source.GetPriceImpact(context.Background(), poolWithQuoteVault(t, vaultKey()), 0.5)
	if got != FailClosedImpact {
		t.Errorf("GetPriceImpact = %v, want sentinel %v", got, FailClosedImpact)
	}
}
