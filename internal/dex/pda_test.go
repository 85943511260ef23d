package dex

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestAssociatedTokenAddressDeterministic(t *testing.T) {
	owner := testKey(0x01)
	mint := testKey(0x02)

	a, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	b, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if a != b {
		t.Errorf("derivation not deterministic: %s vs %s", a, b)
	}

	raw, err := base58.Decode(a)
	if err != nil || len(raw) != 32 {
		t.Errorf("derived address is not a 32-byte key: %s", a)
	}
	if isOnCurve(raw) {
		t.Error("derived address must be off curve")
	}
}

func TestAssociatedTokenAddressVariesByInput(t *testing.T) {
	owner := testKey(0x01)

	a, err := AssociatedTokenAddress(owner, testKey(0x02))
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	b, err := AssociatedTokenAddress(owner, testKey(0x03))
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if a == b {
		t.Error("different mints must derive different addresses")
	}

	c, err := AssociatedTokenAddress(testKey(0x04), testKey(0x02))
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if a == c {
		t.Error("different owners must derive different addresses")
	}
}

func TestAssociatedTokenAddressBadInput(t *testing.T) {
	if _, err := AssociatedTokenAddress("not-base58-0OIl", testKey(0x02)); err == nil {
		t.Error("expected error for invalid owner")
	}
}

func TestMarketVaultSigner(t *testing.T) {
	marketID := testKey(0x05)

	var signer string
	var nonce uint64
	found := false
	for n := uint64(0); n < 255; n++ {
		s, err := MarketVaultSigner(marketID, n)
		if err == nil {
			signer, nonce, found = s, n, true
			break
		}
	}
	if !found {
		t.Fatal("no off-curve vault signer within 255 nonces")
	}

	// Same inputs, same authority.
	again, err := MarketVaultSigner(marketID, nonce)
	if err != nil {
		t.Fatalf("MarketVaultSigner: %v", err)
	}
	if again != signer {
		t.Errorf("derivation not deterministic: %s vs %s", again, signer)
	}

	raw, err := base58.Decode(signer)
	if err != nil || len(raw) != 32 {
		t.Errorf("vault signer is not a 32-byte key: %s", signer)
	}
	if isOnCurve(raw) {
		t.Error("vault signer must be off curve")
	}
}

func TestFindProgramAddressOffCurve(t *testing.T) {
	addr, err := findProgramAddress([][]byte{[]byte("seed")}, TokenProgram)
	if err != nil {
		t.Fatalf("findProgramAddress: %v", err)
	}

	raw, err := base58.Decode(addr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if isOnCurve(raw) {
		t.Error("PDA must be off curve")
	}
}
