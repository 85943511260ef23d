package domain

import (
	"fmt"
	"math"
)

// Well-known mint addresses.
const (
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// QuoteToken is the reference currency trade and pool sizes are denominated in.
type QuoteToken struct {
	Symbol   string
	Mint     string
	Decimals uint8
}

var (
	QuoteWSOL = QuoteToken{Symbol: "WSOL", Mint: WSOLMint, Decimals: 9}
	QuoteUSDC = QuoteToken{Symbol: "USDC", Mint: USDCMint, Decimals: 6}
)

// QuoteBySymbol resolves a configured quote-currency selection.
// Unsupported selections are a startup error.
func QuoteBySymbol(symbol string) (QuoteToken, error) {
	switch symbol {
	case "WSOL":
		return QuoteWSOL, nil
	case "USDC":
		return QuoteUSDC, nil
	default:
		return QuoteToken{}, fmt.Errorf("unsupported quote token %q (want WSOL or USDC)", symbol)
	}
}

// ToBase converts a raw smallest-unit amount to base-currency units.
func (q QuoteToken) ToBase(raw uint64) float64 {
	return float64(raw) / math.Pow10(int(q.Decimals))
}

// ToRaw converts a base-currency amount to raw smallest units.
func (q QuoteToken) ToRaw(amount float64) uint64 {
	return uint64(amount * math.Pow10(int(q.Decimals)))
}
