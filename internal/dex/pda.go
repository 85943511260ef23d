package dex

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// createProgramAddress hashes seeds with the program ID and the PDA marker.
// The result must fall off the ed25519 curve to be a valid PDA.
func createProgramAddress(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	data := make([]byte, 0)
	for _, seed := range seeds {
		data = append(data, seed...)
	}
	data = append(data, program...)
	data = append(data, []byte("ProgramDerivedAddress")...)

	hash := sha256.Sum256(data)
	if isOnCurve(hash[:]) {
		return "", fmt.Errorf("derived address is on curve")
	}
	return base58.Encode(hash[:]), nil
}

// findProgramAddress searches bump seeds downward from 255 for the first
// off-curve derivation.
func findProgramAddress(seeds [][]byte, programID string) (string, error) {
	for bump := byte(255); bump > 0; bump-- {
		addr, err := createProgramAddress(append(seeds, []byte{bump}), programID)
		if err == nil {
			return addr, nil
		}
	}
	return "", fmt.Errorf("no off-curve address found for program %s", programID)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// AssociatedTokenAddress derives the owner's associated token account for
// a mint.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerRaw, err := base58.Decode(owner)
	if err != nil {
		return "", fmt.Errorf("decode owner: %w", err)
	}
	tokenRaw, err := base58.Decode(TokenProgram)
	if err != nil {
		return "", fmt.Errorf("decode token program: %w", err)
	}
	mintRaw, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}

	return findProgramAddress([][]byte{ownerRaw, tokenRaw, mintRaw}, AssociatedTokenProgram)
}

// MarketVaultSigner derives the OpenBook vault-signer authority from the
// market address and its vault-signer nonce.
func MarketVaultSigner(marketID string, nonce uint64) (string, error) {
	marketRaw, err := base58.Decode(marketID)
	if err != nil {
		return "", fmt.Errorf("decode market id: %w", err)
	}

	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)

	return createProgramAddress([][]byte{marketRaw, nonceBytes}, OpenBook)
}
