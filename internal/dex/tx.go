package dex

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Signer signs serialized transaction messages. Satisfied by wallet.Keypair.
type Signer interface {
	PublicKey() string
	Sign(message []byte) []byte
}

// AccountMeta describes one account an instruction touches.
type AccountMeta struct {
	Pubkey   string
	Signer   bool
	Writable bool
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

func meta(pubkey string, signer, writable bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, Signer: signer, Writable: writable}
}

// appendShortVec appends a shortvec-encoded (compact-u16) length.
func appendShortVec(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// accountEntry tracks merged flags for a transaction account.
type accountEntry struct {
	pubkey   string
	signer   bool
	writable bool
}

// BuildTransaction assembles, signs, and serializes a legacy transaction
// with a single fee-payer signer.
func BuildTransaction(instructions []Instruction, blockhash string, signer Signer) ([]byte, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions")
	}

	payer := signer.PublicKey()

	// Collect unique accounts with merged flags. The fee payer is always
	// the first writable signer.
	order := []string{payer}
	entries := map[string]*accountEntry{
		payer: {pubkey: payer, signer: true, writable: true},
	}
	add := func(pubkey string, isSigner, isWritable bool) {
		e, ok := entries[pubkey]
		if !ok {
			e = &accountEntry{pubkey: pubkey}
			entries[pubkey] = e
			order = append(order, pubkey)
		}
		e.signer = e.signer || isSigner
		e.writable = e.writable || isWritable
	}

	for _, ix := range instructions {
		for _, acc := range ix.Accounts {
			add(acc.Pubkey, acc.Signer, acc.Writable)
		}
		add(ix.ProgramID, false, false)
	}

	// Layout: writable signers, readonly signers, writable non-signers,
	// readonly non-signers. Insertion order is preserved within groups.
	var keys []*accountEntry
	for _, group := range []func(*accountEntry) bool{
		func(e *accountEntry) bool { return e.signer && e.writable },
		func(e *accountEntry) bool { return e.signer && !e.writable },
		func(e *accountEntry) bool { return !e.signer && e.writable },
		func(e *accountEntry) bool { return !e.signer && !e.writable },
	} {
		for _, pubkey := range order {
			if e := entries[pubkey]; group(e) {
				keys = append(keys, e)
			}
		}
	}

	index := make(map[string]byte, len(keys))
	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for i, e := range keys {
		index[e.pubkey] = byte(i)
		if e.signer {
			numSigners++
			if !e.writable {
				numReadonlySigned++
			}
		} else if !e.writable {
			numReadonlyUnsigned++
		}
	}

	blockhashRaw, err := base58.Decode(blockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash %q: %w", blockhash, err)
	}
	if len(blockhashRaw) != 32 {
		return nil, fmt.Errorf("blockhash %q is %d bytes, want 32", blockhash, len(blockhashRaw))
	}

	// Serialize the message.
	msg := []byte{byte(numSigners), byte(numReadonlySigned), byte(numReadonlyUnsigned)}
	msg = appendShortVec(msg, len(keys))
	for _, e := range keys {
		raw, err := base58.Decode(e.pubkey)
		if err != nil {
			return nil, fmt.Errorf("decode account %q: %w", e.pubkey, err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("account %q is %d bytes, want 32", e.pubkey, len(raw))
		}
		msg = append(msg, raw...)
	}
	msg = append(msg, blockhashRaw...)

	msg = appendShortVec(msg, len(instructions))
	for _, ix := range instructions {
		msg = append(msg, index[ix.ProgramID])
		msg = appendShortVec(msg, len(ix.Accounts))
		for _, acc := range ix.Accounts {
			msg = append(msg, index[acc.Pubkey])
		}
		msg = appendShortVec(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}

	if numSigners != 1 {
		return nil, fmt.Errorf("expected single signer, got %d", numSigners)
	}

	signature := signer.Sign(msg)

	tx := appendShortVec(nil, 1)
	tx = append(tx, signature...)
	tx = append(tx, msg...)
	return tx, nil
}
