package solana

// AccountInfo represents Solana account information with decoded data.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// TokenAccount is an SPL token account owned by a wallet.
type TokenAccount struct {
	Address string
	Mint    string
	Amount  uint64 // raw smallest-unit balance
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	Err                interface{}
	ConfirmationStatus string // processed | confirmed | finalized
}

// Confirmed reports whether the transaction reached at least the given
// commitment without an execution error.
func (s *SignatureStatus) Confirmed(commitment string) bool {
	if s == nil || s.Err != nil {
		return false
	}
	switch s.ConfirmationStatus {
	case "finalized":
		return true
	case "confirmed":
		return commitment != "finalized"
	case "processed":
		return commitment == "processed"
	default:
		return false
	}
}
