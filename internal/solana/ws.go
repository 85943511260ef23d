package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeProgram subscribes to account changes owned by a program,
	// narrowed by data-size and memcmp filters.
	SubscribeProgram(ctx context.Context, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// MemcmpFilter matches account data bytes at an offset.
type MemcmpFilter struct {
	Offset uint64
	Bytes  string // base58-encoded comparison bytes
}

// AccountFilter narrows a program subscription.
type AccountFilter struct {
	DataSize uint64        // 0 means no size filter
	Memcmp   *MemcmpFilter // nil means no memcmp filter
}

// ProgramFilter defines a programSubscribe request.
type ProgramFilter struct {
	ProgramID  string
	Commitment string // empty means confirmed
	Filters    []AccountFilter
}

// AccountNotification is a single program account change.
type AccountNotification struct {
	Pubkey   string
	Slot     int64
	Owner    string
	Lamports uint64
	Data     []byte
}
