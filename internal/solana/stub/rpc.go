package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-pool-sniper/internal/solana"
)

// ErrNotFound is returned when a stubbed record does not exist.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	Balances      map[string]uint64                 // token account -> raw amount
	TokenAccounts map[string][]solana.TokenAccount  // owner|mint -> accounts
	Statuses      map[string]*solana.SignatureStatus
	Blockhash     string

	// SendErrs are consumed one per SendTransaction call; a nil entry (or
	// exhaustion) means the submission succeeds.
	SendErrs []error

	sent    [][]byte
	sigSeq  int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw",
	}
}

// GetAccountInfo retrieves an account from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetTokenAccountBalance retrieves a stubbed token balance.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, ok := c.Balances[account]
	if !ok {
		return 0, ErrNotFound
	}
	return amount, nil
}

// GetTokenAccountsByOwner lists stubbed token accounts for owner and mint.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, mint string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenAccounts[owner+"|"+mint], nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Blockhash, nil
}

// SendTransaction records the submission and returns a synthetic signature,
// or the next configured error.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.SendErrs) > 0 {
		err := c.SendErrs[0]
		c.SendErrs = c.SendErrs[1:]
		if err != nil {
			return "", err
		}
	}

	c.sigSeq++
	txCopy := make([]byte, len(rawTx))
	copy(txCopy, rawTx)
	c.sent = append(c.sent, txCopy)
	return fmt.Sprintf("stubsig-%d", c.sigSeq), nil
}

// GetSignatureStatuses returns configured statuses, defaulting to confirmed.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if s, ok := c.Statuses[sig]; ok {
			statuses[i] = s
			continue
		}
		statuses[i] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}
	}
	return statuses, nil
}

// Sent returns all submitted raw transactions.
func (c *RPCClient) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Verify interface compliance at compile time.
var _ solana.RPCClient = (*RPCClient)(nil)
