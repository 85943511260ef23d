package discovery

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// SnipeList restricts buying to an allow-list of base mints read from a
// newline-delimited file. The file is re-read on an interval so entries can
// be added while the feed is running.
type SnipeList struct {
	path   string
	logger *log.Logger

	mu    sync.RWMutex
	mints map[string]struct{}
}

// NewSnipeList loads the allow-list file. Lines are trimmed; empty lines and
// lines starting with '#' are ignored.
func NewSnipeList(path string, logger *log.Logger) (*SnipeList, error) {
	if logger == nil {
		logger = log.Default()
	}

	s := &SnipeList{
		path:   path,
		logger: logger,
		mints:  make(map[string]struct{}),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the allow-list file, replacing the current set.
func (s *SnipeList) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open snipe list: %w", err)
	}
	defer f.Close()

	mints := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mints[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read snipe list: %w", err)
	}

	s.mu.Lock()
	s.mints = mints
	s.mu.Unlock()
	return nil
}

// Run reloads the allow-list on the given interval until the context ends.
// Reload failures are logged and the previous set stays in effect.
func (s *SnipeList) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(); err != nil {
				s.logger.Printf("[snipelist] reload failed: %v", err)
			}
		}
	}
}

// Contains reports whether a mint is on the allow-list.
func (s *SnipeList) Contains(mint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mints[mint]
	return ok
}

// Len reports the number of listed mints.
func (s *SnipeList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mints)
}
