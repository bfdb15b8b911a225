// Package ledger maintains the durable set of pair identifiers already
// processed. Once an identifier is added it is never re-evaluated or
// re-alerted, across restarts included.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"pairwatch/internal/models"
)

// Store is the durable backing of the ledger. *storage.Storage satisfies
// it; tests substitute an in-memory fake.
type Store interface {
	LoadSeen() (map[string]struct{}, error)
	SaveSeen(pairs []models.SeenPair) error
}

// Ledger is an append-only seen-pair set: an in-memory map loaded once at
// startup, with additions buffered and persisted by Flush at the end of
// each scan cycle. Safe for concurrent use; the lock is held only for the
// duration of a single call.
type Ledger struct {
	mu      sync.Mutex
	store   Store
	seen    map[string]struct{}
	pending []models.SeenPair
}

// Open loads the persisted set and returns a ready ledger.
func Open(store Store) (*Ledger, error) {
	seen, err := store.LoadSeen()
	if err != nil {
		return nil, fmt.Errorf("failed to load seen pairs: %w", err)
	}
	if seen == nil {
		seen = make(map[string]struct{})
	}
	return &Ledger{store: store, seen: seen}, nil
}

// Contains reports whether the pair identifier has already been processed.
func (l *Ledger) Contains(pairID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[pairID]
	return ok
}

// Add marks a pair identifier as processed. The addition is visible to
// Contains immediately and persisted on the next Flush. Adding an already
// present identifier is a no-op.
func (l *Ledger) Add(pairID, chain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[pairID]; ok {
		return
	}
	l.seen[pairID] = struct{}{}
	l.pending = append(l.pending, models.SeenPair{
		PairID:    pairID,
		Chain:     chain,
		FirstSeen: time.Now(),
	})
}

// Flush persists all buffered additions. On failure the buffer is kept so
// a later flush can retry; on success it is cleared.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	if err := l.store.SaveSeen(l.pending); err != nil {
		return fmt.Errorf("failed to persist %d seen pairs: %w", len(l.pending), err)
	}
	l.pending = nil
	return nil
}

// Len returns the number of known pair identifiers.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
