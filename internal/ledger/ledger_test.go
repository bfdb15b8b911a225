package ledger

import (
	"errors"
	"testing"

	"pairwatch/internal/models"
)

type fakeStore struct {
	seen    map[string]struct{}
	saved   [][]models.SeenPair
	loadErr error
	saveErr error
}

func (f *fakeStore) LoadSeen() (map[string]struct{}, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]struct{}, len(f.seen))
	for k := range f.seen {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) SaveSeen(pairs []models.SeenPair) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, pairs)
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	for _, p := range pairs {
		f.seen[p.PairID] = struct{}{}
	}
	return nil
}

func TestOpen_LoadsPersistedSet(t *testing.T) {
	store := &fakeStore{seen: map[string]struct{}{
		"ethereum:0xaaa": {},
		"bsc:0xbbb":      {},
	}}

	l, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 known pairs, got %d", l.Len())
	}
	if !l.Contains("ethereum:0xaaa") {
		t.Error("expected persisted pair to be present")
	}
	if l.Contains("ethereum:0xccc") {
		t.Error("unexpected pair reported present")
	}
}

func TestOpen_LoadError(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("disk gone")}
	if _, err := Open(store); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestAdd_VisibleBeforeFlush(t *testing.T) {
	l, err := Open(&fakeStore{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.Add("ethereum:0xaaa", "ethereum")
	if !l.Contains("ethereum:0xaaa") {
		t.Error("addition should be visible immediately")
	}
	if l.Len() != 1 {
		t.Errorf("expected 1 known pair, got %d", l.Len())
	}
}

func TestAdd_DuplicateIsNoOp(t *testing.T) {
	store := &fakeStore{}
	l, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.Add("ethereum:0xaaa", "ethereum")
	l.Add("ethereum:0xaaa", "ethereum")
	if l.Len() != 1 {
		t.Errorf("expected 1 known pair, got %d", l.Len())
	}

	if err := l.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(store.saved) != 1 || len(store.saved[0]) != 1 {
		t.Errorf("expected a single persisted entry, got %v", store.saved)
	}
}

func TestFlush_ClearsBufferOnSuccess(t *testing.T) {
	store := &fakeStore{}
	l, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.Add("ethereum:0xaaa", "ethereum")
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	// Second flush has nothing to write.
	if err := l.Flush(); err != nil {
		t.Fatalf("empty Flush failed: %v", err)
	}
	if len(store.saved) != 1 {
		t.Errorf("expected exactly one save, got %d", len(store.saved))
	}
}

func TestFlush_KeepsBufferOnFailure(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	l, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.Add("ethereum:0xaaa", "ethereum")
	if err := l.Flush(); err == nil {
		t.Fatal("expected flush error")
	}
	// Entry stays visible in memory despite the failed persist.
	if !l.Contains("ethereum:0xaaa") {
		t.Error("pair should remain present after failed flush")
	}

	store.saveErr = nil
	if err := l.Flush(); err != nil {
		t.Fatalf("retry Flush failed: %v", err)
	}
	if _, ok := store.seen["ethereum:0xaaa"]; !ok {
		t.Error("retried flush should persist the buffered entry")
	}
}
