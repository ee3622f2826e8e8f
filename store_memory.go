package stockfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/etnz/stockfolio/date"
)

// MemoryStore is a SnapshotStore kept in memory.
//
// Snapshots are stored encoded, so that every Load returns an independent copy.
// Its zero value is ready to use.
type MemoryStore struct {
	mu       sync.RWMutex
	snaps    map[SnapshotKey][]byte
	declared map[string]struct{}
}

// Save implements SnapshotStore.
func (m *MemoryStore) Save(ctx context.Context, s Snapshot) error {
	if s.Name == "" || s.On.IsZero() {
		return invalidf("snapshot name and date must be given")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cannot encode snapshot %v: %w", s.Key(), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = make(map[SnapshotKey][]byte)
	}
	m.snaps[s.Key()] = data
	return nil
}

// Load implements SnapshotStore.
func (m *MemoryStore) Load(ctx context.Context, name string, on date.Date) (Snapshot, error) {
	key := SnapshotKey{Name: name, On: on}
	m.mu.RLock()
	data, ok := m.snaps[key]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotNotFound, key)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("cannot decode snapshot %v: %w", key, err)
	}
	s.Name, s.On = name, on
	return s, nil
}

// Declare implements SnapshotStore.
func (m *MemoryStore) Declare(ctx context.Context, name string) error {
	if name == "" {
		return invalidf("portfolio name must be given")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.declared == nil {
		m.declared = make(map[string]struct{})
	}
	m.declared[name] = struct{}{}
	return nil
}

// Scan implements SnapshotStore.
func (m *MemoryStore) Scan(ctx context.Context) ([]SnapshotKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := slices.Collect(maps.Keys(m.snaps))
	for name := range m.declared {
		keys = append(keys, SnapshotKey{Name: name})
	}
	slices.SortFunc(keys, compareKeys)
	return keys, nil
}

// Len returns the number of snapshots stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snaps)
}
