package stockfolio

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/etnz/stockfolio/date"
)

// Registry is the directory of known portfolios.
//
// For each name it tracks the date of the most recent mutation, and an ordered
// index of the dates of its snapshots. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	recent map[string]date.Date // zero for a portfolio never mutated
	index  map[string]*date.History[struct{}]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		recent: make(map[string]date.Date),
		index:  make(map[string]*date.History[struct{}]),
	}
}

// Rebuild resets r from the snapshots and declared portfolios found in store.
func (r *Registry) Rebuild(ctx context.Context, store SnapshotStore) error {
	keys, err := store.Scan(ctx)
	if err != nil {
		return fmt.Errorf("cannot rebuild registry: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.recent)
	clear(r.index)
	for _, k := range keys {
		if k.On.IsZero() {
			if _, ok := r.recent[k.Name]; !ok {
				r.recent[k.Name] = date.Date{}
			}
			continue
		}
		r.record(k.Name, k.On)
	}
	return nil
}

// Register adds name to the registry, if it is not already known. It reports
// whether the name was added.
func (r *Registry) Register(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.recent[name]; exists {
		return false
	}
	r.recent[name] = date.Date{}
	return true
}

// Record notes that a snapshot of name has been written on day.
//
// The most recent mutation date never moves backward.
func (r *Registry) Record(name string, day date.Date) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(name, day)
}

func (r *Registry) record(name string, day date.Date) {
	r.recent[name] = date.Max(r.recent[name], day)
	h, ok := r.index[name]
	if !ok {
		h = new(date.History[struct{}])
		r.index[name] = h
	}
	h.Append(day, struct{}{})
}

// Has reports whether name is a known portfolio.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.recent[name]
	return ok
}

// MostRecent returns the date of the most recent mutation of name.
// ok is false if name was never mutated.
func (r *Registry) MostRecent(name string) (day date.Date, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day = r.recent[name]
	return day, !day.IsZero()
}

// Names returns the known portfolio names in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.recent))
}

// Indexed reports whether snapshot dates are known for name.
func (r *Registry) Indexed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.index[name]
	return ok && h.Len() > 0
}

// Floor returns the most recent snapshot date of name on or before day.
func (r *Registry) Floor(name string, day date.Date) (on date.Date, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, exists := r.index[name]
	if !exists {
		return date.Date{}, false
	}
	on, _, ok = h.Floor(day)
	return on, ok
}
