package stockfolio

import (
	"context"
	"errors"

	"github.com/etnz/stockfolio/date"
)

// Reconstructor rebuilds the state of a portfolio as of any past date from
// its snapshots.
type Reconstructor struct {
	store    SnapshotStore
	registry *Registry
	prices   PriceSource
}

// NewReconstructor returns a Reconstructor reading snapshots from store.
func NewReconstructor(store SnapshotStore, registry *Registry, prices PriceSource) *Reconstructor {
	return &Reconstructor{store: store, registry: registry, prices: prices}
}

// Reconstruct returns the holdings of name valid on day.
//
// The snapshot written on day is used if any. Otherwise, the latest snapshot
// before day is used, bounded by the first purchase date. When there is none,
// an empty portfolio is returned.
//
// Two reconstructions for the same name and day return equal, independent
// states.
func (r *Reconstructor) Reconstruct(ctx context.Context, name string, day date.Date) (*Portfolio, error) {
	empty, err := NewPortfolio(name)
	if err != nil {
		return nil, err
	}
	if day.IsZero() {
		return nil, invalidf("date to reconstruct portfolio %q must be given", name)
	}

	p, err := r.load(ctx, name, day)
	if !errors.Is(err, ErrSnapshotNotFound) {
		return p, err
	}

	// The reference state is only used for its first purchase date.
	recent, ok := r.registry.MostRecent(name)
	if !ok {
		return empty, nil
	}
	ref, err := r.store.Load(ctx, name, recent)
	if errors.Is(err, ErrSnapshotNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	if len(ref.Holdings) == 0 || ref.FirstPurchase.IsZero() {
		return empty, nil
	}
	first := ref.FirstPurchase
	if day.Before(first) {
		return empty, nil
	}

	if r.registry.Indexed(name) {
		on, ok := r.registry.Floor(name, day.Add(-1))
		if !ok || on.Before(first) {
			return empty, nil
		}
		p, err := r.load(ctx, name, on)
		if !errors.Is(err, ErrSnapshotNotFound) {
			return p, err
		}
		// the index is stale, fall back to the scan.
	}

	for candidate := day.Add(-1); !candidate.Before(first); candidate = candidate.Add(-1) {
		p, err := r.load(ctx, name, candidate)
		if !errors.Is(err, ErrSnapshotNotFound) {
			return p, err
		}
	}
	return empty, nil
}

// load restores the snapshot of name written exactly on day.
func (r *Reconstructor) load(ctx context.Context, name string, day date.Date) (*Portfolio, error) {
	snap, err := r.store.Load(ctx, name, day)
	if err != nil {
		return nil, err
	}
	return snap.Restore(ctx, r.prices)
}
