package stockfolio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
)

// Snapshot is the persisted state of a portfolio on a given day.
//
// Snapshots are written once per mutation date, a later mutation on the same
// day overwrites it.
type Snapshot struct {
	Name          string
	On            date.Date // part of the key, not of the payload
	FirstPurchase date.Date
	Revision      uuid.UUID
	Holdings      []SnapshotHolding // sorted by symbol
}

// SnapshotHolding is a (symbol, quantity) pair in a Snapshot.
type SnapshotHolding struct {
	Symbol   string   `json:"symbol"`
	Quantity Quantity `json:"quantity"`
}

// SnapshotKey identifies a Snapshot in a SnapshotStore.
//
// Scan reports a portfolio declared without any snapshot with a zero On.
type SnapshotKey struct {
	Name string
	On   date.Date
}

func (k SnapshotKey) String() string {
	if k.On.IsZero() {
		return k.Name
	}
	return fmt.Sprintf("%s@%s", k.Name, k.On)
}

// SnapshotStore is a durable key-value store of snapshots keyed by
// (portfolio name, date).
type SnapshotStore interface {
	// Save writes s at (s.Name, s.On), overwriting any previous snapshot for that key.
	Save(ctx context.Context, s Snapshot) error
	// Load returns the snapshot stored at (name, on), or an error wrapping
	// ErrSnapshotNotFound.
	Load(ctx context.Context, name string, on date.Date) (Snapshot, error)
	// Declare records that the portfolio name exists, even without snapshot.
	// Declaring a name twice is not an error.
	Declare(ctx context.Context, name string) error
	// Scan lists the keys of all stored snapshots, plus a zero dated key for
	// every declared portfolio.
	Scan(ctx context.Context) ([]SnapshotKey, error)
}

// NewSnapshot captures the state of p on day with a fresh revision.
func NewSnapshot(p *Portfolio, on date.Date) Snapshot {
	s := Snapshot{
		Name:          p.Name(),
		On:            on,
		FirstPurchase: p.FirstPurchase(),
		Revision:      uuid.New(),
		Holdings:      make([]SnapshotHolding, 0, p.Len()),
	}
	for series, qty := range p.Holdings() {
		s.Holdings = append(s.Holdings, SnapshotHolding{Symbol: series.Symbol(), Quantity: qty})
	}
	return s
}

// Key returns the store key of s.
func (s Snapshot) Key() SnapshotKey { return SnapshotKey{Name: s.Name, On: s.On} }

// Restore rebuilds a Portfolio from s, attaching the price series found in src.
func (s Snapshot) Restore(ctx context.Context, src PriceSource) (*Portfolio, error) {
	p, err := NewPortfolio(s.Name)
	if err != nil {
		return nil, err
	}
	p.firstPurchase = s.FirstPurchase
	for _, h := range s.Holdings {
		series, err := src.Series(ctx, h.Symbol)
		if err != nil {
			return nil, fmt.Errorf("cannot restore %v holding %q: %w", s.Key(), h.Symbol, err)
		}
		p.holdings[h.Symbol] = holding{series: series, quantity: h.Quantity}
	}
	return p, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	holdings := s.Holdings
	if holdings == nil {
		holdings = []SnapshotHolding{}
	}
	w.Append("name", s.Name)
	w.Optional("firstPurchase", s.FirstPurchase)
	w.Optional("revision", s.Revision)
	w.Append("holdings", holdings)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name          string            `json:"name"`
		FirstPurchase date.Date         `json:"firstPurchase"`
		Revision      uuid.UUID         `json:"revision"`
		Holdings      []SnapshotHolding `json:"holdings"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Name = aux.Name
	s.FirstPurchase = aux.FirstPurchase
	s.Revision = aux.Revision
	s.Holdings = aux.Holdings
	return nil
}
