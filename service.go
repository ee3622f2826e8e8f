package stockfolio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
)

// MutationKind tells an addition from a removal of stocks.
type MutationKind int

const (
	Add MutationKind = iota
	Remove
)

func (k MutationKind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

// ParseMutationKind parses "add" or "remove".
func ParseMutationKind(s string) (MutationKind, error) {
	switch s {
	case "add":
		return Add, nil
	case "remove":
		return Remove, nil
	default:
		return 0, invalidf("unknown mutation %q, want add or remove", s)
	}
}

func (k MutationKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MutationKind) UnmarshalText(b []byte) error {
	v, err := ParseMutationKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Event describes a committed mutation.
type Event struct {
	Kind      MutationKind
	Portfolio string
	Symbol    string
	Quantity  Quantity
	On        date.Date
	Revision  uuid.UUID
}

// MarshalJSON implements the json.Marshaler interface.
func (e Event) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", e.Kind.String())
	w.Append("portfolio", e.Portfolio)
	w.Append("symbol", e.Symbol)
	w.Append("quantity", e.Quantity)
	w.Append("on", e.On)
	w.Append("revision", e.Revision)
	return w.MarshalJSON()
}

// Service applies mutations to the live portfolios and persists them.
//
// Every successful mutation writes a snapshot and records it in the Registry;
// the live state changes only once the snapshot has been written. Mutations of
// the same portfolio are serialized.
type Service struct {
	store         SnapshotStore
	registry      *Registry
	prices        PriceSource
	reconstructor *Reconstructor

	mu    sync.Mutex
	live  map[string]*Portfolio
	locks map[string]*sync.Mutex

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// NewService returns a Service over store. The registry must have been rebuilt
// from the same store.
func NewService(store SnapshotStore, registry *Registry, prices PriceSource) *Service {
	return &Service{
		store:         store,
		registry:      registry,
		prices:        prices,
		reconstructor: NewReconstructor(store, registry, prices),
		live:          make(map[string]*Portfolio),
		locks:         make(map[string]*sync.Mutex),
		subs:          make(map[chan Event]struct{}),
	}
}

// Registry returns the registry of the service.
func (s *Service) Registry() *Registry { return s.registry }

// Prices returns the price source of the service.
func (s *Service) Prices() PriceSource { return s.prices }

// lock acquires the mutation lock of name, and returns the function to release it.
func (s *Service) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = new(sync.Mutex)
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Create declares a new empty portfolio in the store and the registry.
//
// It fails with ErrInvalidArgument if name is already known.
func (s *Service) Create(ctx context.Context, name string) error {
	p, err := NewPortfolio(name)
	if err != nil {
		return err
	}
	defer s.lock(name)()
	if s.registry.Has(name) {
		return invalidf("portfolio %q already exists", name)
	}
	if err := s.store.Declare(ctx, name); err != nil {
		return fmt.Errorf("cannot create portfolio %q: %w", name, err)
	}
	s.registry.Register(name)
	s.mu.Lock()
	s.live[name] = p
	s.mu.Unlock()
	return nil
}

// Live returns a copy of the current state of name.
func (s *Service) Live(ctx context.Context, name string) (*Portfolio, error) {
	defer s.lock(name)()
	p, err := s.current(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// current returns the live state of name, loading it from the most recent
// snapshot the first time. Unknown names get a fresh empty portfolio that is
// only kept once a mutation commits. The caller must hold the lock of name.
func (s *Service) current(ctx context.Context, name string) (*Portfolio, error) {
	s.mu.Lock()
	p, ok := s.live[name]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := NewPortfolio(name)
	if err != nil {
		return nil, err
	}
	if !s.registry.Has(name) {
		return p, nil
	}
	if recent, ok := s.registry.MostRecent(name); ok {
		snap, err := s.store.Load(ctx, name, recent)
		switch {
		case errors.Is(err, ErrSnapshotNotFound):
			log.Printf("no snapshot for %q on its most recent date %v, starting empty", name, recent)
		case err != nil:
			return nil, err
		default:
			if p, err = snap.Restore(ctx, s.prices); err != nil {
				return nil, err
			}
		}
	}
	s.mu.Lock()
	s.live[name] = p
	s.mu.Unlock()
	return p, nil
}

// Reconstruct returns the holdings of name valid on day.
func (s *Service) Reconstruct(ctx context.Context, name string, day date.Date) (*Portfolio, error) {
	return s.reconstructor.Reconstruct(ctx, name, day)
}

// Add buys quantity of stock in portfolio name on day.
//
// It fails with ErrInvalidArgument if day is before the most recent mutation or
// the first purchase, or if stock has no price on or before day.
func (s *Service) Add(ctx context.Context, name string, stock *PriceSeries, quantity Quantity, day date.Date) error {
	return s.apply(ctx, name, Add, stock, quantity, day)
}

// Remove sells quantity of stock from portfolio name on day.
//
// It fails with ErrInvalidArgument if day is before the first purchase, or if
// less than quantity is held. Unlike Add, day is not checked against the
// most recent mutation.
//
// A removal dated before the most recent mutation is written as a snapshot on
// its own day only. Snapshots dated after it still hold the removed quantity,
// so once the live state is reloaded from the most recent snapshot, for
// instance after a restart, the removal no longer shows.
func (s *Service) Remove(ctx context.Context, name string, stock *PriceSeries, quantity Quantity, day date.Date) error {
	return s.apply(ctx, name, Remove, stock, quantity, day)
}

func (s *Service) apply(ctx context.Context, name string, kind MutationKind, stock *PriceSeries, quantity Quantity, day date.Date) error {
	defer s.lock(name)()
	p, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	next, err := s.mutate(p, kind, stock, quantity, day)
	if err != nil {
		return err
	}
	_, err = s.commit(ctx, next, day, Event{Kind: kind, Symbol: stock.Symbol(), Quantity: quantity})
	return err
}

// validate checks that kind of stock can be applied to p on day.
func (s *Service) validate(p *Portfolio, kind MutationKind, stock *PriceSeries, quantity Quantity, day date.Date) error {
	if stock == nil {
		return invalidf("stock to %s must be given", kind)
	}
	if !quantity.IsPositive() {
		return invalidf("quantity to %s cannot be less than or equal to 0: %v", kind, quantity)
	}
	if day.IsZero() {
		return invalidf("date to %s %s must be given", kind, stock.Symbol())
	}
	if kind == Add {
		if recent, ok := s.registry.MostRecent(p.Name()); ok && day.Before(recent) {
			return invalidf("date %v cannot be before the most recent change %v of %q", day, recent, p.Name())
		}
	}
	if first := p.FirstPurchase(); !first.IsZero() && day.Before(first) {
		return invalidf("cannot %s %s before the first purchase date %v", kind, stock.Symbol(), first)
	}
	switch kind {
	case Add:
		if _, ok := stock.AsOf(day); !ok {
			return invalidf("%s has no price on or before %v", stock.Symbol(), day)
		}
	case Remove:
		if !p.Holds(stock.Symbol()) {
			return invalidf("%s is not held in %q", stock.Symbol(), p.Name())
		}
		if held := p.Quantity(stock.Symbol()); held.LessThan(quantity) {
			return invalidf("cannot remove %v %s, only %v held", quantity, stock.Symbol(), held)
		}
	default:
		return fmt.Errorf("unknown mutation %v", kind)
	}
	return nil
}

// mutate returns a copy of p with the mutation applied. p is left unchanged.
func (s *Service) mutate(p *Portfolio, kind MutationKind, stock *PriceSeries, quantity Quantity, day date.Date) (*Portfolio, error) {
	if err := s.validate(p, kind, stock, quantity, day); err != nil {
		return nil, err
	}
	next := p.Clone()
	symbol := stock.Symbol()
	held := next.holdings[symbol].quantity
	switch kind {
	case Add:
		next.holdings[symbol] = holding{series: stock, quantity: held.Add(quantity)}
		if next.firstPurchase.IsZero() {
			next.firstPurchase = day
		}
	case Remove:
		remaining := held.Sub(quantity)
		if remaining.IsZero() {
			delete(next.holdings, symbol)
		} else {
			next.holdings[symbol] = holding{series: next.holdings[symbol].series, quantity: remaining}
		}
	}
	return next, nil
}

// commit persists next as the state on day, then makes it the live state.
// The caller must hold the lock of next.
func (s *Service) commit(ctx context.Context, next *Portfolio, day date.Date, e Event) (Snapshot, error) {
	snap := NewSnapshot(next, day)
	if err := s.store.Save(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("cannot write snapshot %v: %w", snap.Key(), err)
	}
	s.mu.Lock()
	s.live[next.Name()] = next
	s.mu.Unlock()
	s.registry.Record(next.Name(), day)

	e.Portfolio, e.On, e.Revision = next.Name(), day, snap.Revision
	s.publish(e)
	return snap, nil
}

// Subscribe returns a channel receiving the events of committed mutations,
// and the function to cancel the subscription.
//
// Events are dropped for subscribers that do not keep up.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Service) publish(e Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
			log.Printf("dropping %s event of %q for a slow subscriber", e.Kind, e.Portfolio)
		}
	}
}
