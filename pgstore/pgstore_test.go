package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// newTestStore connects to the database named by FOLIO_TEST_DATABASE_URL, or skips the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("FOLIO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FOLIO_TEST_DATABASE_URL is not set")
	}
	s, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	name := "test-" + uuid.NewString()
	t.Cleanup(func() { s.Delete(ctx, name) })

	on := date.New(2023, 6, 1)
	if _, err := s.Load(ctx, name, on); !errors.Is(err, stockfolio.ErrSnapshotNotFound) {
		t.Fatalf("Load() of a missing snapshot error = %v, want %v", err, stockfolio.ErrSnapshotNotFound)
	}

	for range 2 {
		if err := s.Declare(ctx, name); err != nil {
			t.Fatalf("Declare() unexpected error: %v", err)
		}
	}

	snap := stockfolio.Snapshot{
		Name:          name,
		On:            on,
		FirstPurchase: on,
		Revision:      uuid.New(),
		Holdings: []stockfolio.SnapshotHolding{
			{Symbol: "AAPL", Quantity: stockfolio.Q(10)},
			{Symbol: "ADBE", Quantity: stockfolio.Q(2.125)},
		},
	}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	// last write wins
	snap.Holdings = snap.Holdings[1:]
	snap.Revision = uuid.New()
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := s.Load(ctx, name, on)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.Revision != snap.Revision || got.FirstPurchase != snap.FirstPurchase {
		t.Errorf("Load() = %+v, want %+v", got, snap)
	}
	if len(got.Holdings) != 1 || got.Holdings[0].Symbol != "ADBE" || !got.Holdings[0].Quantity.Equal(stockfolio.Q(2.125)) {
		t.Errorf("Load() holdings = %v, want ADBE 2.125", got.Holdings)
	}

	keys, err := s.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	var mine []string
	for _, k := range keys {
		switch {
		case k.Name != name:
		case k.On.IsZero():
			mine = append(mine, "declared")
		default:
			mine = append(mine, k.On.String())
		}
	}
	if diff := cmp.Diff([]string{"declared", "2023-06-01"}, mine); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRequiresKey(t *testing.T) {
	s := &Store{} // never reaches the database
	err := s.Save(context.Background(), stockfolio.Snapshot{Name: "p"})
	if !errors.Is(err, stockfolio.ErrInvalidArgument) {
		t.Errorf("Save() error = %v, want %v", err, stockfolio.ErrInvalidArgument)
	}
	if err := s.Declare(context.Background(), ""); !errors.Is(err, stockfolio.ErrInvalidArgument) {
		t.Errorf("Declare(\"\") error = %v, want %v", err, stockfolio.ErrInvalidArgument)
	}
}
