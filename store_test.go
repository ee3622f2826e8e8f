package stockfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) SnapshotStore{
		"memory": func(t *testing.T) SnapshotStore { return new(MemoryStore) },
		"file":   func(t *testing.T) SnapshotStore { return NewFileStore(filepath.Join(t.TempDir(), "portfolios")) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			keys, err := store.Scan(ctx)
			if err != nil || len(keys) != 0 {
				t.Fatalf("Scan() of an empty store = %v, %v", keys, err)
			}
			if _, err := store.Load(ctx, "p", day("2023-06-01")); !errors.Is(err, ErrSnapshotNotFound) {
				t.Errorf("Load() of a missing snapshot error = %v, want %v", err, ErrSnapshotNotFound)
			}

			first := Snapshot{Name: "p", On: day("2023-06-01"), FirstPurchase: day("2023-06-01"),
				Holdings: []SnapshotHolding{{Symbol: "AAPL", Quantity: Q(10)}}}
			second := first
			second.Holdings = []SnapshotHolding{{Symbol: "AAPL", Quantity: Q(12)}}
			other := Snapshot{Name: "b", On: day("2023-06-05")}
			for _, s := range []Snapshot{first, second, other} {
				if err := store.Save(ctx, s); err != nil {
					t.Fatalf("Save(%v) unexpected error: %v", s.Key(), err)
				}
			}
			for _, name := range []string{"empty", "p", "empty"} {
				if err := store.Declare(ctx, name); err != nil {
					t.Fatalf("Declare(%q) unexpected error: %v", name, err)
				}
			}

			// last write wins
			got, err := store.Load(ctx, "p", day("2023-06-01"))
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if got.Name != "p" || got.On != day("2023-06-01") || got.FirstPurchase != day("2023-06-01") {
				t.Errorf("Load() = %+v, want %+v", got, second)
			}
			if len(got.Holdings) != 1 || !got.Holdings[0].Quantity.Equal(Q(12)) {
				t.Errorf("Load() holdings = %v, want AAPL 12", got.Holdings)
			}

			keys, err = store.Scan(ctx)
			if err != nil {
				t.Fatalf("Scan() unexpected error: %v", err)
			}
			want := []string{"b@2023-06-05", "empty", "p", "p@2023-06-01"}
			var gotKeys []string
			for _, k := range keys {
				gotKeys = append(gotKeys, k.String())
			}
			if diff := cmp.Diff(want, gotKeys); diff != "" {
				t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
			}

			// loaded snapshots are independent copies
			got.Holdings[0].Quantity = Q(1)
			again, _ := store.Load(ctx, "p", day("2023-06-01"))
			if !again.Holdings[0].Quantity.Equal(Q(12)) {
				t.Errorf("store content changed through a loaded snapshot")
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewFileStore(root)
	if err := store.Save(ctx, Snapshot{Name: "tech", On: day("2023-06-01")}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "2023-06-01", "tech.json")); err != nil {
		t.Errorf("snapshot file not found: %v", err)
	}

	for _, name := range []string{"", "..", "a/b"} {
		if err := store.Save(ctx, Snapshot{Name: name, On: day("2023-06-01")}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Save(%q) error = %v, want %v", name, err, ErrInvalidArgument)
		}
	}

	if err := store.Declare(ctx, "cash"); err != nil {
		t.Fatalf("Declare() unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "cash.json")); err != nil {
		t.Errorf("declaration file not found: %v", err)
	}
	if err := store.Declare(ctx, "a/b"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Declare(a/b) error = %v, want %v", err, ErrInvalidArgument)
	}

	// foreign files are ignored by Scan
	if err := os.MkdirAll(filepath.Join(root, "misc"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "misc", "notes.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	keys, err := store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	var got []string
	for _, k := range keys {
		got = append(got, k.String())
	}
	if diff := cmp.Diff([]string{"cash", "tech@2023-06-01"}, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}
