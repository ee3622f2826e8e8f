package stockfolio

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/stockfolio/date"
)

// FileStore is a SnapshotStore on the file system.
//
// Snapshots are stored one per file, as "<root>/<YYYY-MM-DD>/<name>.json".
// A declared portfolio is marked by an empty snapshot "<root>/<name>.json".
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewFileStore(dir string) *FileStore { return &FileStore{root: dir} }

// Root returns the root directory of the store.
func (s *FileStore) Root() string { return s.root }

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return invalidf("invalid portfolio name %q", name)
	}
	return nil
}

func (s *FileStore) path(name string, on date.Date) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if on.IsZero() {
		return "", invalidf("snapshot date must be given")
	}
	return filepath.Join(s.root, on.String(), name+".json"), nil
}

// Save implements SnapshotStore. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	filePath, err := s.path(snap.Name, snap.On)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cannot encode snapshot %v: %w", snap.Key(), err)
	}
	if err := writeFile(filePath, data); err != nil {
		return fmt.Errorf("cannot write snapshot %q: %w", filePath, err)
	}
	return nil
}

// Declare implements SnapshotStore.
func (s *FileStore) Declare(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	filePath := filepath.Join(s.root, name+".json")
	if _, err := os.Stat(filePath); err == nil {
		return nil
	}
	data, err := json.Marshal(Snapshot{Name: name})
	if err != nil {
		return fmt.Errorf("cannot encode portfolio %q: %w", name, err)
	}
	if err := writeFile(filePath, data); err != nil {
		return fmt.Errorf("cannot declare portfolio %q: %w", name, err)
	}
	return nil
}

// writeFile atomically replaces filePath with data, creating its directory.
func writeFile(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filePath)
}

// Load implements SnapshotStore.
func (s *FileStore) Load(ctx context.Context, name string, on date.Date) (Snapshot, error) {
	filePath, err := s.path(name, on)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s@%s", ErrSnapshotNotFound, name, on)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("cannot read snapshot %q: %w", filePath, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("could not decode snapshot file %q: %w", filePath, err)
	}
	// The file location is authoritative.
	snap.Name, snap.On = name, on
	return snap, nil
}

// Scan implements SnapshotStore. Keys are sorted by name then date, the
// declaration first.
//
// Entries that do not follow the store layout are ignored.
func (s *FileStore) Scan(ctx context.Context) ([]SnapshotKey, error) {
	var keys []SnapshotKey
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		relPath, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		day, file := filepath.Split(relPath)
		if day == "" {
			keys = append(keys, SnapshotKey{Name: strings.TrimSuffix(file, ".json")})
			return nil
		}
		on, err := date.Parse(strings.TrimSuffix(day, string(filepath.Separator)))
		if err != nil || strings.ContainsRune(filepath.Dir(relPath), filepath.Separator) {
			log.Printf("ignoring %q in snapshot store: not a snapshot file", p)
			return nil
		}
		keys = append(keys, SnapshotKey{Name: strings.TrimSuffix(file, ".json"), On: on})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan snapshot store %q: %w", s.root, err)
	}
	slices.SortFunc(keys, compareKeys)
	return keys, nil
}

func compareKeys(a, b SnapshotKey) int {
	return cmp.Or(strings.Compare(a.Name, b.Name), a.On.Compare(b.On))
}
