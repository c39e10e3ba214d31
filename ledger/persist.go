package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// Persister is the durable-store boundary. Both calls are synchronous and
// all-or-nothing: SaveAll either writes the whole snapshot or leaves the
// previous state intact.
type Persister interface {
	LoadAll() (Snapshot, error)
	SaveAll(snap Snapshot) error
	Close() error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore persists the snapshot as a single JSON file. Writes go to a
// temp file in the same directory followed by a rename, so a crash mid-save
// leaves the previous snapshot readable.
type FileStore struct {
	path string
}

// NewFileStore creates the parent directory if needed.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// LoadAll reads the last written snapshot. A missing file is an empty
// library, not an error.
func (fs *FileStore) LoadAll() (Snapshot, error) {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// SaveAll writes the snapshot atomically.
func (fs *FileStore) SaveAll(snap Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (fs *FileStore) Close() error { return nil }

// OpenPersister picks the persistence backend named in the config.
func OpenPersister(cfg Config) (Persister, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return NewSQLiteStore(cfg.StorePath)
	case "file":
		return NewFileStore(cfg.StorePath)
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", ErrValidation, cfg.StoreDriver)
	}
}
