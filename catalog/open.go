package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat reports a catalog file extension with no loader.
var ErrUnknownFormat = errors.New("unknown catalog format")

// Open loads the catalog at path into a new Store.
func Open(path string) (*Store, *LoadSummary, error) {
	store := NewStore()
	summary, err := Load(store, path)
	if err != nil {
		return nil, nil, err
	}
	return store, summary, nil
}

// Load reads the catalog at path into store, choosing the loader from the
// file extension (.json, .parquet or .pq).
func Load(store *Store, path string) (*LoadSummary, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".parquet", ".pq":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var summary *LoadSummary
	if ext == ".json" {
		summary, err = LoadJSON(store, f)
	} else {
		summary, err = LoadParquet(store, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return summary, nil
}
