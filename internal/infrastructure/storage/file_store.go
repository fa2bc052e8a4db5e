package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
)

// FileStore keeps the graph in one JSON file replaced atomically on save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ ports.GraphStore = (*FileStore)(nil)

// NewFileStore points the store at path; the file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadGraph reads the file; a missing file is an empty graph.
func (f *FileStore) LoadGraph(ctx context.Context) (domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return domain.Graph{}, err
	}

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Graph{}, nil
	}
	if err != nil {
		return domain.Graph{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	var graph domain.Graph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return domain.Graph{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return graph, nil
}

// SaveGraph writes to a temp file in the same directory and renames it over the target.
func (f *FileStore) SaveGraph(ctx context.Context, graph domain.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".graph-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}

// Store is a graph store owning a resource.
type Store interface {
	ports.GraphStore
	Close() error
}

// Open builds the store selected by configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case DriverFile:
		return NewFileStore(cfg.DSN), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQLStore(ctx, cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
