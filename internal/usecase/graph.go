package usecase

import (
	"context"
	"sync"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
)

// GraphEditor serializes in-process read-modify-write cycles over a GraphStore.
// Writers from other processes can still interleave between load and save.
type GraphEditor struct {
	store ports.GraphStore
	mu    sync.Mutex
}

// NewGraphEditor wraps a store.
func NewGraphEditor(store ports.GraphStore) *GraphEditor {
	return &GraphEditor{store: store}
}

// Load reads a fresh copy of the graph.
func (g *GraphEditor) Load(ctx context.Context) (domain.Graph, error) {
	graph, err := g.store.LoadGraph(ctx)
	if err != nil {
		return domain.Graph{}, &PersistenceError{Op: "load", Err: err}
	}
	return graph, nil
}

// Edit loads the graph, applies fn and saves the result. Nothing is saved when fn fails.
func (g *GraphEditor) Edit(ctx context.Context, fn func(graph *domain.Graph) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	graph, err := g.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&graph); err != nil {
		return err
	}
	if err := g.store.SaveGraph(ctx, graph); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}
