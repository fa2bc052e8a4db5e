package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ReputationScanner/internal/domain"
)

// ErrNotConfigured is returned by engines that lack credentials.
var ErrNotConfigured = errors.New("engine not configured")

// PageRequest carries everything an engine needs to fetch one results page.
type PageRequest struct {
	Query  string
	Region string
	// Page is zero-based.
	Page int
}

// Engine captures a single search backend (Yandex, Google, an HTML results page).
type Engine interface {
	Name() string
	PageSize() int
	FetchPage(ctx context.Context, req PageRequest) ([]domain.RawResult, error)
}

// Registry keeps a mapping from engine names to their implementations.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: map[string]Engine{}}
}

// Register adds or replaces an engine implementation.
func (r *Registry) Register(engine Engine) {
	if r.engines == nil {
		r.engines = map[string]Engine{}
	}
	r.engines[engine.Name()] = engine
}

// Resolve returns an engine by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Engine, error) {
	if engine, ok := r.engines[name]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("engine %s is not registered", name)
}

// Has reports whether an engine is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.engines[name]
	return ok
}

// Names lists registered engines in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
