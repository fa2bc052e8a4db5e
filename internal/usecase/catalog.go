package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ReputationScanner/internal/domain"
)

const (
	DefaultDepth = 10
	MaxDepth     = 100
)

// EngineSet reports which engine names are available.
type EngineSet interface {
	Has(name string) bool
}

// NewEntity describes an entity to add to a project.
type NewEntity struct {
	Name    string
	Engines []string
	Depth   int
	Region  string
}

// Catalog manages projects and their monitored entities.
type Catalog struct {
	graph   *GraphEditor
	engines EngineSet
	now     func() time.Time
	newID   func() string
}

// NewCatalog wires the graph editor with the set of known engines.
func NewCatalog(graph *GraphEditor, engines EngineSet) *Catalog {
	return &Catalog{graph: graph, engines: engines, now: time.Now, newID: uuid.NewString}
}

// ListProjects returns every project with its entities.
func (c *Catalog) ListProjects(ctx context.Context) ([]domain.Project, error) {
	graph, err := c.graph.Load(ctx)
	if err != nil {
		return nil, err
	}
	if graph.Projects == nil {
		return []domain.Project{}, nil
	}
	return graph.Projects, nil
}

// CreateProject adds an empty project.
func (c *Catalog) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}

	project := domain.Project{
		ID:        c.newID(),
		Name:      name,
		Entities:  []domain.Entity{},
		CreatedAt: c.now().UTC(),
	}
	err := c.graph.Edit(ctx, func(graph *domain.Graph) error {
		graph.Projects = append(graph.Projects, project)
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// CreateEntity validates and appends an entity to a project. Depth 0 means DefaultDepth.
func (c *Catalog) CreateEntity(ctx context.Context, projectID string, in NewEntity) (domain.Entity, error) {
	entity, err := c.buildEntity(in)
	if err != nil {
		return domain.Entity{}, err
	}

	err = c.graph.Edit(ctx, func(graph *domain.Graph) error {
		project := graph.Project(projectID)
		if project == nil {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		project.Entities = append(project.Entities, entity)
		return nil
	})
	if err != nil {
		return domain.Entity{}, err
	}
	return entity, nil
}

func (c *Catalog) buildEntity(in NewEntity) (domain.Entity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Entity{}, fmt.Errorf("%w: entity name is required", ErrInvalidInput)
	}

	depth := in.Depth
	if depth == 0 {
		depth = DefaultDepth
	}
	if depth < 1 || depth > MaxDepth {
		return domain.Entity{}, fmt.Errorf("%w: depth %d out of range 1..%d", ErrInvalidInput, depth, MaxDepth)
	}

	engines := make([]string, 0, len(in.Engines))
	seen := map[string]bool{}
	for _, raw := range in.Engines {
		engine := strings.ToLower(strings.TrimSpace(raw))
		if engine == "" || seen[engine] {
			continue
		}
		if c.engines != nil && !c.engines.Has(engine) {
			return domain.Entity{}, fmt.Errorf("%w: unknown engine %q", ErrInvalidInput, raw)
		}
		seen[engine] = true
		engines = append(engines, engine)
	}

	return domain.Entity{
		ID:        c.newID(),
		Name:      name,
		Engines:   engines,
		Depth:     depth,
		Region:    strings.TrimSpace(in.Region),
		Parsings:  []domain.Parsing{},
		CreatedAt: c.now().UTC(),
	}, nil
}

// GetEntity returns an entity with its parsing history.
func (c *Catalog) GetEntity(ctx context.Context, ref domain.EntityRef) (domain.Entity, error) {
	graph, err := c.graph.Load(ctx)
	if err != nil {
		return domain.Entity{}, err
	}
	entity := graph.Entity(ref)
	if entity == nil {
		return domain.Entity{}, fmt.Errorf("%w: %s/%s", ErrEntityNotFound, ref.ProjectID, ref.EntityID)
	}
	return *entity, nil
}

// LatestParsing returns the most recent completed parsing of an entity.
func (c *Catalog) LatestParsing(ctx context.Context, ref domain.EntityRef) (domain.Parsing, error) {
	entity, err := c.GetEntity(ctx, ref)
	if err != nil {
		return domain.Parsing{}, err
	}
	if len(entity.Parsings) == 0 {
		return domain.Parsing{}, fmt.Errorf("%w: entity %s has no parsings", ErrParsingNotFound, ref.EntityID)
	}
	return entity.Parsings[len(entity.Parsings)-1], nil
}

// EntityRefs lists every entity of every project.
func (c *Catalog) EntityRefs(ctx context.Context) ([]domain.EntityRef, error) {
	graph, err := c.graph.Load(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Refs(), nil
}
