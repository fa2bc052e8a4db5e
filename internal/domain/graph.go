package domain

import "time"

// Graph is the whole persisted state: projects with their monitored entities.
type Graph struct {
	Projects []Project `json:"projects"`
}

// Project groups monitored entities.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Entities  []Entity  `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}

// Entity is a monitored name with its engine setup and parsing history.
type Entity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Engines   []string  `json:"engines"`
	Depth     int       `json:"depth"`
	Region    string    `json:"region,omitempty"`
	Parsings  []Parsing `json:"parsings"`
	CreatedAt time.Time `json:"created_at"`
}

// Parsing is one completed job outcome, keyed by engine.
type Parsing struct {
	ID        string                   `json:"id"`
	Query     string                   `json:"query"`
	Region    string                   `json:"region,omitempty"`
	Engines   map[string]EngineOutcome `json:"engines"`
	CreatedAt time.Time                `json:"created_at"`
}

// EntityRef addresses an entity inside the graph.
type EntityRef struct {
	ProjectID string `json:"project_id"`
	EntityID  string `json:"entity_id"`
}

// Project returns a pointer into the graph or nil.
func (g *Graph) Project(id string) *Project {
	for i := range g.Projects {
		if g.Projects[i].ID == id {
			return &g.Projects[i]
		}
	}
	return nil
}

// Entity resolves a reference to a pointer into the graph or nil.
func (g *Graph) Entity(ref EntityRef) *Entity {
	p := g.Project(ref.ProjectID)
	if p == nil {
		return nil
	}
	for i := range p.Entities {
		if p.Entities[i].ID == ref.EntityID {
			return &p.Entities[i]
		}
	}
	return nil
}

// Parsing finds a parsing by id anywhere in the graph.
func (g *Graph) Parsing(id string) (*Parsing, EntityRef) {
	for pi := range g.Projects {
		project := &g.Projects[pi]
		for ei := range project.Entities {
			entity := &project.Entities[ei]
			for i := range entity.Parsings {
				if entity.Parsings[i].ID == id {
					return &entity.Parsings[i], EntityRef{ProjectID: project.ID, EntityID: entity.ID}
				}
			}
		}
	}
	return nil, EntityRef{}
}

// Refs lists every entity in the graph.
func (g *Graph) Refs() []EntityRef {
	var refs []EntityRef
	for _, p := range g.Projects {
		for _, e := range p.Entities {
			refs = append(refs, EntityRef{ProjectID: p.ID, EntityID: e.ID})
		}
	}
	return refs
}
