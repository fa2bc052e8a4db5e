package server

// CreateProjectRequest creates an empty project.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateEntityRequest adds a monitored entity to a project. Empty engines and
// zero depth fall back to the catalog defaults.
type CreateEntityRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Engines []string `json:"engines" validate:"omitempty,dive,required"`
	Depth   int      `json:"depth" validate:"gte=0,lte=100"`
	Region  string   `json:"region" validate:"max=16"`
}

// OverrideRequest replaces the sentiment of one stored result.
type OverrideRequest struct {
	Engine    string `json:"engine" validate:"required"`
	Position  int    `json:"position" validate:"required,gte=1"`
	Sentiment string `json:"sentiment" validate:"required,oneof=positive negative neutral"`
}

// StartParseResponse is returned when a parse is requested; Created is false
// when a job for the entity was already running.
type StartParseResponse struct {
	JobID   string `json:"job_id"`
	Created bool   `json:"created"`
	Status  string `json:"status"`
}
