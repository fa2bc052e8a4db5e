package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/usecase"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"engines": s.app.Engines().Names(),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.app.Catalog().ListProjects(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	project, err := s.app.Catalog().CreateProject(r.Context(), req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if !s.decode(w, r, &req) {
		return
	}
	entity, err := s.app.Catalog().CreateEntity(r.Context(), chi.URLParam(r, "projectID"), usecase.NewEntity{
		Name:    req.Name,
		Engines: req.Engines,
		Depth:   req.Depth,
		Region:  req.Region,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := s.app.Catalog().GetEntity(r.Context(), entityRef(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleLatestParsing(w http.ResponseWriter, r *http.Request) {
	parsing, err := s.app.Catalog().LatestParsing(r.Context(), entityRef(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsing)
}

func (s *Server) handleStartParse(w http.ResponseWriter, r *http.Request) {
	job, created, err := s.app.Orchestrator().Start(r.Context(), entityRef(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, StartParseResponse{
		JobID:   job.ID,
		Created: created,
		Status:  string(job.Status),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Orchestrator().ActiveJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.app.Orchestrator().Job(chi.URLParam(r, "jobID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobEvents streams progress until the job ends or the client leaves.
// The job snapshot is re-read on every event and poll tick, so a dropped
// event only delays the stream.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	orchestrator := s.app.Orchestrator()

	events, unsubscribe := orchestrator.Subscribe(jobID)
	defer unsubscribe()

	job, err := orchestrator.Job(jobID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	lastProgress := -1
	for {
		if job.Status.Terminal() {
			_ = sse.WriteEvent("complete", job)
			return
		}
		if job.Progress != lastProgress {
			if err := sse.WriteEvent("progress", job); err != nil {
				return
			}
			lastProgress = job.Progress
		}

		select {
		case <-r.Context().Done():
			return
		case <-events:
		case <-ticker.C:
		}

		job, err = orchestrator.Job(jobID)
		if err != nil {
			// retention elapsed between two reads
			_ = sse.WriteEvent("error", map[string]string{"error": err.Error()})
			return
		}
	}
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if !s.decode(w, r, &req) {
		return
	}
	outcome, err := s.app.Overrides().Override(r.Context(), chi.URLParam(r, "parsingID"), req.Engine, req.Position, domain.Sentiment(req.Sentiment))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func entityRef(r *http.Request) domain.EntityRef {
	return domain.EntityRef{
		ProjectID: chi.URLParam(r, "projectID"),
		EntityID:  chi.URLParam(r, "entityID"),
	}
}
