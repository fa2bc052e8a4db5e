package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/usecase"
)

// HTTPStatus maps use case errors to response codes.
func HTTPStatus(err error) int {
	var persistence *usecase.PersistenceError
	switch {
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	case errors.Is(err, usecase.ErrJobNotFound),
		errors.Is(err, usecase.ErrEntityNotFound),
		errors.Is(err, usecase.ErrProjectNotFound),
		errors.Is(err, usecase.ErrParsingNotFound),
		errors.Is(err, usecase.ErrEngineNotFound),
		errors.Is(err, usecase.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidSentiment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func extractValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
