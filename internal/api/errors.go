package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps the service error taxonomy onto HTTP statuses. A
// collaborator failure propagates the upstream status when it is a valid
// HTTP status, otherwise 502.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr   *models.ValidationError
		notFoundErr     *models.NotFoundError
		forbiddenErr    *models.ForbiddenError
		conflictErr     *models.ConflictError
		collaboratorErr *models.CollaboratorError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeJSONError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &forbiddenErr):
		writeJSONError(w, http.StatusForbidden, forbiddenErr.Error())
	case errors.As(err, &conflictErr):
		writeJSONError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &collaboratorErr):
		status := collaboratorErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSONError(w, status, collaboratorErr.Error())
	default:
		logrus.Errorf("Unhandled error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
