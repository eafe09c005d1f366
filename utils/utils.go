package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/kitchen/models"
)

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, StatusFromError(err), map[string]string{"error": err.Error()})
}

// StatusFromError maps the error taxonomy onto HTTP status codes so callers
// can tell a bad request from a missing record from a forbidden transition.
func StatusFromError(err error) int {
	var validation *models.ValidationError
	var notFound *models.NotFoundError
	var transition *models.InvalidTransitionError
	var duplicate *models.DuplicateAssignmentError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &duplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
