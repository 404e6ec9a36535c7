package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/domain"
)

const maxJSONBody = 1 << 20

// Response is the envelope every API endpoint answers with.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
		Errors:     []string{},
	})
}

// writeError maps err onto a status code and writes the failure envelope.
// Unclassified errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, message, details := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	if details == nil {
		details = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

func classify(err error) (int, string, []string) {
	var (
		verr *domain.ValidationError
		cerr *domain.ConflictError
		derr *domain.DependencyError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error(), verr.Details
	case errors.Is(err, domain.ErrNotFoundOrUnauthorized):
		return http.StatusNotFound, "resource not found or not owned by you", nil
	case errors.As(err, &cerr):
		return http.StatusConflict, cerr.Message, nil
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.ErrConflict.Error(), nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password", nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required", nil
	case errors.As(err, &derr):
		if derr.Unavailable() {
			return http.StatusServiceUnavailable, derr.Dependency + " temporarily unavailable", nil
		}
		return http.StatusBadGateway, derr.Dependency + " request failed", nil
	default:
		return http.StatusInternalServerError, "internal server error", nil
	}
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation
// errors.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body is empty")
		}
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// requireUser returns the authenticated user id.
func requireUser(r *http.Request) (primitive.ObjectID, error) {
	id, ok := mw.UserID(r.Context())
	if !ok {
		return primitive.NilObjectID, domain.ErrUnauthenticated
	}
	return id, nil
}
