package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iconidentify/vidshare/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", domain.NewValidationError("title", "is required"), http.StatusBadRequest, "title: is required"},
		{"not found", fmt.Errorf("get video: %w", domain.ErrNotFoundOrUnauthorized), http.StatusNotFound, "resource not found or not owned by you"},
		{"conflict with message", domain.NewConflictError("user with this username or email already exists"), http.StatusConflict, "user with this username or email already exists"},
		{"bare conflict", fmt.Errorf("toggle like: %w", domain.ErrConflict), http.StatusConflict, "resource already exists"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{"dependency down", domain.NewDependencyError("media", "upload", context.DeadlineExceeded), http.StatusServiceUnavailable, "media temporarily unavailable"},
		{"dependency error", domain.NewDependencyError("persistence", "find", errors.New("boom")), http.StatusBadGateway, "persistence request failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg, _ := classify(tt.err)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Errorf("classify() = %d %q, want %d %q", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestConflictError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", domain.NewConflictError("taken"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}
}

func TestWriteError_ConflictMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, testLogger(), fmt.Errorf("insert: %w", domain.ErrConflict))

	resp, _ := decodeResponse(t, w)
	if w.Code != http.StatusConflict || resp.Message != "resource already exists" {
		t.Errorf("got %d %q", w.Code, resp.Message)
	}
}
