package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/repository"
)

func TestHealthHandler_Live(t *testing.T) {
	handler := NewHealthHandler(mockPinger{}, mockQueue{}, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	w := httptest.NewRecorder()

	handler.Live(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", contentType, "application/json")
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.Timestamp == "" {
		t.Error("timestamp should not be empty")
	}
}

func TestHealthHandler_Ready_Success(t *testing.T) {
	queue := mockQueue{stats: &repository.QueueStats{Pending: 5, Running: 2, Released: 100, Abandoned: 3}}
	handler := NewHealthHandler(mockPinger{}, queue, fixedBreaker("closed"), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/readyz", nil)
	w := httptest.NewRecorder()

	handler.Ready(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Media != "closed" {
		t.Errorf("media = %q, want closed", resp.Media)
	}
	if resp.Cleanup == nil {
		t.Fatal("cleanup stats should not be nil")
	}
	if resp.Cleanup.Pending != 5 || resp.Cleanup.Abandoned != 3 {
		t.Errorf("cleanup = %+v", resp.Cleanup)
	}
}

func TestHealthHandler_Ready_Errors(t *testing.T) {
	tests := []struct {
		name    string
		db      mockPinger
		queue   mockQueue
		wantErr string
	}{
		{"database down", mockPinger{err: errors.New("no primary")}, mockQueue{stats: &repository.QueueStats{}}, "database unreachable"},
		{"queue down", mockPinger{}, mockQueue{err: errors.New("closed")}, "cleanup queue unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db, tt.queue, nil, t.TempDir())

			w := httptest.NewRecorder()
			handler.Ready(w, httptest.NewRequest(http.MethodGet, "/api/v1/readyz", nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != "error" || resp.Error != tt.wantErr {
				t.Errorf("resp = %+v, want error %q", resp, tt.wantErr)
			}
		})
	}
}

func TestHealthHandler_Stats(t *testing.T) {
	dir := t.TempDir()
	handler := NewHealthHandler(mockPinger{}, mockQueue{}, nil, dir)

	w := httptest.NewRecorder()
	handler.Stats(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp, data := decodeResponse(t, w)
	if !resp.Success {
		t.Error("success = false")
	}
	var stats SystemStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.StagingPath != dir {
		t.Errorf("staging path = %q, want %q", stats.StagingPath, dir)
	}
	if stats.NumCPU == 0 {
		t.Error("num_cpu should not be zero")
	}
}

func TestHealthHandler_StatsIncludesCleanupQueue(t *testing.T) {
	job := domain.NewCleanupJob("job-1", "thumbnails/a.png", "video delete", 3)
	queue := mockQueue{
		stats:   &repository.QueueStats{Pending: 1, Abandoned: 2},
		pending: []domain.CleanupJob{job},
	}
	handler := NewHealthHandler(mockPinger{}, queue, nil, t.TempDir())

	w := httptest.NewRecorder()
	handler.Stats(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	_, data := decodeResponse(t, w)
	var stats SystemStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Cleanup == nil || stats.Cleanup.Abandoned != 2 {
		t.Errorf("cleanup = %+v", stats.Cleanup)
	}
	if len(stats.PendingReleases) != 1 || stats.PendingReleases[0].AssetKey != "thumbnails/a.png" {
		t.Errorf("pending releases = %+v", stats.PendingReleases)
	}
}

func TestHealthHandler_StatsSurvivesQueueError(t *testing.T) {
	handler := NewHealthHandler(mockPinger{}, mockQueue{err: errors.New("closed")}, nil, t.TempDir())

	w := httptest.NewRecorder()
	handler.Stats(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("pending_releases")) {
		t.Errorf("body = %s, want cleanup fields omitted", w.Body.String())
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"90s", "1m"},
		{"3h5m", "3h 5m"},
		{"50h", "2d 2h 0m"},
	}
	for _, tt := range tests {
		d, _ := time.ParseDuration(tt.in)
		if got := formatUptime(d); got != tt.want {
			t.Errorf("formatUptime(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDiskUsage(t *testing.T) {
	d := newDiskUsage(200, 50)
	if d.used != 150 || d.usedPct != 75 {
		t.Errorf("disk = %+v", d)
	}
	if empty := newDiskUsage(0, 0); empty.usedPct != 0 {
		t.Errorf("empty pct = %v", empty.usedPct)
	}
}

func TestCPUSampler_FirstSampleIsZero(t *testing.T) {
	var s cpuSampler
	now := time.Now()
	if got := s.percent(now); got != 0 {
		t.Errorf("first sample = %v, want 0", got)
	}
	if got := s.percent(now.Add(time.Second)); got < 0 || got > 100 {
		t.Errorf("second sample = %v, want within [0, 100]", got)
	}
}
