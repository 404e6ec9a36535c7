package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/config"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
	"github.com/iconidentify/vidshare/internal/service"
	"github.com/iconidentify/vidshare/internal/upload"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withParams attaches chi URL parameters to req.
func withParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withUser(req *http.Request, id primitive.ObjectID) *http.Request {
	return req.WithContext(mw.WithUserID(req.Context(), id))
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (Response, json.RawMessage) {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return raw.Response, raw.Data
}

func newTestUploads(t *testing.T) Uploads {
	t.Helper()
	cfg := config.UploadConfig{TempDir: t.TempDir(), MaxVideoSize: 1 << 20, MaxImageSize: 1 << 16}
	s, err := upload.NewStager(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewStager: %v", err)
	}
	return Uploads{Stager: s, Limits: cfg}
}

type formFile struct {
	field, name string
	data        []byte
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	mp4Bytes = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), bytes.Repeat([]byte{1}, 64)...)
)

func multipartBody(t *testing.T, values map[string]string, files ...formFile) (string, *bytes.Buffer) {
	t.Helper()
	body := &bytes.Buffer{}
	mwr := multipart.NewWriter(body)
	for k, v := range values {
		mwr.WriteField(k, v)
	}
	for _, f := range files {
		fw, err := mwr.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(f.data)
	}
	mwr.Close()
	return mwr.FormDataContentType(), body
}

// mockVideoService records the last call and returns canned results.
type mockVideoService struct {
	page      *domain.Page[domain.VideoSummary]
	video     *domain.Video
	err       error
	params    query.ListParams
	viewer    *primitive.ObjectID
	publishIn service.PublishInput
	updateIn  service.UpdateInput
	owner     primitive.ObjectID
	videoID   string
}

func (m *mockVideoService) List(ctx context.Context, params query.ListParams) (*domain.Page[domain.VideoSummary], error) {
	m.params = params
	return m.page, m.err
}

func (m *mockVideoService) Get(ctx context.Context, viewer *primitive.ObjectID, videoID string) (*domain.Video, error) {
	m.viewer, m.videoID = viewer, videoID
	return m.video, m.err
}

func (m *mockVideoService) Publish(ctx context.Context, owner primitive.ObjectID, in service.PublishInput) (*domain.Video, error) {
	m.owner, m.publishIn = owner, in
	return m.video, m.err
}

func (m *mockVideoService) Update(ctx context.Context, owner primitive.ObjectID, videoID string, in service.UpdateInput) (*domain.Video, error) {
	m.owner, m.videoID, m.updateIn = owner, videoID, in
	return m.video, m.err
}

func (m *mockVideoService) TogglePublish(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error) {
	m.owner, m.videoID = owner, videoID
	return m.video, m.err
}

func (m *mockVideoService) Delete(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error) {
	m.owner, m.videoID = owner, videoID
	return m.video, m.err
}

type mockTweetService struct {
	tweet   *domain.Tweet
	page    *domain.Page[domain.TweetSummary]
	err     error
	title   *string
	content string
	userID  string
}

func (m *mockTweetService) Create(ctx context.Context, owner primitive.ObjectID, title, content string) (*domain.Tweet, error) {
	m.title, m.content = &title, content
	return m.tweet, m.err
}

func (m *mockTweetService) ListByUser(ctx context.Context, userID, page, limit string) (*domain.Page[domain.TweetSummary], error) {
	m.userID = userID
	return m.page, m.err
}

func (m *mockTweetService) Update(ctx context.Context, owner primitive.ObjectID, tweetID string, title *string, content string) (*domain.Tweet, error) {
	m.title, m.content = title, content
	return m.tweet, m.err
}

func (m *mockTweetService) Delete(ctx context.Context, owner primitive.ObjectID, tweetID string) (*domain.Tweet, error) {
	return m.tweet, m.err
}

type mockUserService struct {
	user       *domain.User
	session    *service.Session
	err        error
	registerIn service.RegisterInput
	identifier string
}

func (m *mockUserService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	m.registerIn = in
	return m.user, m.err
}

func (m *mockUserService) Login(ctx context.Context, identifier, password string) (*service.Session, error) {
	m.identifier = identifier
	return m.session, m.err
}

func (m *mockUserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return m.user, m.err
}

type mockCommentService struct {
	comment *domain.Comment
	page    *domain.Page[domain.CommentSummary]
	err     error
}

func (m *mockCommentService) Add(ctx context.Context, owner primitive.ObjectID, videoID, content string) (*domain.Comment, error) {
	return m.comment, m.err
}

func (m *mockCommentService) ListForVideo(ctx context.Context, videoID, page, limit string) (*domain.Page[domain.CommentSummary], error) {
	return m.page, m.err
}

func (m *mockCommentService) Update(ctx context.Context, owner primitive.ObjectID, commentID, content string) (*domain.Comment, error) {
	return m.comment, m.err
}

func (m *mockCommentService) Delete(ctx context.Context, owner primitive.ObjectID, commentID string) (*domain.Comment, error) {
	return m.comment, m.err
}

type mockLikeService struct {
	liked bool
	err   error
	kind  domain.LikeTargetKind
	id    string
}

func (m *mockLikeService) Toggle(ctx context.Context, user primitive.ObjectID, kind domain.LikeTargetKind, targetID string) (bool, error) {
	m.kind, m.id = kind, targetID
	return m.liked, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

type mockQueue struct {
	stats   *repository.QueueStats
	pending []domain.CleanupJob
	err     error
}

func (m mockQueue) Stats(ctx context.Context) (*repository.QueueStats, error) {
	return m.stats, m.err
}

func (m mockQueue) Pending(ctx context.Context) ([]domain.CleanupJob, error) {
	return m.pending, m.err
}

type fixedBreaker string

func (b fixedBreaker) State() string { return string(b) }
