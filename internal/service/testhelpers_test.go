package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
	"github.com/iconidentify/vidshare/internal/upload"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memVideos is an in-memory VideoRepository that applies plan filters the
// way the Mongo pipeline does.
type memVideos struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]*domain.Video
	calls  int
	err    error
}

func newMemVideos() *memVideos {
	return &memVideos{videos: make(map[primitive.ObjectID]*domain.Video)}
}

func (m *memVideos) add(v domain.Video) *domain.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.videos[v.ID] = &v
	return &v
}

func (m *memVideos) get(id primitive.ObjectID) (domain.Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return domain.Video{}, false
	}
	return *v, true
}

func (m *memVideos) matching(plan *query.Plan) []*domain.Video {
	var out []*domain.Video
	text := strings.ToLower(plan.Text)
	for _, v := range m.videos {
		if !v.IsPublished {
			continue
		}
		if plan.Owner != nil && v.Owner != *plan.Owner {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(v.Title), text) &&
			!strings.Contains(strings.ToLower(v.Description), text) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if plan.SortDirection == query.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	return out
}

func (m *memVideos) List(_ context.Context, plan *query.Plan) ([]domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	all := m.matching(plan)
	start := int(plan.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + plan.Limit
	if end > len(all) {
		end = len(all)
	}
	items := make([]domain.VideoSummary, 0, end-start)
	for _, v := range all[start:end] {
		items = append(items, domain.VideoSummary{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			IsPublished: v.IsPublished,
			CreatedAt:   v.CreatedAt,
		})
	}
	return items, nil
}

func (m *memVideos) Count(_ context.Context, plan *query.Plan) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.matching(plan))), nil
}

func (m *memVideos) Create(_ context.Context, v *domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *memVideos) owned(id, owner primitive.ObjectID) (*domain.Video, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.videos[id]
	if !ok || v.Owner != owner {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	return v, nil
}

func (m *memVideos) View(_ context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	v, ok := m.videos[id]
	if !ok || (!v.IsPublished && (viewer == nil || *viewer != v.Owner)) {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	v.Views++
	cp := *v
	return &cp, nil
}

func (m *memVideos) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, patch domain.VideoPatch) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	prev := *v
	next := v.Apply(patch, time.Now().UTC())
	m.videos[id] = &next
	return &prev, nil
}

func (m *memVideos) TogglePublish(_ context.Context, id, owner primitive.ObjectID) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	v.IsPublished = !v.IsPublished
	cp := *v
	return &cp, nil
}

func (m *memVideos) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	delete(m.videos, id)
	return v, nil
}

// fakeStore records stored and removed keys and fails on request.
type fakeStore struct {
	mu        sync.Mutex
	seq       int
	stored    []string
	removed   []string
	failStore map[media.Kind]error
	failKeys  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		failStore: make(map[media.Kind]error),
		failKeys:  make(map[string]error),
	}
}

func (f *fakeStore) Store(_ context.Context, u media.Upload) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failStore[u.Kind]; err != nil {
		return nil, err
	}
	f.seq++
	key := string(u.Kind) + "/" + strings.Repeat("k", f.seq)
	f.stored = append(f.stored, key)
	a := &media.Asset{URL: "https://cdn.test/" + key, Key: key, ContentType: u.ContentType}
	if u.Kind == media.KindVideo {
		a.Duration = 42.5
	}
	return a, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failKeys[key]; err != nil {
		return err
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStore) removedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.removed...)
	sort.Strings(out)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type videoFixture struct {
	videos *memVideos
	store  *fakeStore
	jobs   *repository.MemoryCleanupQueue
	pub    *recordingPublisher
	svc    *VideoService
}

func newVideoFixture() *videoFixture {
	f := &videoFixture{
		videos: newMemVideos(),
		store:  newFakeStore(),
		jobs:   repository.NewMemoryCleanupQueue(),
		pub:    &recordingPublisher{},
	}
	logger := testLogger()
	releaser := NewMediaReleaser(f.store, f.jobs, 3, logger)
	f.svc = NewVideoService(f.videos, f.store, releaser, f.pub, query.DefaultOptions(), logger)
	return f
}

func stagedFile(field string, kind media.Kind, contentType string) *upload.File {
	return &upload.File{
		Field:       field,
		Filename:    field + ".bin",
		Path:        "/tmp/" + field,
		ContentType: contentType,
		Size:        128,
		Kind:        kind,
	}
}

var errBoom = errors.New("boom")
