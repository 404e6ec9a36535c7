package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
)

type memComments struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]*domain.Comment
}

func newMemComments() *memComments {
	return &memComments{comments: make(map[primitive.ObjectID]*domain.Comment)}
}

func (m *memComments) Create(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memComments) ListByVideo(_ context.Context, video primitive.ObjectID, p query.Pagination) ([]domain.CommentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CommentSummary
	for _, c := range m.comments {
		if c.Video == video && len(out) < p.Limit {
			out = append(out, domain.CommentSummary{ID: c.ID, Content: c.Content, Video: c.Video})
		}
	}
	return out, nil
}

func (m *memComments) CountByVideo(_ context.Context, video primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.comments {
		if c.Video == video {
			n++
		}
	}
	return n, nil
}

func (m *memComments) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, content string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || c.Owner != owner {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	c.Content = content
	cp := *c
	return &cp, nil
}

func (m *memComments) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || c.Owner != owner {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	delete(m.comments, id)
	return c, nil
}

type memLikes struct {
	mu    sync.Mutex
	liked map[domain.LikeTarget]map[primitive.ObjectID]bool
}

func (m *memLikes) Toggle(_ context.Context, target domain.LikeTarget, user primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liked == nil {
		m.liked = make(map[domain.LikeTarget]map[primitive.ObjectID]bool)
	}
	if m.liked[target] == nil {
		m.liked[target] = make(map[primitive.ObjectID]bool)
	}
	if m.liked[target][user] {
		delete(m.liked[target], user)
		return false, nil
	}
	m.liked[target][user] = true
	return true, nil
}

func TestCommentService(t *testing.T) {
	svc := NewCommentService(newMemComments(), query.DefaultOptions(), testLogger())
	ctx := context.Background()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	video := primitive.NewObjectID().Hex()

	c, err := svc.Add(ctx, alice, video, " first! ")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.Content != "first!" {
		t.Errorf("Content = %q", c.Content)
	}
	if _, err := svc.Add(ctx, alice, video, ""); !domain.IsValidation(err) {
		t.Errorf("empty content: err = %v", err)
	}
	if _, err := svc.Add(ctx, alice, "nope", "hi"); !domain.IsValidation(err) {
		t.Errorf("bad video id: err = %v", err)
	}

	page, err := svc.ListForVideo(ctx, video, "", "")
	if err != nil {
		t.Fatalf("ListForVideo() error = %v", err)
	}
	if page.TotalCount != 1 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}

	if _, err := svc.Update(ctx, bob, c.ID.Hex(), "mine now"); !errors.Is(err, domain.ErrNotFoundOrUnauthorized) {
		t.Errorf("Update by non-owner: err = %v", err)
	}
	if _, err := svc.Delete(ctx, bob, c.ID.Hex()); !errors.Is(err, domain.ErrNotFoundOrUnauthorized) {
		t.Errorf("Delete by non-owner: err = %v", err)
	}
	if _, err := svc.Update(ctx, alice, c.ID.Hex(), "edited"); err != nil {
		t.Errorf("Update() error = %v", err)
	}
	if _, err := svc.Delete(ctx, alice, c.ID.Hex()); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestLikeService_Toggle(t *testing.T) {
	svc := NewLikeService(&memLikes{}, testLogger())
	ctx := context.Background()
	user := primitive.NewObjectID()
	target := primitive.NewObjectID().Hex()

	for i, want := range []bool{true, false, true} {
		got, err := svc.Toggle(ctx, user, domain.LikeTargetTweet, target)
		if err != nil {
			t.Fatalf("Toggle #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("Toggle #%d = %v, want %v", i, got, want)
		}
	}

	if _, err := svc.Toggle(ctx, user, "playlist", target); !domain.IsValidation(err) {
		t.Errorf("unknown kind: err = %v", err)
	}
	if _, err := svc.Toggle(ctx, user, domain.LikeTargetVideo, "zz"); !domain.IsValidation(err) {
		t.Errorf("bad id: err = %v", err)
	}
}
