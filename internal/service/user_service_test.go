package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/auth"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
)

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
	err   error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[primitive.ObjectID]*domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Exists(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) FindByLogin(_ context.Context, identifier string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identifier = strings.ToLower(identifier)
	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFoundOrUnauthorized
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	cp := *u
	return &cp, nil
}

type stubIssuer struct{}

func (stubIssuer) Issue(u *domain.User) (string, time.Time, error) {
	return "token-" + u.Username, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func newUserFixture() (*UserService, *memUsers, *fakeStore) {
	users := newMemUsers()
	store := newFakeStore()
	logger := testLogger()
	releaser := NewMediaReleaser(store, nil, 0, logger)
	svc := NewUserService(users, store, releaser, auth.NewHasher(4), stubIssuer{}, &recordingPublisher{}, logger)
	return svc, users, store
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username: "Alice",
		Email:    "Alice@Example.com",
		FullName: "Alice A",
		Password: "correct horse",
		Avatar:   stagedFile("avatar", media.KindAvatar, "image/png"),
	}
}

func TestUserService_Register(t *testing.T) {
	svc, _, store := newUserFixture()

	in := registerInput()
	in.CoverImage = stagedFile("coverImage", media.KindCover, "image/jpeg")
	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Username != "alice" || u.Email != "alice@example.com" {
		t.Errorf("user = %s/%s, want lowercased", u.Username, u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == in.Password {
		t.Error("password not hashed")
	}
	if u.AvatarKey == "" || u.CoverImageKey == "" {
		t.Errorf("keys = %q/%q", u.AvatarKey, u.CoverImageKey)
	}
	if len(store.stored) != 2 {
		t.Errorf("stored = %v", store.stored)
	}
}

func TestUserService_RegisterConflict(t *testing.T) {
	svc, _, store := newUserFixture()
	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatal(err)
	}

	in := registerInput()
	in.Email = "other@example.com"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(store.stored) != 1 {
		t.Errorf("stored = %v, want no upload for the duplicate", store.stored)
	}
}

func TestUserService_RegisterDuplicateKeyOnInsert(t *testing.T) {
	svc, users, _ := newUserFixture()
	users.err = fmt.Errorf("insert user: %w", domain.ErrConflict)

	_, err := svc.Register(context.Background(), registerInput())
	var cerr *domain.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if cerr.Message != "user with this username or email already exists" {
		t.Errorf("message = %q", cerr.Message)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing username", func(in *RegisterInput) { in.Username = " " }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
		{"no avatar", func(in *RegisterInput) { in.Avatar = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newUserFixture()
			in := registerInput()
			tt.mutate(&in)
			if _, err := svc.Register(context.Background(), in); !domain.IsValidation(err) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestUserService_RegisterRollsBackAssets(t *testing.T) {
	svc, users, store := newUserFixture()
	users.err = domain.NewDependencyError("persistence", "insert", errBoom)

	_, err := svc.Register(context.Background(), registerInput())
	if !domain.IsDependency(err) {
		t.Fatalf("err = %v, want DependencyError", err)
	}
	if got := store.removedKeys(); len(got) != 1 {
		t.Errorf("removed = %v, want the avatar", got)
	}
}

func TestUserService_Login(t *testing.T) {
	svc, _, _ := newUserFixture()
	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatal(err)
	}

	sess, err := svc.Login(context.Background(), "ALICE@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.AccessToken != "token-alice" {
		t.Errorf("AccessToken = %q", sess.AccessToken)
	}

	for _, tc := range []struct{ id, pw string }{
		{"alice", "wrong password"},
		{"nobody", "correct horse"},
	} {
		if _, err := svc.Login(context.Background(), tc.id, tc.pw); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("Login(%q) err = %v, want ErrInvalidCredentials", tc.id, err)
		}
	}
}
