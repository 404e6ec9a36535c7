package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/service"
)

func TestUserHandler_Register(t *testing.T) {
	svc := &mockUserService{user: &domain.User{Username: "alice", PasswordHash: "secret-hash"}}
	handler := NewUserHandler(svc, newTestUploads(t), false, testLogger())

	ct, body := multipartBody(t,
		map[string]string{"username": "alice", "email": "a@example.com", "fullName": "Alice", "password": "longenough"},
		formFile{"avatar", "me.png", pngBytes},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	handler.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.registerIn.Avatar == nil || svc.registerIn.CoverImage != nil {
		t.Errorf("files = %+v / %+v", svc.registerIn.Avatar, svc.registerIn.CoverImage)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("password hash leaked in response")
	}
}

func TestUserHandler_RegisterConflict(t *testing.T) {
	svc := &mockUserService{err: domain.ErrConflict}
	handler := NewUserHandler(svc, newTestUploads(t), false, testLogger())

	ct, body := multipartBody(t, map[string]string{"username": "alice"}, formFile{"avatar", "me.png", pngBytes})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	handler.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestUserHandler_Login(t *testing.T) {
	exp := time.Now().Add(time.Hour).UTC()
	svc := &mockUserService{session: &service.Session{
		User:        &domain.User{Username: "alice"},
		AccessToken: "tok",
		ExpiresAt:   exp,
	}}
	handler := NewUserHandler(svc, Uploads{}, true, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		bytes.NewBufferString(`{"email":"a@example.com","password":"longenough"}`))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.identifier != "a@example.com" {
		t.Errorf("identifier = %q, want email fallback", svc.identifier)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != mw.AccessTokenCookie || cookies[0].Value != "tok" ||
		!cookies[0].HttpOnly || !cookies[0].Secure {
		t.Errorf("cookies = %+v", cookies)
	}

	_, data := decodeResponse(t, w)
	var sess map[string]any
	json.Unmarshal(data, &sess)
	if sess["accessToken"] != "tok" {
		t.Errorf("data = %s", data)
	}
}

func TestUserHandler_LoginInvalid(t *testing.T) {
	handler := NewUserHandler(&mockUserService{err: domain.ErrInvalidCredentials}, Uploads{}, false, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewBufferString(`{"username":"a","password":"b"}`))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie set on failed login")
	}
}

func TestUserHandler_Me(t *testing.T) {
	svc := &mockUserService{user: &domain.User{Username: "alice"}}
	handler := NewUserHandler(svc, Uploads{}, false, testLogger())

	w := httptest.NewRecorder()
	handler.Me(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	handler.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), primitive.NewObjectID()))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
