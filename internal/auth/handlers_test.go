package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerRegisterAndMe(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	handler := &Handler{Service: svc}

	body := strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"password123"}`)
	rr := httptest.NewRecorder()
	handler.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	login, err := svc.Login(context.Background(), "ada@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mw := Middleware{Service: svc}
	protected := mw.RequireAuth(http.HandlerFunc(handler.Me))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Data User `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Email != "ada@example.com" {
		t.Fatalf("unexpected user %#v", payload.Data)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	mw := Middleware{Service: svc}
	protected := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAdminForbidden(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	if _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(context.Background(), "ada@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mw := Middleware{Service: svc}
	protected := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/1/status", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer role, got %d", rr.Code)
	}
}
