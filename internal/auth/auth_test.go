package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"AgentKit-Chain/internal/config"
)

func newAPIKeyService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.AuthConfig{
		Mode: "api_key",
		Keys: []config.APIKeyConfig{
			{Name: "reader", Key: "read-key", Permissions: []string{PermToolsRead, PermActionsRead}},
			{Name: "ops", Key: "ops-key", Permissions: []string{"*"}},
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceModes(t *testing.T) {
	svc, err := NewService(config.AuthConfig{})
	if err != nil || svc.Mode() != ModeDisabled {
		t.Fatalf("expected disabled service, got %v %v", svc.Mode(), err)
	}
	if _, err := NewService(config.AuthConfig{Mode: "api_key"}); err == nil {
		t.Fatal("expected error without keys")
	}
	if _, err := NewService(config.AuthConfig{Mode: "api_key", Keys: []config.APIKeyConfig{{Name: "blank"}}}); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewService(config.AuthConfig{Mode: "jwt"}); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestAuthenticateRequest(t *testing.T) {
	svc := newAPIKeyService(t)
	ctx := context.Background()

	subject, err := svc.AuthenticateRequest(ctx, "Bearer ops-key")
	if err != nil || subject.Name != "ops" {
		t.Fatalf("unexpected subject %+v err %v", subject, err)
	}
	if !subject.HasPermission(PermActionsExecute) {
		t.Fatal("wildcard should grant every permission")
	}

	if _, err := svc.AuthenticateRequest(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
	if _, err := svc.AuthenticateRequest(ctx, "Basic ops-key"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong scheme, got %v", err)
	}
	if _, err := svc.AuthenticateRequest(ctx, "Bearer nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	svc := newAPIKeyService(t)
	var seen *Subject
	handler := svc.Middleware(MiddlewareConfig{
		RequiredPermissions: map[string][]string{"*": {PermToolsCall}},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer read-key", http.StatusForbidden},
		{"Bearer ops-key", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/solana_request_funds", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("header %q: got status %d want %d", tc.header, rec.Code, tc.status)
		}
	}
	if seen == nil || seen.Name != "ops" {
		t.Fatalf("subject not propagated: %+v", seen)
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	var svc *Service
	called := false
	handler := svc.Middleware(MiddlewareConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil service should not block requests")
	}
}
