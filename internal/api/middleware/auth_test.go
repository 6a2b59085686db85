package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"careergpt-api/internal/auth"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, token string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func runAuth(t *testing.T, verifier TokenVerifier, authorization string) (*httptest.ResponseRecorder, *auth.Identity) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/learning-records", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *auth.Identity
	handler := RequireAuth(verifier)(func(c echo.Context) error {
		seen = CallerIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, seen
}

func TestRequireAuthPassesVerifiedIdentity(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.Identity{UID: "user-a", Email: "a@example.com"}}

	rec, identity := runAuth(t, verifier, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if identity == nil || identity.UID != "user-a" {
		t.Fatalf("expected identity on context, got %+v", identity)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	rec, identity := runAuth(t, &stubVerifier{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if identity != nil {
		t.Fatalf("handler must not run without a token")
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"good-token", "Basic abc", "Bearer"} {
		rec, _ := runAuth(t, &stubVerifier{identity: &auth.Identity{UID: "user-a"}}, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	rec, identity := runAuth(t, &stubVerifier{err: fmt.Errorf("token expired")}, "Bearer stale")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if identity != nil {
		t.Fatalf("handler must not run with an invalid token")
	}
}

func TestBearerTokenCaseInsensitive(t *testing.T) {
	if got := bearerToken("bearer abc123"); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
	if got := bearerToken("Bearer abc123"); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
}
