package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/resume/abc":      "/resume/abc",
		"/upload?x=1":      "/upload?x=1",
		"":                 "/",
		"https://evil.com": "/",
		"//evil.com/path":  "/",
		"/\\evil.com":      "/",
		"resume/abc":       "/",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Fatalf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStateStoreCarriesNext(t *testing.T) {
	s := newStateStore()
	s.put("a", "/resume/1", time.Now().Add(time.Minute))
	s.put("old", "/", time.Now().Add(-time.Minute))

	next, ok := s.consume("a")
	if !ok || next != "/resume/1" {
		t.Fatalf("consume = %q %v", next, ok)
	}
	if _, ok := s.consume("a"); ok {
		t.Fatalf("state must be single use")
	}
	if _, ok := s.consume("old"); ok {
		t.Fatalf("expired state must be rejected")
	}
}

func TestReturnURL(t *testing.T) {
	svc := &GoogleService{uiRedirect: "http://localhost:5173/"}
	if got := svc.returnURL("/resume/abc"); got != "http://localhost:5173/resume/abc" {
		t.Fatalf("unexpected return url %q", got)
	}
	svc.uiRedirect = ""
	if got := svc.returnURL("/resume/abc"); got != "/resume/abc" {
		t.Fatalf("expected bare path without a UI origin, got %q", got)
	}
}

func TestStartRedirectsToGoogleWithState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("client", "secret", "http://localhost:8080/auth/google/callback", "http://localhost:5173", nil)
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth?next=/resume/abc", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" || loc.Host != "accounts.google.com" {
		t.Fatalf("unexpected redirect %s", loc)
	}
	if next, ok := svc.stateStore.consume(state); !ok || next != "/resume/abc" {
		t.Fatalf("state should remember next, got %q %v", next, ok)
	}
}

func TestStartRequiresConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("", "", "", "", nil)
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("client", "secret", "http://localhost/cb", "", nil)
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nope&code=x", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
