package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"internal_error"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "kept", header: "abc-123", keep: true},
		{name: "empty", header: "", keep: false},
		{name: "too long", header: strings.Repeat("x", 65), keep: false},
		{name: "control chars", header: "a\tb", keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			got := w.Header().Get("X-Request-Id")
			if got == "" || got != w.Body.String() {
				t.Fatalf("header %q and body %q should match", got, w.Body.String())
			}
			if (got == tt.header) != tt.keep {
				t.Fatalf("keep=%v but got %q for %q", tt.keep, got, tt.header)
			}
		})
	}
}
