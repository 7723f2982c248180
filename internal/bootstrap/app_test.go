package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resumind/internal/kv"
	"resumind/internal/llm"
	"resumind/internal/resumes"
	"resumind/internal/shared/config"
	localstore "resumind/internal/shared/storage/object/local"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		KVStoreType:     "memory",
		LLMProvider:     "placeholder",
		PDFToPPMPath:    "pdftoppm-not-installed",
	}
}

func TestReadiness(t *testing.T) {
	var r Readiness
	if r.Ready() {
		t.Fatalf("expected not ready before MarkReady")
	}
	r.MarkReady()
	if !r.Ready() {
		t.Fatalf("expected ready after MarkReady")
	}
}

func TestBuildCoreDev(t *testing.T) {
	app, err := BuildCore(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("BuildCore: %v", err)
	}
	defer app.Close()

	if !app.Ready.Ready() {
		t.Fatalf("expected readiness after build")
	}
	if _, ok := app.Store.(*localstore.Store); !ok {
		t.Fatalf("expected local store, got %T", app.Store)
	}
	if _, ok := app.KV.(*kv.MemoryStore); !ok {
		t.Fatalf("expected memory kv, got %T", app.KV)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder llm, got %T", app.LLM)
	}
	if app.Resumes.Ready != app.Ready {
		t.Fatalf("service not wired to readiness")
	}
}

func TestBuildCoreRequiresRasterOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := BuildCore(context.Background(), cfg); err == nil {
		t.Fatalf("expected error when pdftoppm is missing in production")
	}
}

func TestBuildCoreUnknownProvider(t *testing.T) {
	cfg := devConfig(t)
	cfg.LLMProvider = "mystery"
	if _, err := BuildCore(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestBuildCoreOpenAIWithoutKeyFallsBackInDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.LLMProvider = "openai"
	app, err := BuildCore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildCore: %v", err)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder without api key, got %T", app.LLM)
	}
}

func TestBuildCorePostgresNeedsURL(t *testing.T) {
	cfg := devConfig(t)
	cfg.KVStoreType = "postgres"
	if _, err := BuildCore(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildWiresRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.Ready.Ready() {
		t.Fatalf("expected Build to leave the app not ready")
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before MarkReady, got %d: %s", w.Code, w.Body.String())
	}
	file := resumes.File{Name: "resume.pdf", Data: []byte("%PDF-1.4")}
	if _, err := app.Resumes.RunAttempt(context.Background(), resumes.JobContext{}, file, nil); !errors.Is(err, resumes.ErrNotReady) {
		t.Fatalf("expected ErrNotReady before MarkReady, got %v", err)
	}

	app.MarkReady()
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
	req.Header.Set("X-Guest-Id", "g1")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from listing, got %d: %s", w.Code, w.Body.String())
	}
}
