package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"resumind/internal/account"
	googleauth "resumind/internal/auth"
	"resumind/internal/blobview"
	"resumind/internal/kv"
	"resumind/internal/llm"
	"resumind/internal/llm/gemini"
	"resumind/internal/llm/openai"
	"resumind/internal/raster"
	"resumind/internal/resumes"
	"resumind/internal/services/health"
	"resumind/internal/shared/auth"
	"resumind/internal/shared/config"
	"resumind/internal/shared/server"
	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/storage/db"
	"resumind/internal/shared/storage/object"
	localstore "resumind/internal/shared/storage/object/local"
	miniostore "resumind/internal/shared/storage/object/minio"
	s3store "resumind/internal/shared/storage/object/s3"
	"resumind/internal/shared/telemetry"
)

// Readiness flips once every backend has been verified. The pipeline refuses
// work until then.
type Readiness struct {
	ready atomic.Bool
}

func (r *Readiness) Ready() bool { return r.ready.Load() }

func (r *Readiness) MarkReady() { r.ready.Store(true) }

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.ObjectStore
	KV      kv.Store
	LLM     llm.Client
	Raster  *raster.Poppler
	Ready   *Readiness
	Views   *blobview.Registry
	Resumes *resumes.Service
	Issuer  *auth.Issuer
	closers []io.Closer
}

// Build prepares backends, verifies them and wires the router. The app is
// left not ready; the server marks it once its listener is bound.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := buildCore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.Env)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Issuer = issuer
	app.Views = blobview.NewRegistry(cfg.ViewTTL)

	var google *googleauth.GoogleService
	if strings.TrimSpace(cfg.GoogleClientID) != "" {
		google = googleauth.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			issuer,
		)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Issuer:         issuer,
		Health:         health.NewService(app.Ready, app.KV),
		ResumeHandler:  resumes.NewHandler(app.Resumes, app.Views),
		AccountHandler: account.NewHandler(account.NewService(app.Resumes)),
		GoogleAuth:     google,
		RateLimiter:    middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// BuildCore prepares the storage, inference and rasterizer backends and the
// resumes service without any HTTP wiring, and marks the app ready. The CLI
// uses it directly.
func BuildCore(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := buildCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.MarkReady()
	return app, nil
}

func buildCore(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Ready: &Readiness{}}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if err := app.buildKV(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	client, err := buildLLM(ctx, cfg, store)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.LLM = client

	app.Raster = raster.NewPoppler(cfg.PDFToPPMPath, cfg.RasterDPI)

	app.Resumes = &resumes.Service{
		Store:               app.Store,
		KV:                  app.KV,
		LLM:                 app.LLM,
		Raster:              app.Raster,
		Ready:               app.Ready,
		InferenceRetryDelay: cfg.InferenceRetryDelay,
		AttemptRetryDelay:   cfg.AttemptRetryDelay,
	}

	if err := app.verify(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// MarkReady opens the service to analysis requests.
func (a *App) MarkReady() {
	a.Ready.MarkReady()
	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          a.Config.Env,
		"object_store": a.Config.ObjectStoreType,
		"kv_store":     a.Config.KVStoreType,
		"llm_provider": a.Config.LLMProvider,
	})
}

// verify checks the backends that can be probed cheaply. The rasterizer is
// only a warning in dev so the API can start without poppler installed.
func (a *App) verify(ctx context.Context) error {
	if pinger, ok := a.KV.(kv.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return fmt.Errorf("kv %s: %w", a.Config.KVStoreType, err)
		}
	}
	if err := a.Raster.Check(); err != nil {
		if !isDevLike(a.Config.Env) {
			return err
		}
		telemetry.Warn("bootstrap.raster_unavailable", map[string]any{"error": err})
	}
	return nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildKV(ctx context.Context) error {
	switch a.Config.KVStoreType {
	case "redis":
		store, err := kv.DialRedis(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store)
		a.KV = store
	case "postgres":
		sqlDB, err := OpenDB(ctx, a.Config, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, sqlDB)
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.DB = sqlDB
		a.KV = &kv.PostgresStore{DB: sqlDB}
	default:
		if !isDevLike(a.Config.Env) {
			telemetry.Warn("bootstrap.memory_kv", map[string]any{"env": a.Config.Env})
		}
		a.KV = kv.NewMemoryStore()
	}
	return nil
}

// OpenDB connects to DATABASE_URL with the given pool options.
func OpenDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL, opts)
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config, files object.ObjectStore) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider})
			return llm.PlaceholderClient{}, nil
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAITimeout, files)
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" && isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider})
			return llm.PlaceholderClient{}, nil
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, files)
	case "placeholder", "none":
		return llm.PlaceholderClient{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
