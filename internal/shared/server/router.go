package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumind/internal/account"
	googleauth "resumind/internal/auth"
	"resumind/internal/resumes"
	"resumind/internal/services/health"
	"resumind/internal/shared/auth"
	"resumind/internal/shared/config"
	"resumind/internal/shared/metrics"
	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/server/respond"
)

const analyzeRateGroup = "ANALYZE"

// RouterDeps carries everything NewRouter wires into routes.
type RouterDeps struct {
	Config         config.Config
	Issuer         *auth.Issuer
	Health         *health.Service
	ResumeHandler  *resumes.Handler
	AccountHandler *account.Handler
	GoogleAuth     *googleauth.GoogleService
	RateLimiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(r)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	protected := api.Group("")
	protected.Use(
		middleware.Auth(deps.Issuer, allowGuests(cfg.Env)),
		middleware.RateLimit(rateLimitConfig(deps.RateLimiter)),
	)
	registerMeRoutes(protected)
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(protected)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(protected)
	}

	return r
}

func allowGuests(env string) bool {
	return env == "dev" || env == "local"
}

// rateLimitConfig keeps analysis submissions well below the general budget;
// each one costs an inference call.
func rateLimitConfig(limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT":        {Rate: 10, Burst: 40},
			analyzeRateGroup: {Rate: 1.0 / 30, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/resumes" {
				return analyzeRateGroup
			}
			return ""
		},
		Limiter: limiter,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
const ShutdownTimeout = 30 * time.Second
