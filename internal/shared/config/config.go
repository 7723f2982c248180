package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"resumind/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	KVStoreType   string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LLMProvider   string
	LLMModel      string
	OpenAIAPIKey  string
	OpenAITimeout time.Duration
	GeminiAPIKey  string

	PDFToPPMPath string
	RasterDPI    int

	InferenceRetryDelay time.Duration
	AttemptRetryDelay   time.Duration
	ViewTTL             time.Duration

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	LogJSON  bool
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	LoadEnvFiles()
	return FromViper(New())
}

// LoadEnvFiles is a best-effort load of local env files for dev convenience.
// Variables already set in the environment win.
func LoadEnvFiles() {
	loadEnvFiles(".env", "cmd/.env")
}

// New returns a viper instance bound to the environment with every default set.
// Callers may bind command-line flags onto it before calling FromViper.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("MINIO_BUCKET", "resumind")
	v.SetDefault("KV_STORE", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("OPENAI_TIMEOUT", "2m")
	v.SetDefault("PDFTOPPM_PATH", "pdftoppm")
	v.SetDefault("RASTER_DPI", 110)
	v.SetDefault("INFERENCE_RETRY_DELAY", "2s")
	v.SetDefault("ATTEMPT_RETRY_DELAY", "2500ms")
	v.SetDefault("VIEW_TTL", "30m")
	v.SetDefault("LOG_JSON", true)
	v.SetDefault("LOG_LEVEL", "info")
	return v
}

// FromViper materialises a Config from a prepared viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		MinioEndpoint:   v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:  v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:  v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:     v.GetString("MINIO_BUCKET"),
		MinioUseSSL:     v.GetBool("MINIO_USE_SSL"),

		KVStoreType:   normalizeKVType(v.GetString("KV_STORE")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		LLMProvider:   strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:      v.GetString("LLM_MODEL"),
		OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
		OpenAITimeout: v.GetDuration("OPENAI_TIMEOUT"),
		GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),

		PDFToPPMPath: v.GetString("PDFTOPPM_PATH"),
		RasterDPI:    v.GetInt("RASTER_DPI"),

		InferenceRetryDelay: v.GetDuration("INFERENCE_RETRY_DELAY"),
		AttemptRetryDelay:   v.GetDuration("ATTEMPT_RETRY_DELAY"),
		ViewTTL:             v.GetDuration("VIEW_TTL"),

		JWTSecret:          v.GetString("JWT_SECRET"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      v.GetString("UI_REDIRECT_URL"),

		LogJSON:  v.GetBool("LOG_JSON"),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
	}

	if env == "production" {
		if cfg.KVStoreType == "postgres" && cfg.DatabaseURL == "" {
			telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL"})
		}
		if cfg.JWTSecret == "" {
			telemetry.Warn("config.missing", map[string]any{"key": "JWT_SECRET"})
		}
	}
	return cfg
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		// Missing files are expected outside local development.
		_ = godotenv.Load(path)
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeKVType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}
