// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.jurigo/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: chat model, embedder model and dimension
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: per-source limits, thresholds, candidate pool size
//   - Serve: CORS, proxy trust, rate limiting
//   - Observability: OTLP trace export
//
// Sensitive values (the database password) are masked in MarshalJSON and
// never logged. Validation is fail-fast with sentinel errors checkable via
// errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jurigo/jurigo/internal/retrieval"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbeddingDimension indicates the embedding dimension does not
	// match the corpus schema.
	ErrInvalidEmbeddingDimension = errors.New("invalid embedding dimension")

	// ErrInvalidRetrievalTuning indicates a retrieval limit, threshold, or
	// pool size is out of range.
	ErrInvalidRetrievalTuning = errors.New("invalid retrieval tuning")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidRateLimit indicates the per-IP rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

const (
	// DefaultEmbedderModel is the Gemini embedder used for both the corpus
	// (external ingestion) and per-request query embeddings. The model
	// outputs 3072 dimensions by default and supports truncation via
	// OutputDimensionality; the corpus schema stores vector(1024).
	DefaultEmbedderModel = "gemini-embedding-001"

	// EmbeddingDimension is the dimensionality of the corpus schema. Query
	// embeddings must be truncated to the same size or scoring would reject
	// every candidate.
	EmbeddingDimension = 1024

	// DefaultModelName is the default chat-completion model.
	DefaultModelName = "gemini-2.5-flash"
)

// RetrievalConfig exposes the engine's tuning knobs as configuration. The
// defaults are a starting point settled by manual evaluation, not derived
// values; deployments are expected to adjust them per corpus.
type RetrievalConfig struct {
	ArticleLimit      int     `mapstructure:"article_limit" json:"article_limit"`
	ArticleThreshold  float64 `mapstructure:"article_threshold" json:"article_threshold"`
	DecisionLimit     int     `mapstructure:"decision_limit" json:"decision_limit"`
	DecisionThreshold float64 `mapstructure:"decision_threshold" json:"decision_threshold"`
	NoteLimit         int     `mapstructure:"note_limit" json:"note_limit"`
	NoteThreshold     float64 `mapstructure:"note_threshold" json:"note_threshold"`
	PoolSize          int32   `mapstructure:"pool_size" json:"pool_size"`
}

// Tuning converts the configured values into the engine's tuning type.
func (r RetrievalConfig) Tuning() retrieval.Tuning {
	return retrieval.Tuning{
		Articles:  retrieval.SourceTuning{Limit: r.ArticleLimit, Threshold: r.ArticleThreshold},
		Decisions: retrieval.SourceTuning{Limit: r.DecisionLimit, Threshold: r.DecisionThreshold},
		Notes:     retrieval.SourceTuning{Limit: r.NoteLimit, Threshold: r.NoteThreshold},
		PoolSize:  r.PoolSize,
	}
}

// OTLPConfig configures the OTLP trace exporter.
type OTLPConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"` // host:port of the OTLP HTTP collector; empty disables export
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
	Insecure    bool   `mapstructure:"insecure" json:"insecure"`
}

// Enabled reports whether trace export is configured.
func (o OTLPConfig) Enabled() bool { return o.Endpoint != "" }

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Retrieval tuning
	Retrieval RetrievalConfig `mapstructure:"retrieval" json:"retrieval"`

	// Serve configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For (set behind a reverse proxy)
	RateLimit   float64  `mapstructure:"rate_limit" json:"rate_limit"`   // sustained requests/second per client IP
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability
	OTLP OTLPConfig `mapstructure:"otlp" json:"otlp"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".jurigo")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error: defaults plus env cover
		// the common deployment case.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, if set, overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// AI defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "jurigo")
	viper.SetDefault("postgres_password", "jurigo_dev_password")
	viper.SetDefault("postgres_db_name", "jurigo")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Retrieval defaults mirror retrieval.DefaultTuning.
	def := retrieval.DefaultTuning()
	viper.SetDefault("retrieval.article_limit", def.Articles.Limit)
	viper.SetDefault("retrieval.article_threshold", def.Articles.Threshold)
	viper.SetDefault("retrieval.decision_limit", def.Decisions.Limit)
	viper.SetDefault("retrieval.decision_threshold", def.Decisions.Threshold)
	viper.SetDefault("retrieval.note_limit", def.Notes.Limit)
	viper.SetDefault("retrieval.note_threshold", def.Notes.Threshold)
	viper.SetDefault("retrieval.pool_size", def.PoolSize)

	// Serve defaults
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_limit", 5.0)
	viper.SetDefault("rate_burst", 10)

	// Observability defaults (export disabled until an endpoint is set)
	viper.SetDefault("otlp.endpoint", "")
	viper.SetDefault("otlp.service_name", "jurigo")
	viper.SetDefault("otlp.environment", "dev")
	viper.SetDefault("otlp.insecure", true)
}

// bindEnvVariables binds environment overrides explicitly. GEMINI_API_KEY is
// read directly by Genkit, not via Viper; Validate checks its presence.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "JURIGO_MODEL_NAME")
	mustBind("embedder_model", "JURIGO_EMBEDDER_MODEL")
	mustBind("listen_addr", "JURIGO_LISTEN_ADDR")
	mustBind("cors_origins", "JURIGO_CORS_ORIGINS")
	mustBind("trust_proxy", "JURIGO_TRUST_PROXY")
	mustBind("rate_limit", "JURIGO_RATE_LIMIT")
	mustBind("rate_burst", "JURIGO_RATE_BURST")
	mustBind("otlp.endpoint", "JURIGO_OTLP_ENDPOINT")
	mustBind("otlp.environment", "JURIGO_OTLP_ENVIRONMENT")
}

// maskedValue is the placeholder for masked sensitive data. Full-width block
// characters avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 characters
// or fewer are fully masked; longer ones keep the first and last 2 characters
// for debug utility. This defends against accidental logging, not against a
// compromised log store.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullModelName returns the provider-qualified chat model name for Genkit,
// e.g. "googleai/gemini-2.5-flash".
func (c *Config) FullModelName() string {
	return "googleai/" + c.ModelName
}
