package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key (required for embedding and chat completion)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Retrieval tuning. Limits above 50 would flood the prompt; thresholds
	// live in [-1, 1] because cosine similarity does.
	r := c.Retrieval
	for name, limit := range map[string]int{
		"article_limit":  r.ArticleLimit,
		"decision_limit": r.DecisionLimit,
		"note_limit":     r.NoteLimit,
	} {
		if limit < 1 || limit > 50 {
			return fmt.Errorf("%w: %s must be between 1 and 50, got %d", ErrInvalidRetrievalTuning, name, limit)
		}
	}
	for name, threshold := range map[string]float64{
		"article_threshold":  r.ArticleThreshold,
		"decision_threshold": r.DecisionThreshold,
		"note_threshold":     r.NoteThreshold,
	} {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: %s must be between -1 and 1, got %g", ErrInvalidRetrievalTuning, name, threshold)
		}
	}
	if r.PoolSize < 200 || r.PoolSize > 1000 {
		return fmt.Errorf("%w: pool_size must be between 200 and 1000, got %d", ErrInvalidRetrievalTuning, r.PoolSize)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "jurigo_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password in config.yaml for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// SSL mode. The deprecated allow/prefer modes are excluded: both are
	// vulnerable to downgrade.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// Rate limiting
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive, got %g", ErrInvalidRateLimit, c.RateLimit)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("%w: rate_burst must be at least 1, got %d", ErrInvalidRateLimit, c.RateBurst)
	}

	return nil
}
