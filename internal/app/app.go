// Package app provides application initialization and dependency wiring.
//
// App is the container holding every long-lived component: the Genkit
// runtime, the database pool, the corpus and session stores, the retrieval
// engine, and the chat advisor. Setup builds them in dependency order and
// Close releases them in reverse.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurigo/jurigo/db"
	"github.com/jurigo/jurigo/internal/chat"
	"github.com/jurigo/jurigo/internal/config"
	"github.com/jurigo/jurigo/internal/corpus"
	"github.com/jurigo/jurigo/internal/database"
	"github.com/jurigo/jurigo/internal/observability"
	"github.com/jurigo/jurigo/internal/retrieval"
	"github.com/jurigo/jurigo/internal/session"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pool     *pgxpool.Pool

	Corpus   *corpus.Store
	Sessions *session.Store
	Engine   *retrieval.Engine
	Advisor  *chat.Advisor

	otelShutdown func(context.Context) error
}

// Setup creates and initializes the application. Call Close to release
// resources; Close is safe to call after a failed Setup.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	// Tracing first: Genkit's TracerProvider must have the span processor
	// registered before genkit.Init.
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLP.Endpoint,
		Environment: cfg.OTLP.Environment,
		ServiceName: cfg.OTLP.ServiceName,
		Insecure:    cfg.OTLP.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = shutdown

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.Pool = pool

	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	a.Embedder = googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	a.Corpus = corpus.New(pool, logger.With("component", "corpus"))
	a.Sessions = session.New(pool, logger.With("component", "session"))
	a.Engine = retrieval.NewEngine(a.Corpus, a.Embedder, cfg.Retrieval.Tuning(),
		logger.With("component", "retrieval"))

	completer := chat.NewGenkitCompleter(a.Genkit, cfg.FullModelName())
	a.Advisor = chat.NewAdvisor(a.Engine, completer, a.Sessions,
		logger.With("component", "chat"))

	return a, nil
}

// Close gracefully shuts down all resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}
