package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides read-only queries over the legal corpus.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a new Store instance.
//
// Parameters:
//   - pool: PostgreSQL connection pool
//   - logger: Logger for debugging (nil = use default)
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// ArticlesByNumber fetches articles whose canonical number matches one of the
// given identifiers. Numbers with no corresponding row are silently skipped:
// a mistyped article number simply yields no exact match and the caller falls
// back to semantic search.
//
// The embedding column is not fetched; exact matches never go through
// similarity scoring.
func (s *Store) ArticlesByNumber(ctx context.Context, numbers []string) ([]Article, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, number, title, body, code_name, url
		FROM articles
		WHERE number = ANY($1)
		ORDER BY number`,
		numbers)
	if err != nil {
		return nil, fmt.Errorf("querying articles by number: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Number, &a.Title, &a.Body, &a.CodeName, &a.URL); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading article rows: %w", err)
	}
	return articles, nil
}

// ArticleCandidates returns a bounded pool of embedded articles for
// similarity scoring. Only rows with a non-null embedding are returned; rows
// whose stored embedding cannot be decoded are skipped with a warning.
func (s *Store) ArticleCandidates(ctx context.Context, limit int32) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, number, title, body, code_name, url, embedding::text
		FROM articles
		WHERE embedding IS NOT NULL
		ORDER BY id
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying article candidates: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var (
			a   Article
			raw *string
		)
		if err := rows.Scan(&a.ID, &a.Number, &a.Title, &a.Body, &a.CodeName, &a.URL, &raw); err != nil {
			return nil, fmt.Errorf("scanning article candidate: %w", err)
		}
		emb, err := DecodeEmbedding(raw)
		if err != nil {
			s.logger.Warn("skipping article with malformed embedding",
				"article", a.Number, "error", err)
			continue
		}
		a.Embedding = emb
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading article candidates: %w", err)
	}
	return articles, nil
}

// DecisionCandidates returns a bounded pool of embedded case-law decisions.
func (s *Store) DecisionCandidates(ctx context.Context, limit int32) ([]Decision, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, jurisdiction, decision_date, number, principle, holding, url, embedding::text
		FROM decisions
		WHERE embedding IS NOT NULL
		ORDER BY decision_date DESC, id
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying decision candidates: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var (
			d   Decision
			raw *string
		)
		if err := rows.Scan(&d.ID, &d.Jurisdiction, &d.Date, &d.Number, &d.Principle, &d.Holding, &d.URL, &raw); err != nil {
			return nil, fmt.Errorf("scanning decision candidate: %w", err)
		}
		emb, err := DecodeEmbedding(raw)
		if err != nil {
			s.logger.Warn("skipping decision with malformed embedding",
				"decision", d.Number, "error", err)
			continue
		}
		d.Embedding = emb
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading decision candidates: %w", err)
	}
	return decisions, nil
}

// NoteCandidates returns a bounded pool of embedded methodology notes.
func (s *Store) NoteCandidates(ctx context.Context, limit int32) ([]MethodNote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, category, level, content, embedding::text
		FROM method_notes
		WHERE embedding IS NOT NULL
		ORDER BY id
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying note candidates: %w", err)
	}
	defer rows.Close()

	var notes []MethodNote
	for rows.Next() {
		var (
			n   MethodNote
			raw *string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Category, &n.Level, &n.Content, &raw); err != nil {
			return nil, fmt.Errorf("scanning note candidate: %w", err)
		}
		emb, err := DecodeEmbedding(raw)
		if err != nil {
			s.logger.Warn("skipping note with malformed embedding",
				"note", n.Title, "error", err)
			continue
		}
		n.Embedding = emb
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading note candidates: %w", err)
	}
	return notes, nil
}

// Counts returns per-collection document counts, used by the stats endpoint.
func (s *Store) Counts(ctx context.Context) (articles, decisions, notes int64, err error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM articles`)
	batch.Queue(`SELECT COUNT(*) FROM decisions`)
	batch.Queue(`SELECT COUNT(*) FROM method_notes`)

	br := s.pool.SendBatch(ctx, batch)
	defer func() {
		if cerr := br.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing count batch: %w", cerr)
		}
	}()

	if err = br.QueryRow().Scan(&articles); err != nil {
		return 0, 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	if err = br.QueryRow().Scan(&decisions); err != nil {
		return 0, 0, 0, fmt.Errorf("counting decisions: %w", err)
	}
	if err = br.QueryRow().Scan(&notes); err != nil {
		return 0, 0, 0, fmt.Errorf("counting notes: %w", err)
	}
	return articles, decisions, notes, nil
}
