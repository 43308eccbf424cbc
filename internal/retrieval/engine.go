package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/jurigo/jurigo/internal/corpus"
)

// Store defines the corpus reads the engine needs. Following Go best
// practices the interface is defined by the consumer, not the provider;
// *corpus.Store satisfies it.
type Store interface {
	// ArticlesByNumber fetches articles by canonical number for the
	// exact-match path. Unknown numbers are silently skipped.
	ArticlesByNumber(ctx context.Context, numbers []string) ([]corpus.Article, error)

	// ArticleCandidates returns a bounded pool of embedded articles.
	ArticleCandidates(ctx context.Context, limit int32) ([]corpus.Article, error)

	// DecisionCandidates returns a bounded pool of embedded decisions.
	DecisionCandidates(ctx context.Context, limit int32) ([]corpus.Decision, error)

	// NoteCandidates returns a bounded pool of embedded methodology notes.
	NoteCandidates(ctx context.Context, limit int32) ([]corpus.MethodNote, error)
}

// Engine is the hybrid retrieval engine. It combines exact-match lookup of
// explicit article references with embedding similarity over the three
// corpus collections.
//
// Engine is safe for concurrent use by multiple goroutines: per-request
// state lives on the stack of Search, and the only shared values (store,
// embedder, default tuning, logger) are read-only after construction.
type Engine struct {
	store    Store
	embedder ai.Embedder
	tuning   Tuning
	logger   *slog.Logger
}

// NewEngine creates a retrieval engine.
//
// Parameters:
//   - store: corpus reads (see Store)
//   - embedder: query embedding generation
//   - tuning: default per-source limits/thresholds (zero value = DefaultTuning)
//   - logger: logger for degradation events (nil = use default)
func NewEngine(store Store, embedder ai.Embedder, tuning Tuning, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	zero := Tuning{}
	if tuning == zero {
		tuning = DefaultTuning()
	}
	tuning.normalize()
	return &Engine{
		store:    store,
		embedder: embedder,
		tuning:   tuning,
		logger:   logger,
	}
}

// Search runs one hybrid retrieval request and always returns a usable
// Bundle, never an error: retrieval is an enhancement to the chat response,
// not a hard dependency the caller should be able to crash on.
//
// If query embedding fails, the bundle is empty across all three sources
// (logged at error level). A store failure for one source empties only that
// source's list; the other two proceed unaffected.
func (e *Engine) Search(ctx context.Context, query string, opts ...SearchOption) *Bundle {
	t := e.tuning
	for _, opt := range opts {
		opt(&t)
	}
	t.normalize()

	bundle := &Bundle{Query: query}

	queryVec, err := e.embedQuery(ctx, query)
	if err != nil {
		e.logger.Error("query embedding failed, returning empty bundle", "error", err)
		return bundle
	}

	refs := ExtractReferences(query)

	// The four store reads are independent and share only the read-only
	// query vector, so they are fanned out together and joined. Each branch
	// settles on its own: a failure degrades that branch to an empty list
	// instead of failing the request.
	var (
		wg        sync.WaitGroup
		exact     []ScoredArticle
		articles  []ScoredArticle
		decisions []ScoredDecision
		notes     []ScoredNote
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		exact = e.exactArticles(ctx, refs)
	}()
	go func() {
		defer wg.Done()
		articles = e.vectorArticles(ctx, queryVec, t)
	}()
	go func() {
		defer wg.Done()
		decisions = e.vectorDecisions(ctx, queryVec, t)
	}()
	go func() {
		defer wg.Done()
		notes = e.vectorNotes(ctx, queryVec, t)
	}()
	wg.Wait()

	bundle.Articles = mergeArticles(exact, articles, t.Articles.Limit)
	bundle.Decisions = decisions
	bundle.Notes = notes

	e.logger.Debug("retrieval complete",
		"query_len", len(query),
		"references", len(refs),
		"articles", len(bundle.Articles),
		"decisions", len(bundle.Decisions),
		"notes", len(bundle.Notes),
	)
	return bundle
}

// embedQuery generates the query embedding once per request.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}
	return resp.Embeddings[0].Embedding, nil
}

// exactArticles looks up articles cited verbatim in the query. Every match
// gets ExactMatchScore so it can never be filtered out downstream.
func (e *Engine) exactArticles(ctx context.Context, refs []string) []ScoredArticle {
	if len(refs) == 0 {
		return nil
	}
	found, err := e.store.ArticlesByNumber(ctx, refs)
	if err != nil {
		e.logger.Error("exact-match lookup failed", "error", err, "references", refs)
		return nil
	}
	out := make([]ScoredArticle, 0, len(found))
	for _, a := range found {
		out = append(out, ScoredArticle{Article: a, Similarity: ExactMatchScore})
	}
	return out
}

func (e *Engine) vectorArticles(ctx context.Context, queryVec []float32, t Tuning) []ScoredArticle {
	pool, err := e.store.ArticleCandidates(ctx, t.PoolSize)
	if err != nil {
		e.logger.Error("article retrieval failed", "error", err)
		return nil
	}
	ranked := topK(
		scoreAll(queryVec, pool,
			func(a corpus.Article) []float32 { return a.Embedding },
			func(a corpus.Article) string { return a.Number },
			e.logger),
		t.Articles.Limit, t.Articles.Threshold)

	out := make([]ScoredArticle, len(ranked))
	for i, sc := range ranked {
		out[i] = ScoredArticle{Article: sc.doc, Similarity: sc.similarity}
	}
	return out
}

func (e *Engine) vectorDecisions(ctx context.Context, queryVec []float32, t Tuning) []ScoredDecision {
	pool, err := e.store.DecisionCandidates(ctx, t.PoolSize)
	if err != nil {
		e.logger.Error("case-law retrieval failed", "error", err)
		return nil
	}
	ranked := topK(
		scoreAll(queryVec, pool,
			func(d corpus.Decision) []float32 { return d.Embedding },
			func(d corpus.Decision) string { return d.Number },
			e.logger),
		t.Decisions.Limit, t.Decisions.Threshold)

	out := make([]ScoredDecision, len(ranked))
	for i, sc := range ranked {
		out[i] = ScoredDecision{Decision: sc.doc, Similarity: sc.similarity}
	}
	return out
}

func (e *Engine) vectorNotes(ctx context.Context, queryVec []float32, t Tuning) []ScoredNote {
	pool, err := e.store.NoteCandidates(ctx, t.PoolSize)
	if err != nil {
		e.logger.Error("methodology retrieval failed", "error", err)
		return nil
	}
	ranked := topK(
		scoreAll(queryVec, pool,
			func(n corpus.MethodNote) []float32 { return n.Embedding },
			func(n corpus.MethodNote) string { return n.Title },
			e.logger),
		t.Notes.Limit, t.Notes.Threshold)

	out := make([]ScoredNote, len(ranked))
	for i, sc := range ranked {
		out[i] = ScoredNote{MethodNote: sc.doc, Similarity: sc.similarity}
	}
	return out
}

// mergeArticles combines exact-match and vector article results: exact
// matches first, vector hits for an article number already present via exact
// match removed, and the limit re-applied to the merged, re-sorted list.
func mergeArticles(exact, vector []ScoredArticle, limit int) []ScoredArticle {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(exact)+len(vector))
	merged := make([]ScoredArticle, 0, len(exact)+len(vector))
	for _, a := range exact {
		if _, dup := seen[a.Number]; dup {
			continue
		}
		seen[a.Number] = struct{}{}
		merged = append(merged, a)
	}
	for _, a := range vector {
		if _, dup := seen[a.Number]; dup {
			continue
		}
		seen[a.Number] = struct{}{}
		merged = append(merged, a)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
