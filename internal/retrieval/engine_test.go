package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"go.uber.org/goleak"

	"github.com/jurigo/jurigo/internal/corpus"
	"github.com/jurigo/jurigo/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Mock implementations
// ============================================================================

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedding []float32 // vector to return (default: unit x-axis)
	embedErr  error
	delay     time.Duration
	callCount int
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	emb := m.embedding
	if emb == nil {
		emb = []float32{1, 0, 0}
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: emb}},
	}, nil
}

// mockStore implements Store with canned data and configurable failures.
type mockStore struct {
	articles  []corpus.Article
	decisions []corpus.Decision
	notes     []corpus.MethodNote

	exactErr    error
	articlesErr error
	decisionErr error
	notesErr    error

	exactCalls    int
	lastPoolLimit int32
}

func (s *mockStore) ArticlesByNumber(ctx context.Context, numbers []string) ([]corpus.Article, error) {
	s.exactCalls++
	if s.exactErr != nil {
		return nil, s.exactErr
	}
	wanted := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		wanted[n] = struct{}{}
	}
	var out []corpus.Article
	for _, a := range s.articles {
		if _, ok := wanted[a.Number]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *mockStore) ArticleCandidates(ctx context.Context, limit int32) ([]corpus.Article, error) {
	s.lastPoolLimit = limit
	if s.articlesErr != nil {
		return nil, s.articlesErr
	}
	return s.articles, nil
}

func (s *mockStore) DecisionCandidates(ctx context.Context, limit int32) ([]corpus.Decision, error) {
	if s.decisionErr != nil {
		return nil, s.decisionErr
	}
	return s.decisions, nil
}

func (s *mockStore) NoteCandidates(ctx context.Context, limit int32) ([]corpus.MethodNote, error) {
	if s.notesErr != nil {
		return nil, s.notesErr
	}
	return s.notes, nil
}

// vecWithSim builds a 3-dimensional unit vector whose cosine similarity to
// the query vector [1,0,0] is exactly sim.
func vecWithSim(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

func article(number string, sim float64) corpus.Article {
	return corpus.Article{Number: number, Body: "texte de l'article " + number, CodeName: "Code civil", Embedding: vecWithSim(sim)}
}

func newTestEngine(store Store) *Engine {
	return NewEngine(store, &mockEmbedder{}, DefaultTuning(), log.NewNop())
}

// ============================================================================
// Search
// ============================================================================

// An article cited verbatim in the query is returned as an exact match with
// similarity exactly 1.0, ranked first.
func TestSearch_ExactMatchRankedFirst(t *testing.T) {
	store := &mockStore{
		articles: []corpus.Article{
			article("1240", 0.10), // semantically far, but cited verbatim
			article("1241", 0.90),
		},
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "Article 1240 du Code civil", WithArticleThreshold(0.5))

	if len(bundle.Articles) == 0 {
		t.Fatal("expected at least one article")
	}
	first := bundle.Articles[0]
	if first.Number != "1240" {
		t.Errorf("first article = %s, want exact match 1240", first.Number)
	}
	if first.Similarity != ExactMatchScore {
		t.Errorf("exact match similarity = %v, want exactly %v", first.Similarity, ExactMatchScore)
	}
}

// Vector results come back sorted descending with the threshold applied.
func TestSearch_ThresholdAndOrdering(t *testing.T) {
	store := &mockStore{
		articles: []corpus.Article{
			article("1240", 0.82),
			article("1241", 0.84),
			article("999", 0.50),
		},
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "Quelle est la responsabilité civile ?", WithArticleThreshold(0.75))

	got := make([]string, len(bundle.Articles))
	for i, a := range bundle.Articles {
		got[i] = a.Number
	}
	if len(got) != 2 || got[0] != "1241" || got[1] != "1240" {
		t.Errorf("articles = %v, want [1241 1240]", got)
	}
	for _, a := range bundle.Articles {
		if a.Similarity < 0.75 {
			t.Errorf("article %s below threshold: %v", a.Number, a.Similarity)
		}
	}
}

// An article found both by exact match and by similarity appears once, with
// the exact-match score.
func TestSearch_ExactMatchDeduplicatesVectorHit(t *testing.T) {
	store := &mockStore{
		articles: []corpus.Article{
			article("1240", 0.95),
			article("1241", 0.90),
		},
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "la portée de l'article 1240", WithArticleThreshold(0.5))

	count := 0
	for _, a := range bundle.Articles {
		if a.Number == "1240" {
			count++
			if a.Similarity != ExactMatchScore {
				t.Errorf("deduplicated article similarity = %v, want %v", a.Similarity, ExactMatchScore)
			}
		}
	}
	if count != 1 {
		t.Errorf("article 1240 appears %d times, want 1", count)
	}
}

// Exact matches qualify even when their semantic similarity would fail the
// threshold, and the merged list still honors the limit.
func TestSearch_ExactMatchExemptFromThreshold(t *testing.T) {
	store := &mockStore{
		articles: []corpus.Article{
			article("9", 0.05),
			article("1240", 0.80),
			article("1241", 0.79),
			article("1242", 0.78),
		},
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "art. 9 du Code civil", WithArticleLimit(3), WithArticleThreshold(0.75))

	if len(bundle.Articles) > 3 {
		t.Fatalf("limit exceeded: %d articles", len(bundle.Articles))
	}
	if bundle.Articles[0].Number != "9" {
		t.Errorf("first article = %s, want exact match 9", bundle.Articles[0].Number)
	}
}

// Case-law tuning: limit 8, threshold 0.40, over a wide candidate set.
func TestSearch_DecisionTuning(t *testing.T) {
	var decisions []corpus.Decision
	sim := 0.30
	for i := range 50 {
		decisions = append(decisions, corpus.Decision{
			Number:       fmt.Sprintf("19-%05d", i),
			Jurisdiction: "Cour de cassation",
			Embedding:    vecWithSim(sim),
		})
		sim += 0.0086 // spread similarities across 0.30–0.72
	}
	store := &mockStore{decisions: decisions}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "responsabilité du fait des choses")

	if len(bundle.Decisions) == 0 || len(bundle.Decisions) > 8 {
		t.Fatalf("decision count = %d, want 1..8", len(bundle.Decisions))
	}
	prev := math.Inf(1)
	for _, d := range bundle.Decisions {
		if d.Similarity < 0.40 {
			t.Errorf("decision %s below threshold: %v", d.Number, d.Similarity)
		}
		if d.Similarity > prev {
			t.Error("decisions not sorted descending")
		}
		prev = d.Similarity
	}
}

// Embedding failure degrades to an empty bundle, not an error.
func TestSearch_EmbeddingFailureResolvesEmpty(t *testing.T) {
	store := &mockStore{
		articles: []corpus.Article{article("1240", 0.9)},
	}
	embedder := &mockEmbedder{embedErr: errors.New("service unavailable")}
	engine := NewEngine(store, embedder, DefaultTuning(), log.NewNop())

	bundle := engine.Search(context.Background(), "article 1240")

	if bundle.TotalSources() != 0 {
		t.Errorf("TotalSources = %d, want 0", bundle.TotalSources())
	}
	if !bundle.Empty() {
		t.Error("bundle should be empty after embedding failure")
	}
	if store.exactCalls != 0 {
		t.Error("store should not be queried when embedding fails")
	}
}

// A store failure for one source leaves the other two unaffected.
func TestSearch_PartialFailureIsolation(t *testing.T) {
	store := &mockStore{
		articles:    []corpus.Article{article("1240", 0.90)},
		notes:       []corpus.MethodNote{{Title: "La dissertation juridique", Embedding: vecWithSim(0.80)}},
		decisionErr: errors.New("relation does not exist"),
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "méthodologie de la responsabilité civile")

	if len(bundle.Decisions) != 0 {
		t.Errorf("decisions = %d, want 0 after store failure", len(bundle.Decisions))
	}
	if len(bundle.Articles) != 1 {
		t.Errorf("articles = %d, want 1 (unaffected)", len(bundle.Articles))
	}
	if len(bundle.Notes) != 1 {
		t.Errorf("notes = %d, want 1 (unaffected)", len(bundle.Notes))
	}
}

// Limit invariant across all sources.
func TestSearch_LimitInvariant(t *testing.T) {
	var articles []corpus.Article
	for i := range 20 {
		articles = append(articles, article(fmt.Sprintf("%d", 2000+i), 0.95))
	}
	var notes []corpus.MethodNote
	for range 20 {
		notes = append(notes, corpus.MethodNote{Title: "fiche", Embedding: vecWithSim(0.9)})
	}
	store := &mockStore{articles: articles, notes: notes}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "une question générale")

	tuning := DefaultTuning()
	if len(bundle.Articles) > tuning.Articles.Limit {
		t.Errorf("articles = %d, exceeds limit %d", len(bundle.Articles), tuning.Articles.Limit)
	}
	if len(bundle.Notes) > tuning.Notes.Limit {
		t.Errorf("notes = %d, exceeds limit %d", len(bundle.Notes), tuning.Notes.Limit)
	}
}

// Candidates whose embedding dimensionality does not match the query are
// excluded without failing the batch.
func TestSearch_MalformedEmbeddingExcluded(t *testing.T) {
	bad := corpus.Article{Number: "666", Body: "corrompu", Embedding: []float32{1}}
	store := &mockStore{
		articles: []corpus.Article{bad, article("1240", 0.90)},
	}
	engine := newTestEngine(store)

	bundle := engine.Search(context.Background(), "responsabilité")

	for _, a := range bundle.Articles {
		if a.Number == "666" {
			t.Error("malformed candidate leaked into results")
		}
	}
	if len(bundle.Articles) != 1 {
		t.Errorf("articles = %d, want 1", len(bundle.Articles))
	}
}

// The pool size option is passed through to the store.
func TestSearch_PoolSizeOption(t *testing.T) {
	store := &mockStore{}
	engine := newTestEngine(store)

	engine.Search(context.Background(), "question", WithPoolSize(250))
	if store.lastPoolLimit != 250 {
		t.Errorf("pool limit = %d, want 250", store.lastPoolLimit)
	}

	// Out-of-range values are clamped.
	engine.Search(context.Background(), "question", WithPoolSize(99999))
	if store.lastPoolLimit != MaxPoolSize {
		t.Errorf("pool limit = %d, want clamped %d", store.lastPoolLimit, MaxPoolSize)
	}
}

func TestSearch_EmbedsQueryOnce(t *testing.T) {
	embedder := &mockEmbedder{}
	engine := NewEngine(&mockStore{}, embedder, DefaultTuning(), log.NewNop())

	engine.Search(context.Background(), "une seule génération d'embedding")

	if embedder.callCount != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.callCount)
	}
}

func TestMergeArticles(t *testing.T) {
	exact := []ScoredArticle{
		{Article: corpus.Article{Number: "1240"}, Similarity: ExactMatchScore},
	}
	vector := []ScoredArticle{
		{Article: corpus.Article{Number: "1240"}, Similarity: 0.95},
		{Article: corpus.Article{Number: "1241"}, Similarity: 0.90},
		{Article: corpus.Article{Number: "1242"}, Similarity: 0.85},
	}

	merged := mergeArticles(exact, vector, 3)

	if len(merged) != 3 {
		t.Fatalf("merged = %d articles, want 3", len(merged))
	}
	if merged[0].Number != "1240" || merged[0].Similarity != ExactMatchScore {
		t.Errorf("first merged = %s@%v, want 1240@1.0", merged[0].Number, merged[0].Similarity)
	}
	if merged[1].Number != "1241" || merged[2].Number != "1242" {
		t.Errorf("vector tail = %s, %s, want 1241, 1242", merged[1].Number, merged[2].Number)
	}
}
