package retrieval

import "github.com/jurigo/jurigo/internal/corpus"

// ScoredArticle is an article paired with its similarity to the query.
// Exact matches carry ExactMatchScore.
type ScoredArticle struct {
	corpus.Article
	Similarity float64
}

// ScoredDecision is a case-law decision paired with its similarity.
type ScoredDecision struct {
	corpus.Decision
	Similarity float64
}

// ScoredNote is a methodology note paired with its similarity.
type ScoredNote struct {
	corpus.MethodNote
	Similarity float64
}

// Bundle is the aggregate output of one retrieval request: per-source result
// lists (each bounded by its configured limit, ordered by similarity
// descending) plus the original query text.
type Bundle struct {
	Query     string
	Articles  []ScoredArticle
	Decisions []ScoredDecision
	Notes     []ScoredNote
}

// TotalSources returns the number of documents across all three lists.
func (b *Bundle) TotalSources() int {
	return len(b.Articles) + len(b.Decisions) + len(b.Notes)
}

// Empty reports whether the bundle contains no documents at all.
func (b *Bundle) Empty() bool {
	return b.TotalSources() == 0
}
