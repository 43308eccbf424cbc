package retrieval

// Candidate pool bounds. The pool cap trades recall against the cost of
// brute-force scoring on every request; beyond a few thousand documents the
// pool fetch should be replaced by an ANN query in the store.
const (
	DefaultPoolSize = 500
	MaxPoolSize     = 1000
)

// SourceTuning holds the per-source result cap and similarity threshold.
type SourceTuning struct {
	Limit     int
	Threshold float64
}

// Tuning holds the retrieval parameters for all three sources plus the
// candidate pool size. The defaults were settled empirically: a strict bar
// for articles (the corpus is large and noisy), a recall-favoring bar for
// case law (under-matching is worse than a few marginal hits), and a middle
// ground for methodology notes.
type Tuning struct {
	Articles  SourceTuning
	Decisions SourceTuning
	Notes     SourceTuning
	PoolSize  int32
}

// DefaultTuning returns the documented default retrieval parameters.
func DefaultTuning() Tuning {
	return Tuning{
		Articles:  SourceTuning{Limit: 3, Threshold: 0.75},
		Decisions: SourceTuning{Limit: 8, Threshold: 0.40},
		Notes:     SourceTuning{Limit: 3, Threshold: 0.60},
		PoolSize:  DefaultPoolSize,
	}
}

// normalize clamps out-of-range values back to usable ones.
func (t *Tuning) normalize() {
	if t.PoolSize <= 0 {
		t.PoolSize = DefaultPoolSize
	}
	if t.PoolSize > MaxPoolSize {
		t.PoolSize = MaxPoolSize
	}
	for _, st := range []*SourceTuning{&t.Articles, &t.Decisions, &t.Notes} {
		if st.Limit < 0 {
			st.Limit = 0
		}
	}
}

// SearchOption overrides tuning for a single Search call, following the
// functional options pattern.
type SearchOption func(*Tuning)

// WithTuning replaces the entire tuning for this call.
func WithTuning(t Tuning) SearchOption {
	return func(dst *Tuning) { *dst = t }
}

// WithArticleLimit caps the number of article results.
func WithArticleLimit(n int) SearchOption {
	return func(t *Tuning) { t.Articles.Limit = n }
}

// WithArticleThreshold sets the minimum similarity for article results.
// Exact matches are exempt.
func WithArticleThreshold(v float64) SearchOption {
	return func(t *Tuning) { t.Articles.Threshold = v }
}

// WithDecisionLimit caps the number of case-law results.
func WithDecisionLimit(n int) SearchOption {
	return func(t *Tuning) { t.Decisions.Limit = n }
}

// WithDecisionThreshold sets the minimum similarity for case-law results.
func WithDecisionThreshold(v float64) SearchOption {
	return func(t *Tuning) { t.Decisions.Threshold = v }
}

// WithNoteLimit caps the number of methodology results.
func WithNoteLimit(n int) SearchOption {
	return func(t *Tuning) { t.Notes.Limit = n }
}

// WithNoteThreshold sets the minimum similarity for methodology results.
func WithNoteThreshold(v float64) SearchOption {
	return func(t *Tuning) { t.Notes.Threshold = v }
}

// WithPoolSize bounds the candidate pool fetched per source.
func WithPoolSize(n int32) SearchOption {
	return func(t *Tuning) { t.PoolSize = n }
}
