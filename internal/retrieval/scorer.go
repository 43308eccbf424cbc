package retrieval

import (
	"log/slog"
	"math"
	"sort"
)

// ExactMatchScore is the similarity assigned to exact-match results. Pinning
// exact matches to the maximum score guarantees they are never filtered out
// and always rank first.
const ExactMatchScore = 1.0

// Cosine returns the cosine similarity between two equal-length vectors:
// dot(a, b) / (‖a‖·‖b‖). The result lies in approximately [-1, 1]; no
// clamping is applied, so floating-point rounding may push a value a few
// ulps outside that range. A zero vector yields 0.
//
// Cosine is a pure function; callers are responsible for dimension checks.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scored pairs a candidate document with its similarity to the query.
type scored[T any] struct {
	doc        T
	similarity float64
}

// scoreAll computes cosine similarity for every candidate with a usable
// embedding. Candidates with a missing embedding or a dimensionality that
// does not match the query vector are excluded with a warning; a single
// corrupt row must never abort the whole retrieval.
//
// Output order matches input order; sorting is the caller's concern, which
// keeps this a side-effect-free numeric step that is independently testable.
func scoreAll[T any](query []float32, candidates []T, embeddingOf func(T) []float32, describe func(T) string, logger *slog.Logger) []scored[T] {
	out := make([]scored[T], 0, len(candidates))
	for _, c := range candidates {
		emb := embeddingOf(c)
		if len(emb) == 0 {
			logger.Warn("candidate excluded from scoring: no embedding", "doc", describe(c))
			continue
		}
		if len(emb) != len(query) {
			logger.Warn("candidate excluded from scoring: dimension mismatch",
				"doc", describe(c), "got", len(emb), "want", len(query))
			continue
		}
		out = append(out, scored[T]{doc: c, similarity: Cosine(query, emb)})
	}
	return out
}

// topK sorts scored candidates by similarity descending and keeps at most
// limit entries whose similarity is at or above threshold.
func topK[T any](s []scored[T], limit int, threshold float64) []scored[T] {
	if limit <= 0 {
		return nil
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].similarity > s[j].similarity })

	out := make([]scored[T], 0, min(limit, len(s)))
	for _, sc := range s {
		if len(out) >= limit {
			break
		}
		// Sorted descending: everything after the first miss is below too.
		if sc.similarity < threshold {
			break
		}
		out = append(out, sc)
	}
	return out
}
