package api

import (
	"context"
	"log/slog"
	"net/http"
)

// CorpusCounter reports per-collection document counts. *corpus.Store
// satisfies it.
type CorpusCounter interface {
	Counts(ctx context.Context) (articles, decisions, notes int64, err error)
}

type statsHandler struct {
	corpus CorpusCounter
	logger *slog.Logger
}

// stats handles GET /api/v1/stats.
func (h *statsHandler) stats(w http.ResponseWriter, r *http.Request) {
	articles, decisions, notes, err := h.corpus.Counts(r.Context())
	if err != nil {
		h.logger.Error("failed to count corpus documents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read corpus stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"corpus": map[string]int64{
			"articles":     articles,
			"decisions":    decisions,
			"method_notes": notes,
		},
	})
}
