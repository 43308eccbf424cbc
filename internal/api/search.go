package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jurigo/jurigo/internal/retrieval"
)

// maxQueryLength bounds the query text accepted by the search and ask
// endpoints. Anything longer is not a question, it is a paste accident.
const maxQueryLength = 4096

// Searcher runs hybrid retrieval. *retrieval.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...retrieval.SearchOption) *retrieval.Bundle
}

type searchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// search handles GET /api/v1/search?q=...
//
// Optional per-request overrides: article_limit, decision_limit, note_limit.
// Invalid override values are rejected rather than silently ignored.
func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query_too_long", "query exceeds maximum length")
		return
	}

	opts, err := searchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	bundle := h.searcher.Search(r.Context(), query, opts...)
	writeJSON(w, http.StatusOK, bundle)
}

// searchOptions parses per-request tuning overrides from query parameters.
func searchOptions(r *http.Request) ([]retrieval.SearchOption, error) {
	var opts []retrieval.SearchOption

	for param, build := range map[string]func(int) retrieval.SearchOption{
		"article_limit":  retrieval.WithArticleLimit,
		"decision_limit": retrieval.WithDecisionLimit,
		"note_limit":     retrieval.WithNoteLimit,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			return nil, &paramError{param: param}
		}
		opts = append(opts, build(n))
	}
	return opts, nil
}

type paramError struct {
	param string
}

func (e *paramError) Error() string {
	return e.param + " must be an integer between 1 and 50"
}
