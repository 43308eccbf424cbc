// Package retrieval implements the hybrid retrieval engine behind the legal
// assistant.
//
// Given a free-text legal question, the engine:
//
//  1. Extracts explicit statute references from the question text
//     (ExtractReferences).
//  2. Embeds the question once via the configured embedder.
//  3. Fans out over the three corpus collections concurrently: an exact-match
//     lookup for extracted article numbers plus cosine-similarity scoring of
//     bounded candidate pools for articles, case-law decisions, and
//     methodology notes.
//  4. Merges exact and vector article hits (exact matches win, pinned to
//     similarity 1.0 and exempt from the threshold), applies per-source
//     limits and thresholds, and assembles a Bundle.
//
// # Failure containment
//
// Retrieval augments the chat answer; it must never block it. Failures are
// contained at the smallest possible scope: a malformed document embedding is
// skipped with a warning, a store error empties only that source's list, and
// an embedding-service failure empties the whole bundle. Search never returns
// an error.
//
// # Tuning
//
// Per-source limits and similarity thresholds were settled empirically
// (articles 3/0.75, decisions 8/0.40, notes 3/0.60) and are configuration,
// not constants: see Tuning and the Search options.
package retrieval
