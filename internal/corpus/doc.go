// Package corpus provides read-only access to the legal document corpus.
//
// The corpus holds three pre-embedded collections in PostgreSQL:
//
//   - articles: statutory provisions (Code civil and related codes)
//   - decisions: case-law decisions (jurisprudence)
//   - method_notes: pedagogical methodology notes (fiches de méthodologie)
//
// Documents are written exclusively by an external ingestion pipeline; the
// retrieval path never mutates them. Each collection carries a pgvector
// embedding column. Rows may predate the current ingestion pipeline and store
// their embedding as a bracketed text literal instead of a native vector, so
// all embedding values pass through DecodeEmbedding at the store boundary and
// come out as a canonical []float32.
//
// Store methods return bounded candidate pools rather than whole collections:
// similarity scoring is brute-force per request, and the pool cap keeps that
// tractable (see the retrieval package for the scoring side).
package corpus
