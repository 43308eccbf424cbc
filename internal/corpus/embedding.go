package corpus

import (
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// ErrNoEmbedding indicates a document row without a stored embedding.
var ErrNoEmbedding = errors.New("document has no stored embedding")

// DecodeEmbedding converts a stored embedding value into a canonical []float32.
//
// Stored embeddings arrive in two shapes: native numeric sequences (pgvector
// wire values, []float32, []float64, or JSON-decoded []any) and serialized
// text literals such as "[0.1,0.2,0.3]" written by older ingestion runs. This
// is the single deserialization point; everything downstream of the store
// works with []float32 only and never branches on representation.
func DecodeEmbedding(src any) ([]float32, error) {
	switch v := src.(type) {
	case nil:
		return nil, ErrNoEmbedding
	case []float32:
		if len(v) == 0 {
			return nil, ErrNoEmbedding
		}
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	case []float64:
		if len(v) == 0 {
			return nil, ErrNoEmbedding
		}
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		if len(v) == 0 {
			return nil, ErrNoEmbedding
		}
		out := make([]float32, len(v))
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("embedding element %d is %T, want float64", i, e)
			}
			out[i] = float32(f)
		}
		return out, nil
	case pgvector.Vector:
		if len(v.Slice()) == 0 {
			return nil, ErrNoEmbedding
		}
		return DecodeEmbedding(v.Slice())
	case *pgvector.Vector:
		if v == nil {
			return nil, ErrNoEmbedding
		}
		return DecodeEmbedding(*v)
	case string:
		return decodeEmbeddingText(v)
	case []byte:
		return decodeEmbeddingText(string(v))
	case *string:
		if v == nil {
			return nil, ErrNoEmbedding
		}
		return decodeEmbeddingText(*v)
	default:
		return nil, fmt.Errorf("unsupported embedding representation %T", src)
	}
}

// decodeEmbeddingText parses a bracketed comma-separated vector literal,
// the text form pgvector itself emits.
func decodeEmbeddingText(s string) ([]float32, error) {
	if s == "" {
		return nil, ErrNoEmbedding
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("embedding literal %.20q is not a bracketed vector", s)
	}
	var v pgvector.Vector
	if err := v.Parse(s); err != nil {
		return nil, fmt.Errorf("parsing embedding literal: %w", err)
	}
	if len(v.Slice()) == 0 {
		return nil, ErrNoEmbedding
	}
	return v.Slice(), nil
}
