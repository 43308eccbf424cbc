package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// MockEmbedder is a deterministic ai.Embedder for tests. Vectors can be
// pinned per input text; unpinned inputs get the default vector. It records
// every embedded text for assertions.
//
// MockEmbedder is safe for concurrent use.
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	def     []float32
	err     error
	Calls   []string
}

// NewMockEmbedder creates a mock embedder returning def for any input not
// pinned with SetVector.
func NewMockEmbedder(def []float32) *MockEmbedder {
	return &MockEmbedder{
		vectors: make(map[string][]float32),
		def:     def,
	}
}

// SetVector pins the vector returned for an exact input text.
func (m *MockEmbedder) SetVector(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
}

// Fail makes every subsequent Embed call return err.
func (m *MockEmbedder) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockEmbedder) Name() string { return "test/mock-embedder" }

func (m *MockEmbedder) Register(r api.Registry) {}

func (m *MockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var sb strings.Builder
		for _, p := range doc.Content {
			sb.WriteString(p.Text)
		}
		text := sb.String()
		m.Calls = append(m.Calls, text)
		vec, ok := m.vectors[text]
		if !ok {
			vec = m.def
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}
