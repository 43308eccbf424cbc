package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitCompleter generates completions through a Genkit model.
type GenkitCompleter struct {
	g         *genkit.Genkit
	modelName string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
}

// NewGenkitCompleter creates a completer bound to one model.
func NewGenkitCompleter(g *genkit.Genkit, modelName string) *GenkitCompleter {
	return &GenkitCompleter{g: g, modelName: modelName}
}

// Complete implements Completer.
func (c *GenkitCompleter) Complete(ctx context.Context, system, userMessage string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(userMessage),
	)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}
