// Package chat orchestrates one question/answer exchange: retrieve legal
// sources, render them into the system instruction, generate the answer, and
// persist the exchange.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jurigo/jurigo/internal/prompt"
	"github.com/jurigo/jurigo/internal/retrieval"
	"github.com/jurigo/jurigo/internal/session"
)

// baseSystemPrompt frames the assistant before any retrieved context is
// appended. Kept short: the retrieval context block carries the detailed
// citation instructions.
const baseSystemPrompt = "Tu es Jurigo, un assistant juridique spécialisé en droit français. " +
	"Réponds en français, avec rigueur et pédagogie."

// Searcher runs hybrid retrieval for a question. *retrieval.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...retrieval.SearchOption) *retrieval.Bundle
}

// Completer generates a chat completion from a system instruction and a user
// message.
type Completer interface {
	Complete(ctx context.Context, system, userMessage string) (string, error)
}

// Recorder persists conversation turns. *session.Store satisfies it.
type Recorder interface {
	AppendMessages(ctx context.Context, conversationID uuid.UUID, messages []session.Message) error
}

// Advisor answers legal questions with retrieved sources injected into the
// model's system instruction.
type Advisor struct {
	searcher  Searcher
	completer Completer
	recorder  Recorder
	logger    *slog.Logger
}

// Answer is one completed exchange.
type Answer struct {
	Text    string            `json:"text"`
	Sources *retrieval.Bundle `json:"sources"`
}

// NewAdvisor creates an advisor. recorder may be nil, in which case exchanges
// are not persisted (the search CLI path). A nil logger falls back to the
// default.
func NewAdvisor(searcher Searcher, completer Completer, recorder Recorder, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		searcher:  searcher,
		completer: completer,
		recorder:  recorder,
		logger:    logger,
	}
}

// Ask answers one question within a conversation.
//
// Retrieval degradation never blocks the answer: an empty bundle simply means
// no context block is injected. Generation failure is the only fatal path. A
// persistence failure after a successful generation is logged and the answer
// still returned; losing one history entry is better than discarding a
// completed generation.
func (a *Advisor) Ask(ctx context.Context, conversationID uuid.UUID, question string) (*Answer, error) {
	bundle := a.searcher.Search(ctx, question)

	system := baseSystemPrompt
	if contextBlock := prompt.Format(bundle); contextBlock != "" {
		system += "\n\n" + contextBlock
	} else {
		a.logger.Info("no legal sources retrieved, answering without context",
			"conversation_id", conversationID)
	}

	text, err := a.completer.Complete(ctx, system, question)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	if a.recorder != nil {
		err := a.recorder.AppendMessages(ctx, conversationID, []session.Message{
			{Role: session.RoleUser, Content: question},
			{Role: session.RoleAssistant, Content: text},
		})
		if err != nil {
			a.logger.Error("failed to persist exchange",
				"conversation_id", conversationID, "error", err)
		}
	}

	return &Answer{Text: text, Sources: bundle}, nil
}
