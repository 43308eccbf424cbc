package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jurigo/jurigo/internal/app"
	"github.com/jurigo/jurigo/internal/config"
	"github.com/jurigo/jurigo/internal/log"
)

var askConversationID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a legal question and print the sourced answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askConversationID, "conversation", "", "continue an existing conversation (UUID)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	a, err := app.Setup(ctx, cfg, log.New(log.Config{}))
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	question := strings.Join(args, " ")

	var convID uuid.UUID
	if askConversationID != "" {
		convID, err = uuid.Parse(askConversationID)
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}
	} else {
		conv, err := a.Sessions.CreateConversation(ctx, "cli", question)
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		convID = conv.ID
	}

	answer, err := a.Advisor.Ask(ctx, convID, question)
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(answer.Text)
	if !answer.Sources.Empty() {
		fmt.Printf("\n— %d source(s) : %d article(s), %d décision(s), %d fiche(s)\n",
			answer.Sources.TotalSources(),
			len(answer.Sources.Articles),
			len(answer.Sources.Decisions),
			len(answer.Sources.Notes),
		)
	}
	fmt.Printf("— conversation : %s\n", convID)
	return nil
}
