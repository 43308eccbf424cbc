package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jurigo/jurigo/internal/app"
	"github.com/jurigo/jurigo/internal/config"
	"github.com/jurigo/jurigo/internal/log"
	"github.com/jurigo/jurigo/internal/retrieval"
)

var searchArticleLimit int

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Run hybrid retrieval and print the matched sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchArticleLimit, "articles", 0, "override the article result limit")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	var opts []retrieval.SearchOption
	if searchArticleLimit > 0 {
		opts = append(opts, retrieval.WithArticleLimit(searchArticleLimit))
	}

	query := strings.Join(args, " ")
	bundle := a.Engine.Search(ctx, query, opts...)

	if bundle.Empty() {
		fmt.Println("Aucune source trouvée.")
		return nil
	}

	for _, art := range bundle.Articles {
		fmt.Printf("[article %3.0f%%] Article %s (%s)\n", art.Similarity*100, art.Number, art.CodeName)
	}
	for _, d := range bundle.Decisions {
		fmt.Printf("[décision %3.0f%%] %s, n° %s\n", d.Similarity*100, d.Jurisdiction, d.Number)
	}
	for _, n := range bundle.Notes {
		fmt.Printf("[méthode %3.0f%%] %s\n", n.Similarity*100, n.Title)
	}
	return nil
}
