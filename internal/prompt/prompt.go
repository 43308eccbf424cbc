// Package prompt renders a retrieval bundle into the context block injected
// into the downstream model's system instruction. The output is plain text:
// one section per non-empty source, wrapped in a citation instruction frame.
package prompt

import (
	"fmt"
	"strings"

	"github.com/jurigo/jurigo/internal/retrieval"
)

// Acknowledgment is the fixed phrase the model must open its answer with,
// confirming it received and will honor the citation instructions.
const Acknowledgment = "D'après les sources juridiques fournies :"

const (
	articlesHeader  = "=== ARTICLES DE LOI ==="
	decisionsHeader = "=== JURISPRUDENCE ==="
	notesHeader     = "=== MÉTHODOLOGIE ==="
)

// Format renders the bundle as a citation-constrained context block.
//
// Two mutually exclusive frames exist: the pedagogical frame, used whenever
// the bundle carries methodology notes (methodology section first, teaching
// guidance emphasized), and the strict-citation frame otherwise (verbatim
// legal grounding emphasized). An entirely empty bundle renders to the empty
// string, which callers must treat as "no context to inject", not an error.
func Format(bundle *retrieval.Bundle) string {
	if bundle == nil || bundle.Empty() {
		return ""
	}

	var b strings.Builder
	pedagogical := len(bundle.Notes) > 0

	if pedagogical {
		b.WriteString("Tu es un assistant juridique pédagogique. Appuie-toi d'abord sur la méthodologie fournie pour structurer ta réponse, puis sur les sources de droit.\n\n")
		writeNotes(&b, bundle.Notes)
		writeArticles(&b, bundle.Articles)
		writeDecisions(&b, bundle.Decisions)
	} else {
		b.WriteString("Tu es un assistant juridique rigoureux. Fonde ta réponse exclusivement sur les sources ci-dessous.\n\n")
		writeArticles(&b, bundle.Articles)
		writeDecisions(&b, bundle.Decisions)
	}

	writeInstructions(&b, bundle)
	return b.String()
}

func writeArticles(b *strings.Builder, articles []retrieval.ScoredArticle) {
	if len(articles) == 0 {
		return
	}
	b.WriteString(articlesHeader + "\n\n")
	for _, a := range articles {
		fmt.Fprintf(b, "Article %s", a.Number)
		if a.Title != "" {
			fmt.Fprintf(b, " — %s", a.Title)
		}
		if a.CodeName != "" {
			fmt.Fprintf(b, " (%s)", a.CodeName)
		}
		fmt.Fprintf(b, " [pertinence : %s]\n", percent(a.Similarity))
		b.WriteString(a.Body + "\n")
		if a.URL != "" {
			fmt.Fprintf(b, "Source : %s\n", a.URL)
		}
		b.WriteString("\n")
	}
}

func writeDecisions(b *strings.Builder, decisions []retrieval.ScoredDecision) {
	if len(decisions) == 0 {
		return
	}
	b.WriteString(decisionsHeader + "\n\n")
	for _, d := range decisions {
		fmt.Fprintf(b, "%s", d.Jurisdiction)
		if !d.Date.IsZero() {
			fmt.Fprintf(b, ", %s", d.Date.Format("02/01/2006"))
		}
		if d.Number != "" {
			fmt.Fprintf(b, ", n° %s", d.Number)
		}
		fmt.Fprintf(b, " [pertinence : %s]\n", percent(d.Similarity))
		if d.Principle != "" {
			fmt.Fprintf(b, "Principe : %s\n", d.Principle)
		}
		if d.Holding != "" {
			fmt.Fprintf(b, "Solution : %s\n", d.Holding)
		}
		if d.URL != "" {
			fmt.Fprintf(b, "Source : %s\n", d.URL)
		}
		b.WriteString("\n")
	}
}

func writeNotes(b *strings.Builder, notes []retrieval.ScoredNote) {
	if len(notes) == 0 {
		return
	}
	b.WriteString(notesHeader + "\n\n")
	for _, n := range notes {
		fmt.Fprintf(b, "%s", n.Title)
		if n.Category != "" {
			fmt.Fprintf(b, " (%s", n.Category)
			if n.Level != "" {
				fmt.Fprintf(b, ", niveau %s", n.Level)
			}
			b.WriteString(")")
		} else if n.Level != "" {
			fmt.Fprintf(b, " (niveau %s)", n.Level)
		}
		fmt.Fprintf(b, " [pertinence : %s]\n", percent(n.Similarity))
		b.WriteString(n.Content + "\n\n")
	}
}

// writeInstructions appends the instruction frame the model must follow. The
// mandatory case-law citation rule is emitted only when the bundle actually
// carries case law, so the model is never instructed to cite what it was not
// given.
func writeInstructions(b *strings.Builder, bundle *retrieval.Bundle) {
	b.WriteString("=== INSTRUCTIONS ===\n\n")
	fmt.Fprintf(b, "1. Commence ta réponse par la phrase exacte : « %s »\n", Acknowledgment)
	b.WriteString("2. Cite uniquement les documents présents ci-dessus. N'invente jamais une référence.\n")
	b.WriteString("3. Cite le texte des articles mot pour mot, entre guillemets ; ne le paraphrase pas.\n")
	rule := 4
	if len(bundle.Decisions) > 0 {
		fmt.Fprintf(b, "%d. Cite au moins une décision de jurisprudence parmi celles fournies.\n", rule)
		rule++
	}
	if len(bundle.Notes) > 0 {
		fmt.Fprintf(b, "%d. Structure ta réponse selon la méthodologie fournie (plan, qualification, application).\n", rule)
	}
}

func percent(similarity float64) string {
	return fmt.Sprintf("%.0f%%", similarity*100)
}
