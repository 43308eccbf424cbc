package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/jurigo/jurigo/internal/corpus"
	"github.com/jurigo/jurigo/internal/retrieval"
)

func sampleArticle() retrieval.ScoredArticle {
	return retrieval.ScoredArticle{
		Article: corpus.Article{
			Number:   "1240",
			Title:    "Responsabilité du fait personnel",
			Body:     "Tout fait quelconque de l'homme, qui cause à autrui un dommage, oblige celui par la faute duquel il est arrivé à le réparer.",
			CodeName: "Code civil",
			URL:      "https://www.legifrance.gouv.fr/codes/article_lc/LEGIARTI000032041571",
		},
		Similarity: 1.0,
	}
}

func sampleDecision() retrieval.ScoredDecision {
	return retrieval.ScoredDecision{
		Decision: corpus.Decision{
			Jurisdiction: "Cour de cassation, 2e chambre civile",
			Date:         time.Date(1930, 2, 13, 0, 0, 0, 0, time.UTC),
			Number:       "Jand'heur",
			Principle:    "Présomption de responsabilité du gardien de la chose.",
			Holding:      "La responsabilité du fait des choses n'exige pas la preuve d'une faute.",
			URL:          "https://www.courdecassation.fr/decision/jandheur",
		},
		Similarity: 0.82,
	}
}

func sampleNote() retrieval.ScoredNote {
	return retrieval.ScoredNote{
		MethodNote: corpus.MethodNote{
			Title:    "Le cas pratique",
			Category: "exercice",
			Level:    "L1",
			Content:  "Qualifier les faits, identifier la règle applicable, appliquer la règle aux faits.",
		},
		Similarity: 0.67,
	}
}

func TestFormat_EmptyBundle(t *testing.T) {
	if got := Format(&retrieval.Bundle{Query: "une question"}); got != "" {
		t.Errorf("Format(empty) = %q, want empty string", got)
	}
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty string", got)
	}
}

func TestFormat_StrictCitationFrame(t *testing.T) {
	bundle := &retrieval.Bundle{
		Articles:  []retrieval.ScoredArticle{sampleArticle()},
		Decisions: []retrieval.ScoredDecision{sampleDecision()},
	}

	got := Format(bundle)

	for _, want := range []string{
		articlesHeader,
		decisionsHeader,
		"Article 1240",
		"Responsabilité du fait personnel",
		"(Code civil)",
		"Tout fait quelconque de l'homme",
		"[pertinence : 100%]",
		"Cour de cassation, 2e chambre civile, 13/02/1930, n° Jand'heur",
		"[pertinence : 82%]",
		"https://www.legifrance.gouv.fr/codes/article_lc/LEGIARTI000032041571",
		Acknowledgment,
		"Cite au moins une décision de jurisprudence",
		"mot pour mot",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(got, notesHeader) {
		t.Error("strict frame should not contain a methodology section")
	}
	if strings.Contains(got, "pédagogique") {
		t.Error("strict frame should not use the pedagogical preamble")
	}
}

func TestFormat_PedagogicalFrameWhenNotesPresent(t *testing.T) {
	bundle := &retrieval.Bundle{
		Articles: []retrieval.ScoredArticle{sampleArticle()},
		Notes:    []retrieval.ScoredNote{sampleNote()},
	}

	got := Format(bundle)

	if !strings.Contains(got, "pédagogique") {
		t.Error("expected pedagogical preamble when methodology notes are present")
	}
	notesAt := strings.Index(got, notesHeader)
	articlesAt := strings.Index(got, articlesHeader)
	if notesAt == -1 || articlesAt == -1 {
		t.Fatal("expected both methodology and articles sections")
	}
	if notesAt > articlesAt {
		t.Error("pedagogical frame must place methodology before articles")
	}
	for _, want := range []string{
		"Le cas pratique (exercice, niveau L1)",
		"[pertinence : 67%]",
		"selon la méthodologie fournie",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// The mandatory case-law citation rule only appears when case law is present.
func TestFormat_CaseLawRuleConditional(t *testing.T) {
	withoutCaseLaw := Format(&retrieval.Bundle{
		Articles: []retrieval.ScoredArticle{sampleArticle()},
	})
	if strings.Contains(withoutCaseLaw, "au moins une décision") {
		t.Error("case-law citation rule emitted without any case law in the bundle")
	}

	withCaseLaw := Format(&retrieval.Bundle{
		Decisions: []retrieval.ScoredDecision{sampleDecision()},
	})
	if !strings.Contains(withCaseLaw, "au moins une décision") {
		t.Error("case-law citation rule missing despite case law in the bundle")
	}
}

func TestFormat_OmitsEmptyOptionalFields(t *testing.T) {
	bundle := &retrieval.Bundle{
		Articles: []retrieval.ScoredArticle{{
			Article:    corpus.Article{Number: "9", Body: "Chacun a droit au respect de sa vie privée."},
			Similarity: 0.91,
		}},
	}

	got := Format(bundle)

	if strings.Contains(got, "Source :") {
		t.Error("URL line emitted for an article without a URL")
	}
	if strings.Contains(got, " — ") {
		t.Error("title separator emitted for an article without a title")
	}
	if !strings.Contains(got, "Article 9 [pertinence : 91%]") {
		t.Errorf("unexpected header rendering:\n%s", got)
	}
}

func TestFormat_IsDeterministic(t *testing.T) {
	bundle := &retrieval.Bundle{
		Articles:  []retrieval.ScoredArticle{sampleArticle()},
		Decisions: []retrieval.ScoredDecision{sampleDecision()},
		Notes:     []retrieval.ScoredNote{sampleNote()},
	}
	first := Format(bundle)
	for range 5 {
		if got := Format(bundle); got != first {
			t.Fatal("Format is not deterministic for identical input")
		}
	}
}
