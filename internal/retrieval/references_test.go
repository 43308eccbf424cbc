package retrieval

import (
	"reflect"
	"testing"
)

func TestExtractReferences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "full citation",
			text: "Que prévoit l'article 1240 du Code civil ?",
			want: []string{"1240"},
		},
		{
			name: "abbreviated",
			text: "Voir art. 1382 anc.",
			want: []string{"1382"},
		},
		{
			name: "abbreviated without dot",
			text: "cf art 1240",
			want: []string{"1240"},
		},
		{
			name: "case insensitive",
			text: "ARTICLE 544 et Article 545",
			want: []string{"544", "545"},
		},
		{
			name: "sub-numbered article",
			text: "L'article 1240-1 ne figure pas au Code civil.",
			want: []string{"1240-1"},
		},
		{
			name: "range keeps endpoints only",
			text: "Les articles 1240 à 1242 régissent la responsabilité extracontractuelle.",
			want: []string{"1240", "1242"},
		},
		{
			name: "duplicates collapse",
			text: "article 1240, encore l'article 1240, toujours l'art. 1240",
			want: []string{"1240"},
		},
		{
			name: "no citation",
			text: "Quelle est la responsabilité du fait des choses ?",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "number without article keyword ignored",
			text: "En 1804, le Code civil est promulgué.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractReferences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractReferences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// The range form captures only the written endpoints: 1241 is never
// synthesized from "articles 1240 à 1242".
func TestExtractReferences_RangeDoesNotExpand(t *testing.T) {
	got := ExtractReferences("articles 1240 à 1242")
	for _, ref := range got {
		if ref == "1241" {
			t.Fatalf("range extraction synthesized intermediate number: %v", got)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected exactly 2 endpoints, got %v", got)
	}
}

func TestExtractReferences_IsPure(t *testing.T) {
	text := "articles 1240 à 1242 et art. 9"
	first := ExtractReferences(text)
	second := ExtractReferences(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
}
