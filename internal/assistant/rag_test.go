package assistant

import (
	"testing"

	"northdesk/internal/rag"
)

func TestIsRefusal(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"blank answer", "", true},
		{"whitespace answer", "  \n ", true},
		{"canonical refusal", RefusalSentence, true},
		{"refusal embedded in longer text", "Sorry, I don't have enough information in the documents to say.", true},
		{"case-insensitive", "NOT IN THE CONTEXT, sorry.", true},
		{"real answer", "Submit the request through the IT portal.", false},
	}

	for _, tt := range tests {
		if got := IsRefusal(tt.answer, DefaultRefusalPhrases); got != tt.want {
			t.Errorf("%s: IsRefusal(%q) = %v, want %v", tt.name, tt.answer, got, tt.want)
		}
	}
}

func TestIsRefusalCustomPhrases(t *testing.T) {
	phrases := []string{"cannot answer that"}
	if !IsRefusal("I cannot answer that from here.", phrases) {
		t.Fatal("expected custom phrase to match")
	}
	if IsRefusal(RefusalSentence, phrases) {
		t.Fatal("default phrase should not match a custom list")
	}
}

func TestCitationsDedupesAndDefaults(t *testing.T) {
	passages := []rag.Passage{
		{Text: "a1", Metadata: map[string]string{"source": "a"}},
		{Text: "b1", Metadata: map[string]string{"source": "b"}},
		{Text: "a2", Metadata: map[string]string{"source": "a"}},
		{Text: "n1", Metadata: map[string]string{}},
		{Text: "blank", Metadata: map[string]string{"source": "  "}},
	}

	got := citations(passages)
	want := []string{"a", "b", "unknown"}
	if len(got) != len(want) {
		t.Fatalf("citations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("citations = %v, want %v", got, want)
		}
	}
}

func TestCitationsEmpty(t *testing.T) {
	got := citations(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("citations(nil) = %v, want empty non-nil slice", got)
	}
}

func TestBuildContext(t *testing.T) {
	passages := []rag.Passage{
		{Text: "first passage"},
		{Text: "second passage"},
		{Text: ""},
	}
	got := buildContext(passages)
	want := "- first passage\n- second passage\n- "
	if got != want {
		t.Fatalf("buildContext = %q, want %q", got, want)
	}
}
