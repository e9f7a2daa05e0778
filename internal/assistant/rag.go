package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"northdesk/internal/llm"
	"northdesk/internal/observability"
	"northdesk/internal/rag"
)

// RefusalSentence is the exact sentence the RAG system prompt instructs the
// model to emit when the context cannot answer the question.
const RefusalSentence = "I don't have enough information in the documents."

const ragSystemPrompt = `You answer using ONLY the provided context.
If the answer isn't in the context, say: "I don't have enough information in the documents."`

// DefaultRefusalPhrases are the phrasings treated as a model refusal. The
// containment check is deliberately loose: missing a refusal is worse than
// occasionally discarding an answer that happens to echo one of these.
var DefaultRefusalPhrases = []string{
	"i don't have enough information in the documents",
	"not enough information in the documents",
	"not in the context",
	"only the provided context",
}

// IsRefusal reports whether answer is a refusal to answer from context.
// A blank answer counts as a refusal. Matching is case-insensitive
// containment over the configured phrase list.
func IsRefusal(answer string, phrases []string) bool {
	if strings.TrimSpace(answer) == "" {
		return true
	}
	lower := strings.ToLower(answer)
	for _, phrase := range phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// citations collects the distinct non-blank source values across passages,
// preserving first-occurrence order.
func citations(passages []rag.Passage) []string {
	out := make([]string, 0, len(passages))
	seen := make(map[string]bool, len(passages))
	for _, p := range passages {
		src := p.Source()
		if strings.TrimSpace(src) == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

// buildContext joins passage texts into the prompt context block, one
// passage per "- "-prefixed line. Missing text renders as an empty bullet.
func buildContext(passages []rag.Passage) string {
	lines := make([]string, 0, len(passages))
	for _, p := range passages {
		lines = append(lines, "- "+p.Text)
	}
	return strings.Join(lines, "\n")
}

// ragAnswer attempts a retrieval-grounded answer for question. It returns
// nil (with a nil error) when retrieval produced nothing usable: no
// passages, near-empty context, or a detected refusal. Collaborator errors
// propagate; they are not folded into the unavailable outcome.
func (r *Router) ragAnswer(ctx context.Context, question string) (*RagAnswer, error) {
	var passages []rag.Passage
	err := r.obs.Step(ctx, observability.SpanRagRetrieve, func(ctx context.Context) error {
		var err error
		passages, err = r.retriever.Search(ctx, question, r.cfg.TopK)
		return err
	}, attribute.Int(observability.AttrTopK, r.cfg.TopK))
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}

	r.obs.Metrics.RecordRetrieval(ctx, len(passages))

	if len(passages) == 0 {
		r.logger.DebugContext(ctx, "retrieval returned no passages")
		return nil, nil
	}

	// Near-empty context is as useless as no context, regardless of how
	// many passages carried it.
	promptContext := buildContext(passages)
	if len(strings.TrimSpace(promptContext)) < r.cfg.MinContextChars {
		r.logger.DebugContext(ctx, "retrieved context below threshold",
			"passages", len(passages), "context_chars", len(strings.TrimSpace(promptContext)))
		return nil, nil
	}

	answer, err := r.complete(ctx, "rag", llm.Request{
		System: ragSystemPrompt,
		User:   fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", promptContext, question),
	})
	if err != nil {
		return nil, err
	}

	if IsRefusal(answer, r.cfg.RefusalPhrases) {
		r.logger.InfoContext(ctx, "model refused to answer from context")
		return nil, nil
	}

	return &RagAnswer{
		Text:      answer,
		Citations: citations(passages),
	}, nil
}
