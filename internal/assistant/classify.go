package assistant

import "strings"

// ticketTriggers are the phrases that route a message to the ticket tool.
// Containment is checked on the lower-cased message; first match wins.
var ticketTriggers = []string{
	"create ticket",
	"open a ticket",
	"raise a ticket",
	"file a ticket",
	"submit a ticket",
	"log a ticket",
}

// smallTalk are short messages that never justify a similarity search.
var smallTalk = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
	"ok":    true,
	"okay":  true,
}

// docsSignals are explicit "look in the docs" phrases, including the
// deployment's own collection and knowledge-base names.
var docsSignals = []string{
	"in the docs",
	"from the docs",
	"documentation",
	"handbook",
	"policy",
	"procedure",
	"north_docs",
	"knowledge base",
}

// questionSignals mark interrogative or instructional phrasing that tends
// to benefit from retrieval.
var questionSignals = []string{
	"how do i",
	"how to",
	"what is",
	"where is",
	"explain",
	"?",
}

// IsTicketRequest reports whether the lower-cased message asks to file a
// ticket. Detection is separate from execution; this never side-effects.
func IsTicketRequest(lower string) bool {
	for _, trigger := range ticketTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// ExtractQuotedTitle returns the first double-quoted span of msg, trimmed.
// Only the first quoted span is considered; additional quote characters are
// ignored. The second return is false when no complete span exists.
func ExtractQuotedTitle(msg string) (string, bool) {
	first := strings.IndexByte(msg, '"')
	if first < 0 {
		return "", false
	}
	second := strings.IndexByte(msg[first+1:], '"')
	if second < 0 {
		return "", false
	}
	return strings.TrimSpace(msg[first+1 : first+1+second]), true
}

// ShouldAttemptRAG decides whether retrieval is worth attempting for the
// lower-cased, trimmed message. Rules apply in precedence order; the first
// match decides. Cheap lexical signals triage retrieval cost: short social
// messages never pay for a similarity search, explicit or interrogative
// phrasing and long messages are assumed information-seeking.
func ShouldAttemptRAG(lower string) bool {
	msg := strings.TrimSpace(lower)
	if msg == "" {
		return false
	}

	// Obvious small talk / pleasantries. Length-gated: a long message
	// containing "thanks" is not short-circuited here.
	if len(msg) <= 20 {
		if smallTalk[msg] || strings.HasPrefix(msg, "thanks") || strings.HasPrefix(msg, "thank you") {
			return false
		}
	}

	for _, signal := range docsSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}

	for _, signal := range questionSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}

	// Longer messages: try RAG first, fall back if it refuses.
	return len(msg) >= 60
}
