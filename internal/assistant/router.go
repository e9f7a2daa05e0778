package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"northdesk/internal/llm"
	"northdesk/internal/observability"
)

const chatSystemPrompt = "You are a helpful assistant. Keep answers concise."

// DefaultTicketTitle is used when a ticket request carries no quoted title.
const DefaultTicketTitle = "User Request"

// Config tunes the routing heuristics.
type Config struct {
	// TopK is the retrieval depth for the RAG path. Default 5.
	TopK int `yaml:"top_k"`

	// MinContextChars is the minimum trimmed context length considered
	// usable. Default 40.
	MinContextChars int `yaml:"min_context_chars"`

	// RefusalPhrases override DefaultRefusalPhrases when non-empty.
	RefusalPhrases []string `yaml:"refusal_phrases"`

	// LLMProvider labels completion telemetry; it does not select a client.
	LLMProvider string `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MinContextChars <= 0 {
		c.MinContextChars = 40
	}
	if len(c.RefusalPhrases) == 0 {
		c.RefusalPhrases = DefaultRefusalPhrases
	}
	if c.LLMProvider == "" {
		c.LLMProvider = "ollama"
	}
	return c
}

// Router decides, per request, how to satisfy a message: invoke the ticket
// tool, answer from retrieved documents, or answer from the model alone.
// It holds no mutable state across requests; its collaborators must be safe
// for concurrent use.
type Router struct {
	cfg       Config
	completer Completer
	retriever PassageSearcher
	tickets   TicketTool
	obs       *observability.Observability
	logger    *observability.Logger
}

// NewRouter wires the router to its collaborators.
func NewRouter(cfg Config, completer Completer, retriever PassageSearcher, tickets TicketTool, obs *observability.Observability) *Router {
	if obs == nil {
		obs = observability.Nop()
	}
	return &Router{
		cfg:       cfg.withDefaults(),
		completer: completer,
		retriever: retriever,
		tickets:   tickets,
		obs:       obs,
		logger:    obs.Logger.With("component", "router"),
	}
}

// Assist routes one message. Exactly one terminal path is taken: the ticket
// tool, a retrieval-grounded answer, or plain chat. The tool path never
// falls back; a ticket intent must not silently degrade to conversation.
func (r *Router) Assist(ctx context.Context, message string) (Response, error) {
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)

	if IsTicketRequest(lower) {
		return r.handleTicket(ctx, msg)
	}

	if !ShouldAttemptRAG(lower) {
		return r.directChat(ctx, msg, "chat")
	}

	var answer *RagAnswer
	err := r.obs.Step(ctx, observability.SpanRagFlow, func(ctx context.Context) error {
		var err error
		answer, err = r.ragAnswer(ctx, msg)
		return err
	})
	if err != nil {
		return Response{}, err
	}

	if answer == nil {
		// No docs, thin context, or the model refused: fall back to chat.
		return r.directChat(ctx, msg, "chat_fallback")
	}

	r.obs.Metrics.RecordAssistRequest(ctx, string(RouteRag))
	return Response{
		Route:     RouteRag,
		Answer:    answer.Text,
		Citations: answer.Citations,
	}, nil
}

// Ask answers from retrieved documents without routing or refusal
// interception; the raw model answer is returned with its citations.
func (r *Router) Ask(ctx context.Context, question string) (RagAnswer, error) {
	results, err := r.retriever.Search(ctx, question, r.cfg.TopK)
	if err != nil {
		return RagAnswer{}, fmt.Errorf("retrieve passages: %w", err)
	}

	answer, err := r.complete(ctx, "rag", llm.Request{
		System: ragSystemPrompt,
		User:   fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", buildContext(results), question),
	})
	if err != nil {
		return RagAnswer{}, err
	}

	return RagAnswer{Text: answer, Citations: citations(results)}, nil
}

// Chat answers from the model alone with the generic assistant instruction.
func (r *Router) Chat(ctx context.Context, message string) (string, error) {
	return r.complete(ctx, "chat", llm.Request{
		System: chatSystemPrompt,
		User:   message,
	})
}

func (r *Router) handleTicket(ctx context.Context, msg string) (Response, error) {
	title, ok := ExtractQuotedTitle(msg)
	if !ok || title == "" {
		title = DefaultTicketTitle
	}

	var ticketID string
	err := r.obs.Step(ctx, observability.SpanTicketCreate, func(ctx context.Context) error {
		var err error
		// The full original message is the ticket body.
		ticketID, err = r.tickets.CreateTicket(ctx, title, msg)
		return err
	}, attribute.String("tool", "ticket"))
	if err != nil {
		return Response{}, fmt.Errorf("create ticket: %w", err)
	}

	r.obs.Metrics.RecordTicketCreated(ctx)
	r.obs.Metrics.RecordAssistRequest(ctx, string(RouteTool))
	r.logger.InfoContext(ctx, "ticket created", "ticket_id", ticketID, "title", title)

	return Response{
		Route:       RouteTool,
		Answer:      fmt.Sprintf("Created ticket: %s\nTitle: %s", ticketID, title),
		Citations:   []string{},
		TicketID:    ticketID,
		TicketTitle: title,
	}, nil
}

func (r *Router) directChat(ctx context.Context, msg, mode string) (Response, error) {
	answer, err := r.complete(ctx, mode, llm.Request{
		System: chatSystemPrompt,
		User:   msg,
	})
	if err != nil {
		return Response{}, err
	}

	r.obs.Metrics.RecordAssistRequest(ctx, string(RouteChat))
	return Response{
		Route:     RouteChat,
		Answer:    answer,
		Citations: []string{},
	}, nil
}

// complete wraps one completion call in telemetry without altering its
// result or error.
func (r *Router) complete(ctx context.Context, mode string, req llm.Request) (string, error) {
	var answer string
	start := time.Now()
	err := r.obs.Step(ctx, observability.SpanLLMCall, func(ctx context.Context) error {
		var err error
		answer, err = r.completer.Complete(ctx, req)
		return err
	},
		attribute.String(observability.AttrMode, mode),
		attribute.String(observability.AttrProvider, r.cfg.LLMProvider),
	)

	status := "ok"
	if err != nil {
		status = "error"
	}
	r.obs.Metrics.RecordLLMRequest(ctx, r.cfg.LLMProvider, mode, status, time.Since(start))

	if err != nil {
		return "", fmt.Errorf("llm completion (%s): %w", mode, err)
	}
	return answer, nil
}
