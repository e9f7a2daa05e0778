package assistant

import (
	"context"

	"northdesk/internal/llm"
	"northdesk/internal/rag"
)

// Route identifies the handling path chosen for a request.
type Route string

const (
	RouteTool Route = "tool"
	RouteRag  Route = "rag"
	RouteChat Route = "chat"
)

// Response is the routed answer returned to the caller. Citations are
// populated only for RouteRag; the ticket fields only for RouteTool.
type Response struct {
	Route       Route    `json:"route"`
	Answer      string   `json:"answer"`
	Citations   []string `json:"citations"`
	TicketID    string   `json:"ticketId,omitempty"`
	TicketTitle string   `json:"ticketTitle,omitempty"`
}

// RagAnswer is a usable retrieval-grounded answer. The router represents
// "retrieval produced nothing worth surfacing" as a nil *RagAnswer.
type RagAnswer struct {
	Text      string   `json:"answer"`
	Citations []string `json:"citations"`
}

// Completer generates a chat completion from a system instruction and user
// content. Satisfied by llm.Client.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// PassageSearcher returns passages ranked by descending similarity to the
// query. Satisfied by *rag.Retriever.
type PassageSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]rag.Passage, error)
}

// TicketTool files a support ticket and returns its identifier. Satisfied by
// ticket.Tool implementations.
type TicketTool interface {
	CreateTicket(ctx context.Context, title, body string) (string, error)
}
