package ticket

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tool files support tickets. Implementations must be safe for concurrent
// use; idempotency of creation is the implementation's concern, not the
// caller's.
type Tool interface {
	CreateTicket(ctx context.Context, title, body string) (string, error)
}

// Ticket is one filed ticket.
type Ticket struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
}

// MemoryTool is an in-process ticket sink issuing sequential ids. It stands
// in for a real tracker client (Jira, ServiceNow) behind the same interface.
type MemoryTool struct {
	mu      sync.Mutex
	seq     int
	tickets []Ticket
}

// NewMemoryTool creates an empty in-memory ticket tool.
func NewMemoryTool() *MemoryTool {
	return &MemoryTool{seq: 1000}
}

// CreateTicket files a ticket and returns its id.
func (t *MemoryTool) CreateTicket(_ context.Context, title, body string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("ticket title is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	id := fmt.Sprintf("TCK-%d", t.seq)

	t.tickets = append(t.tickets, Ticket{
		ID:        id,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	})

	return id, nil
}

// Tickets returns a copy of all filed tickets.
func (t *MemoryTool) Tickets() []Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Ticket, len(t.tickets))
	copy(out, t.tickets)
	return out
}
