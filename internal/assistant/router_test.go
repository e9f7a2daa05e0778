package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"northdesk/internal/llm"
	"northdesk/internal/rag"
)

// fakeCompleter records every completion request and replays canned answers
// in order, repeating the last one when exhausted.
type fakeCompleter struct {
	requests []llm.Request
	answers  []string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", nil
	}
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return answer, nil
}

type fakeSearcher struct {
	calls    int
	passages []rag.Passage
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]rag.Passage, error) {
	f.calls++
	return f.passages, f.err
}

type fakeTickets struct {
	calls  int
	titles []string
	bodies []string
	err    error
}

func (f *fakeTickets) CreateTicket(_ context.Context, title, body string) (string, error) {
	f.calls++
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return "", f.err
	}
	return "TCK-1001", nil
}

func docPassages() []rag.Passage {
	return []rag.Passage{
		{
			Text:     "VPN access is requested through the IT portal under Remote Access.",
			Metadata: map[string]string{"source": "it-handbook.md"},
		},
		{
			Text:     "Approvals for remote access take one business day.",
			Metadata: map[string]string{"source": "it-handbook.md"},
		},
	}
}

func newTestRouter(cfg Config, c Completer, s PassageSearcher, tk TicketTool) *Router {
	return NewRouter(cfg, c, s, tk, nil)
}

func TestAssistTicketRoute(t *testing.T) {
	completer := &fakeCompleter{}
	searcher := &fakeSearcher{}
	tickets := &fakeTickets{}
	router := newTestRouter(Config{}, completer, searcher, tickets)

	resp, err := router.Assist(context.Background(), `Please OPEN A TICKET "VPN not working" as soon as possible`)
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteTool {
		t.Fatalf("route = %q, want %q", resp.Route, RouteTool)
	}
	if resp.TicketID != "TCK-1001" {
		t.Fatalf("ticket id = %q", resp.TicketID)
	}
	if resp.TicketTitle != "VPN not working" {
		t.Fatalf("ticket title = %q", resp.TicketTitle)
	}
	if !strings.Contains(resp.Answer, "TCK-1001") || !strings.Contains(resp.Answer, "VPN not working") {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if tickets.bodies[0] != `Please OPEN A TICKET "VPN not working" as soon as possible` {
		t.Fatalf("ticket body = %q", tickets.bodies[0])
	}
	if len(completer.requests) != 0 {
		t.Fatalf("ticket route made %d completion calls", len(completer.requests))
	}
	if searcher.calls != 0 {
		t.Fatalf("ticket route performed retrieval")
	}
}

func TestAssistTicketDefaultTitle(t *testing.T) {
	tickets := &fakeTickets{}
	router := newTestRouter(Config{}, &fakeCompleter{}, &fakeSearcher{}, tickets)

	resp, err := router.Assist(context.Background(), "create ticket my laptop screen is cracked")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.TicketTitle != DefaultTicketTitle {
		t.Fatalf("title = %q, want %q", resp.TicketTitle, DefaultTicketTitle)
	}
}

func TestAssistTicketErrorDoesNotFallBack(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"should not be used"}}
	tickets := &fakeTickets{err: errors.New("ticket backend down")}
	router := newTestRouter(Config{}, completer, &fakeSearcher{}, tickets)

	_, err := router.Assist(context.Background(), "please create ticket for me")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "ticket backend down") {
		t.Fatalf("error = %v", err)
	}
	if len(completer.requests) != 0 {
		t.Fatal("ticket failure must not degrade to chat")
	}
}

func TestAssistSmallTalkSkipsRetrieval(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"Hello! How can I help?"}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat {
		t.Fatalf("route = %q, want %q", resp.Route, RouteChat)
	}
	if searcher.calls != 0 {
		t.Fatal("small talk must not trigger retrieval")
	}
	if len(completer.requests) != 1 {
		t.Fatalf("completion calls = %d, want 1", len(completer.requests))
	}
	if resp.Citations == nil || len(resp.Citations) != 0 {
		t.Fatalf("citations = %v, want empty", resp.Citations)
	}
}

func TestAssistRagRoute(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"Request VPN access through the IT portal."}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "how do i get vpn access")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteRag {
		t.Fatalf("route = %q, want %q", resp.Route, RouteRag)
	}
	if resp.Answer != "Request VPN access through the IT portal." {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0] != "it-handbook.md" {
		t.Fatalf("citations = %v", resp.Citations)
	}
	if searcher.calls != 1 {
		t.Fatalf("retrieval calls = %d, want 1", searcher.calls)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("completion calls = %d, want 1", len(completer.requests))
	}
	req := completer.requests[0]
	if !strings.Contains(req.System, "ONLY the provided context") {
		t.Fatalf("system prompt = %q", req.System)
	}
	if !strings.Contains(req.User, "- VPN access is requested") {
		t.Fatalf("user prompt missing context: %q", req.User)
	}
}

func TestAssistLongMessageAttemptsRetrieval(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"Grounded answer about the policy."}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	long := strings.Repeat("my vpn connection keeps dropping every few minutes ", 2)
	resp, err := router.Assist(context.Background(), long)
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteRag {
		t.Fatalf("route = %q, want %q", resp.Route, RouteRag)
	}
	if searcher.calls != 1 {
		t.Fatalf("retrieval calls = %d", searcher.calls)
	}
}

func TestAssistFallsBackOnNoPassages(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"General answer."}}
	searcher := &fakeSearcher{}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "how do i configure the office espresso machine")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat {
		t.Fatalf("route = %q, want %q", resp.Route, RouteChat)
	}
	// Only the fallback completion; no RAG completion without context.
	if len(completer.requests) != 1 {
		t.Fatalf("completion calls = %d, want 1", len(completer.requests))
	}
}

func TestAssistFallsBackOnThinContext(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"General answer."}}
	searcher := &fakeSearcher{passages: []rag.Passage{
		{Text: "ok", Metadata: map[string]string{"source": "stub.md"}},
	}}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "how do i reset my badge")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat {
		t.Fatalf("route = %q, want %q", resp.Route, RouteChat)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("completion calls = %d, want 1", len(completer.requests))
	}
}

func TestAssistFallsBackOnRefusal(t *testing.T) {
	completer := &fakeCompleter{answers: []string{
		RefusalSentence,
		"From general knowledge: try the vendor's support page.",
	}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "how do i tune the database connection pool")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat {
		t.Fatalf("route = %q, want %q", resp.Route, RouteChat)
	}
	if resp.Answer != "From general knowledge: try the vendor's support page." {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("citations = %v, want none after fallback", resp.Citations)
	}
	// Refusal costs exactly one extra completion: RAG then chat.
	if len(completer.requests) != 2 {
		t.Fatalf("completion calls = %d, want 2", len(completer.requests))
	}
	if !strings.Contains(completer.requests[0].System, "ONLY the provided context") {
		t.Fatalf("first call should be the grounded prompt: %q", completer.requests[0].System)
	}
	if completer.requests[1].System != chatSystemPrompt {
		t.Fatalf("second call should be plain chat: %q", completer.requests[1].System)
	}
}

func TestAssistBlankAnswerCountsAsRefusal(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"   ", "Fallback answer."}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "what is the travel reimbursement limit")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat || resp.Answer != "Fallback answer." {
		t.Fatalf("resp = %+v", resp)
	}
	if len(completer.requests) != 2 {
		t.Fatalf("completion calls = %d, want 2", len(completer.requests))
	}
}

func TestAssistRetrievalErrorPropagates(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"should not be reached"}}
	searcher := &fakeSearcher{err: errors.New("vector store unavailable")}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	_, err := router.Assist(context.Background(), "how do i get vpn access")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "vector store unavailable") {
		t.Fatalf("error = %v", err)
	}
	if len(completer.requests) != 0 {
		t.Fatal("retrieval failure must not degrade to chat")
	}
}

func TestAssistCompletionErrorPropagates(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model offline")}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	_, err := router.Assist(context.Background(), "how do i get vpn access")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("error = %v", err)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("completion calls = %d, want 1", len(completer.requests))
	}
}

func TestAssistIsDeterministic(t *testing.T) {
	message := "how do i get vpn access"
	for i := 0; i < 3; i++ {
		completer := &fakeCompleter{answers: []string{"Request VPN access through the IT portal."}}
		searcher := &fakeSearcher{passages: docPassages()}
		router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

		resp, err := router.Assist(context.Background(), message)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if resp.Route != RouteRag {
			t.Fatalf("run %d: route = %q", i, resp.Route)
		}
	}
}

func TestAskBypassesRouting(t *testing.T) {
	completer := &fakeCompleter{answers: []string{RefusalSentence}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{}, completer, searcher, &fakeTickets{})

	// Ask surfaces the raw model answer, refusal or not.
	answer, err := router.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != RefusalSentence {
		t.Fatalf("answer = %q", answer.Text)
	}
	if len(answer.Citations) != 1 || answer.Citations[0] != "it-handbook.md" {
		t.Fatalf("citations = %v", answer.Citations)
	}
	if searcher.calls != 1 {
		t.Fatalf("retrieval calls = %d", searcher.calls)
	}
}

func TestChat(t *testing.T) {
	completer := &fakeCompleter{answers: []string{"Hi there."}}
	router := newTestRouter(Config{}, completer, &fakeSearcher{}, &fakeTickets{})

	answer, err := router.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "Hi there." {
		t.Fatalf("answer = %q", answer)
	}
	if completer.requests[0].System != chatSystemPrompt {
		t.Fatalf("system prompt = %q", completer.requests[0].System)
	}
}

func TestCustomRefusalPhrases(t *testing.T) {
	completer := &fakeCompleter{answers: []string{
		"The provided material does not cover this.",
		"Fallback.",
	}}
	searcher := &fakeSearcher{passages: docPassages()}
	router := newTestRouter(Config{
		RefusalPhrases: []string{"does not cover"},
	}, completer, searcher, &fakeTickets{})

	resp, err := router.Assist(context.Background(), "how do i get vpn access")
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if resp.Route != RouteChat {
		t.Fatalf("route = %q, want fallback on custom refusal", resp.Route)
	}
}
