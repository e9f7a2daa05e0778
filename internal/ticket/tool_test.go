package ticket

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryToolSequentialIDs(t *testing.T) {
	tool := NewMemoryTool()
	ctx := context.Background()

	first, err := tool.CreateTicket(ctx, "VPN not working", "create ticket \"VPN not working\"")
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	second, err := tool.CreateTicket(ctx, "Laptop replacement", "need a new laptop")
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct ids, got %s twice", first)
	}
	if first != "TCK-1001" || second != "TCK-1002" {
		t.Fatalf("unexpected ids: %s, %s", first, second)
	}

	tickets := tool.Tickets()
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].Title != "VPN not working" {
		t.Fatalf("unexpected title: %s", tickets[0].Title)
	}
}

func TestMemoryToolRejectsBlankTitle(t *testing.T) {
	tool := NewMemoryTool()
	if _, err := tool.CreateTicket(context.Background(), "   ", "body"); err == nil {
		t.Fatalf("expected error for blank title")
	}
}

func TestMemoryToolConcurrentCreates(t *testing.T) {
	tool := NewMemoryTool()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := tool.CreateTicket(ctx, "concurrent", "body")
			if err != nil {
				t.Errorf("create ticket: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ticket id: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d ids, got %d", n, len(seen))
	}
}
