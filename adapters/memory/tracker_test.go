package memory_test

import (
	"sync"
	"testing"

	"github.com/artpar/llmgate/adapters/memory"
)

func TestTrackerStats(t *testing.T) {
	tr := memory.NewTracker()

	tr.Record("acme", "gpt-x", 10)
	tr.Record("acme", "llama3", 20)

	s := tr.Stats("acme")
	if s.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", s.TotalTokens)
	}
	if s.RequestCount != 2 {
		t.Errorf("RequestCount = %d, want 2", s.RequestCount)
	}
	if s.AvgTokens != 15 {
		t.Errorf("AvgTokens = %f, want 15", s.AvgTokens)
	}
}

func TestTrackerUnknownClient(t *testing.T) {
	tr := memory.NewTracker()

	if got := tr.Summary("ghost"); len(got) != 0 {
		t.Errorf("Summary = %v, want empty", got)
	}
	s := tr.Stats("ghost")
	if s.TotalTokens != 0 || s.RequestCount != 0 || s.AvgTokens != 0 {
		t.Errorf("Stats = %+v, want zeros", s)
	}
}

func TestTrackerSummaryOrderAndIsolation(t *testing.T) {
	tr := memory.NewTracker()

	tr.Record("acme", "a", 1)
	tr.Record("acme", "b", 2)

	got := tr.Summary("acme")
	if len(got) != 2 || got[0].Model != "a" || got[1].Model != "b" {
		t.Fatalf("Summary = %v, want insertion order [a b]", got)
	}

	got[0].Tokens = 999
	again := tr.Summary("acme")
	if again[0].Tokens != 1 {
		t.Error("Summary returned shared backing slice")
	}
}

func TestTrackerConcurrentClients(t *testing.T) {
	tr := memory.NewTracker()

	var wg sync.WaitGroup
	clients := []string{"a", "b", "c", "d"}
	for _, c := range clients {
		wg.Add(1)
		go func(clientID string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tr.Record(clientID, "m", 1)
				tr.Stats(clientID)
			}
		}(c)
	}
	wg.Wait()

	for _, c := range clients {
		if s := tr.Stats(c); s.RequestCount != 100 {
			t.Errorf("Stats(%q).RequestCount = %d, want 100", c, s.RequestCount)
		}
	}
}
