package record_test

import (
	"testing"
	"time"

	"github.com/artpar/llmgate/domain/record"
)

func TestTokenCount(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \t\n", 0},
		{"single word", "hello", 1},
		{"simple sentence", "what is the capital of France", 6},
		{"extra whitespace", "  a\tb\n c  ", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := record.TokenCount(tt.prompt); got != tt.want {
				t.Errorf("TokenCount(%q) = %d, want %d", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestTokenCount_Deterministic(t *testing.T) {
	prompt := "the same prompt every time"
	first := record.TokenCount(prompt)
	for i := 0; i < 10; i++ {
		if got := record.TokenCount(prompt); got != first {
			t.Fatalf("TokenCount not reproducible: %d != %d", got, first)
		}
	}
}

func TestNew(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	r := record.New("acme", "hello world", "llama3", 0.25, 2, at)

	if r.ClientID != "acme" {
		t.Errorf("ClientID = %q, want acme", r.ClientID)
	}
	if r.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp not normalized to UTC: %v", r.Timestamp)
	}
	if r.ID != 0 {
		t.Errorf("ID = %d, want 0 before append", r.ID)
	}
}

func TestNew_BlankClientIsAnonymous(t *testing.T) {
	for _, id := range []string{"", "   ", "\t"} {
		r := record.New(id, "p", "m", 0, 0, time.Now())
		if r.ClientID != record.AnonymousClient {
			t.Errorf("New(%q) ClientID = %q, want %q", id, r.ClientID, record.AnonymousClient)
		}
	}
}

func TestNew_ClampsNegatives(t *testing.T) {
	r := record.New("c", "p", "m", -1.5, -3, time.Now())
	if r.LatencySeconds != 0 {
		t.Errorf("LatencySeconds = %f, want 0", r.LatencySeconds)
	}
	if r.Tokens != 0 {
		t.Errorf("Tokens = %d, want 0", r.Tokens)
	}
}
