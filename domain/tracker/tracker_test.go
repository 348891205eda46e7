package tracker_test

import (
	"testing"

	"github.com/artpar/llmgate/domain/tracker"
)

func TestCompute(t *testing.T) {
	entries := []tracker.Entry{
		{Model: "gpt-x", Tokens: 10},
		{Model: "llama3", Tokens: 20},
	}

	s := tracker.Compute(entries)

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

func TestCompute_Empty(t *testing.T) {
	s := tracker.Compute(nil)
	if s.TotalTokens != 0 || s.RequestCount != 0 || s.AvgTokens != 0 {
		t.Errorf("Compute(nil) = %+v, want zero value", s)
	}
}

func TestCompute_FractionalAverage(t *testing.T) {
	s := tracker.Compute([]tracker.Entry{{Tokens: 1}, {Tokens: 2}})
	if s.AvgTokens != 1.5 {
		t.Errorf("AvgTokens = %f, want 1.5", s.AvgTokens)
	}
}
