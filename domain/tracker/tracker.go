// Package tracker provides value types and pure statistics functions for
// ephemeral per-client usage accounting.
package tracker

// Entry is one logged invocation for a client (value type).
type Entry struct {
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

// Stats summarizes a client's in-process usage history.
type Stats struct {
	TotalTokens  int     `json:"total_tokens"`
	RequestCount int     `json:"request_count"`
	AvgTokens    float64 `json:"avg_tokens"`
}

// Compute derives stats from an entry sequence. An empty history yields the
// zero value rather than dividing by zero.
func Compute(entries []Entry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}
	total := 0
	for _, e := range entries {
		total += e.Tokens
	}
	return Stats{
		TotalTokens:  total,
		RequestCount: len(entries),
		AvgTokens:    float64(total) / float64(len(entries)),
	}
}
