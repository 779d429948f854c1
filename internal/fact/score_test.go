package fact

import (
	"math"
	"testing"
)

func TestConfidenceMultiplier(t *testing.T) {
	if got := confidenceMultiplier(nil); got != 1.0 {
		t.Errorf("confidenceMultiplier(nil) = %v, want 1.0", got)
	}

	tests := []struct {
		confidence float64
		want       float64
	}{
		{0, 0.7},
		{0.5, 0.85},
		{1, 1.0},
	}
	for _, tt := range tests {
		c := tt.confidence
		if got := confidenceMultiplier(&c); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("confidenceMultiplier(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	high := 0.8

	tests := []struct {
		name       string
		similarity float64
		confidence *float64
		priority   Priority
		want       float64
	}{
		{"plain", 0.9, nil, PriorityNormal, 0.9},
		{"confidence discount", 0.9, &high, PriorityNormal, 0.9 * (0.7 + 0.3*0.8)},
		{"critical boost", 0.8, nil, PriorityCritical, 0.8 * 1.3},
		{"high boost", 0.8, nil, PriorityHigh, 0.8 * 1.15},
		{"combined", 1.0, &high, PriorityCritical, (0.7 + 0.3*0.8) * 1.3},
		{"low no boost", 0.5, nil, PriorityLow, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.similarity, tt.confidence, tt.priority)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	conf := 1.0
	results := []SearchResult{
		{Fact: &Fact{Priority: PriorityNormal, Confidence: &conf}, Similarity: 0.6},
		{Fact: &Fact{Priority: PriorityCritical, Confidence: &conf}, Similarity: 0.6},
		{Fact: &Fact{Priority: PriorityNormal, Confidence: &conf}, Similarity: 0.9},
	}

	Rank(results)

	// 0.9 plain beats 0.6*1.3 beats 0.6.
	if results[0].Similarity != 0.9 {
		t.Errorf("first result similarity = %v, want 0.9", results[0].Similarity)
	}
	if results[1].Fact.Priority != PriorityCritical {
		t.Errorf("second result priority = %q, want critical", results[1].Fact.Priority)
	}
	for i, r := range results {
		if r.Relevance == 0 {
			t.Errorf("result %d has zero relevance", i)
		}
	}
}

func TestRankStable(t *testing.T) {
	a := &Fact{ID: 1, Priority: PriorityNormal}
	b := &Fact{ID: 2, Priority: PriorityNormal}
	results := []SearchResult{
		{Fact: a, Similarity: 0.5},
		{Fact: b, Similarity: 0.5},
	}

	Rank(results)

	if results[0].Fact.ID != 1 || results[1].Fact.ID != 2 {
		t.Error("equal-relevance results were reordered")
	}
}
