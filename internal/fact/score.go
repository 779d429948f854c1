package fact

import "sort"

// Relevance blends raw similarity with trust and urgency. Pure
// post-processing: confidence discounts but never zeroes out a match
// (similarity already reflects topical fit), priority boosts it.
const (
	confidenceFloor = 0.7
	confidenceSpan  = 0.3

	boostCritical = 1.3
	boostHigh     = 1.15

	// KeywordScore is the flat similarity assigned by the keyword
	// fallback. The fixed non-semantic value lets callers detect
	// degraded-mode results without a separate flag.
	KeywordScore = 0.5
)

// confidenceMultiplier maps confidence to [0.7, 1.0]; absent confidence
// is neutral.
func confidenceMultiplier(confidence *float64) float64 {
	if confidence == nil {
		return 1.0
	}
	return confidenceFloor + confidenceSpan*(*confidence)
}

// priorityMultiplier boosts critical and high priority facts.
func priorityMultiplier(p Priority) float64 {
	switch p {
	case PriorityCritical:
		return boostCritical
	case PriorityHigh:
		return boostHigh
	default:
		return 1.0
	}
}

// Score computes the final relevance of a single result.
func Score(similarity float64, confidence *float64, priority Priority) float64 {
	return similarity * confidenceMultiplier(confidence) * priorityMultiplier(priority)
}

// Rank fills in Relevance for each result and reorders descending.
// The sort is stable: ties keep the original similarity order.
func Rank(results []SearchResult) {
	for i := range results {
		results[i].Relevance = Score(results[i].Similarity, results[i].Fact.Confidence, results[i].Fact.Priority)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
}
