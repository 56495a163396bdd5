package anonymity

import (
	"sort"

	"github.com/inferloop/tabanon/pkg/dataset"
)

// Scorer rates how identifying a column currently is. The attribute with the
// highest score is generalized first. Implementations must be deterministic.
type Scorer interface {
	Score(values []string) float64
}

// DistinctValueScorer scores a column by its number of distinct values, a
// proxy for how many equivalence classes the attribute contributes.
type DistinctValueScorer struct{}

// Score implements Scorer.
func (DistinctValueScorer) Score(values []string) float64 {
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	return float64(len(distinct))
}

// selectAttribute picks the highest-scoring candidate attribute. Ties are
// broken by ascending attribute name so repeated runs make identical
// choices. Returns false when the candidate set is empty.
func (a *Anonymizer) selectAttribute(data *dataset.Dataset, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	ordered := append([]string(nil), candidates...)
	sort.Strings(ordered)

	best := ""
	bestScore := -1.0
	for _, attr := range ordered {
		col, err := data.Column(attr)
		if err != nil {
			continue
		}
		if score := a.scorer.Score(col); score > bestScore {
			best = attr
			bestScore = score
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// removeAttribute drops an attribute from a candidate list, preserving order.
func removeAttribute(candidates []string, attr string) []string {
	remaining := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != attr {
			remaining = append(remaining, c)
		}
	}
	return remaining
}
