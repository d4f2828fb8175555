package match

import "sort"

// DefaultMinSimilarity is the score below which a name is not suggested.
const DefaultMinSimilarity = 0.5

// Suggest returns up to limit names from known that look like name, best first.
// Ties keep the order of known.
func Suggest(name string, known []string, limit int) []string {
	type scored struct {
		name  string
		score float64
	}

	var candidates []scored

	for _, k := range known {
		if k == name {
			continue
		}

		score := Similarity(name, k)
		if score < DefaultMinSimilarity {
			continue
		}

		candidates = append(candidates, scored{name: k, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}

	return out
}
