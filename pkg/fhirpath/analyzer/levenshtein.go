package analyzer

// levenshtein computes the edit distance between a and b using the
// standard two-row dynamic-programming recurrence.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// similarity converts an edit distance between a and b into a 0..1
// score (1 = identical), normalized by the longer string's length.
func similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// suggestNames ranks candidates by similarity to name, keeping only
// those within maxDistance edits and at least minScore similar, and
// returns up to limit of them, best first.
func suggestNames(name string, candidates []string, maxDistance int, minScore float64, limit int) []string {
	type scored struct {
		name  string
		score float64
	}
	var ranked []scored
	for _, c := range candidates {
		if levenshtein(name, c) > maxDistance {
			continue
		}
		s := similarity(name, c)
		if s < minScore {
			continue
		}
		ranked = append(ranked, scored{c, s})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}
