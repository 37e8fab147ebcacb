package usecase

import "strings"

// Similarity scores two strings in [0,1] with the Ratcliff/Obershelp ratio 2*M/T, where M
// is the number of characters in matching blocks and T the combined length.
// Comparison is case-insensitive and ignores surrounding whitespace. Empty input scores 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	// Block selection breaks ties by position, so score the pair in a fixed order
	// to keep the ratio symmetric.
	if b < a {
		a, b = b, a
	}

	ra := []rune(a)
	rb := []rune(b)
	return 2.0 * float64(matchingCharacters(ra, rb)) / float64(len(ra)+len(rb))
}

type blockSpan struct {
	alo, ahi, blo, bhi int
}

// matchingCharacters sums the lengths of the matching blocks found by taking the longest
// common substring and recursing on the unmatched remainders to its left and right.
func matchingCharacters(a, b []rune) int {
	matched := 0
	stack := []blockSpan{{0, len(a), 0, len(b)}}

	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, k := longestMatch(a, b, span)
		if k == 0 {
			continue
		}
		matched += k

		if span.alo < i && span.blo < j {
			stack = append(stack, blockSpan{span.alo, i, span.blo, j})
		}
		if i+k < span.ahi && j+k < span.bhi {
			stack = append(stack, blockSpan{i + k, span.ahi, j + k, span.bhi})
		}
	}

	return matched
}

// longestMatch finds the longest common substring of a[alo:ahi] and b[blo:bhi].
// Ties resolve to the earliest start in a, then in b.
func longestMatch(a, b []rune, span blockSpan) (besti, bestj, bestk int) {
	besti, bestj = span.alo, span.blo

	width := span.bhi - span.blo + 1
	prev := make([]int, width)
	curr := make([]int, width)

	for i := span.alo; i < span.ahi; i++ {
		for j := span.blo; j < span.bhi; j++ {
			col := j - span.blo + 1
			if a[i] != b[j] {
				curr[col] = 0
				continue
			}
			curr[col] = prev[col-1] + 1
			if curr[col] > bestk {
				bestk = curr[col]
				besti = i - bestk + 1
				bestj = j - bestk + 1
			}
		}
		prev, curr = curr, prev
	}

	return besti, bestj, bestk
}
