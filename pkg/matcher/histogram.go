package matcher

import (
	"github.com/tonehive/fpmatch/pkg/fpcode"
)

// histogramScore computes the exact score of a candidate fingerprint
// against a query.
//
// Query timestamps are normalized so the query starts at zero, then
// inverted into hashcode → occurrence times (integer-divided by slop to
// tolerate timing jitter). Walking the candidate's pairs in order, every
// hashcode shared with the query contributes one count to a histogram
// bucket keyed by the smallest time offset to any query occurrence of that
// hashcode. The score is the sum of the two largest buckets: a true
// alignment concentrates matches at one or two consistent offsets, while
// coincidental hash collisions spread across many.
//
// A candidate with fewer than elbow pairs scores zero outright.
func histogramScore(query, candidate fpcode.Code, slop, elbow int) int {
	if len(candidate) < elbow {
		return 0
	}
	if slop <= 0 {
		slop = 1
	}

	// Invert the normalized query: hashcode → occurrence times.
	occurrences := make(map[uint32][]int, len(query))
	for _, p := range query.Normalized() {
		occurrences[p.Hash] = append(occurrences[p.Hash], int(p.Time)/slop)
	}

	// Walk the candidate, accumulating the offset histogram.
	// Candidate timestamps are not normalized and sit at or above the
	// normalized query times, so the signed distance is the distance.
	histogram := make(map[int]int)
	for _, p := range candidate {
		times, ok := occurrences[p.Hash]
		if !ok {
			continue
		}
		ct := int(p.Time) / slop
		best := ct - times[0]
		for _, qt := range times[1:] {
			if d := ct - qt; d < best {
				best = d
			}
		}
		histogram[best]++
	}

	// Sum of the two highest bucket counts.
	top, second := 0, 0
	for _, count := range histogram {
		switch {
		case count > top:
			top, second = count, top
		case count > second:
			second = count
		}
	}
	return top + second
}
