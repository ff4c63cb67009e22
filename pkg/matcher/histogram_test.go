package matcher

import (
	"testing"

	"github.com/tonehive/fpmatch/pkg/fpcode"
)

func mustParse(t *testing.T, s string) fpcode.Code {
	t.Helper()
	c, err := fpcode.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return c
}

func TestHistogramScoreAlignedOffset(t *testing.T) {
	// Candidate shares all query hashes at one consistent time offset.
	query := mustParse(t, "1 0 2 100 3 200 4 300 5 400 6 500 7 600 8 700 9 800 10 900")
	candidate := mustParse(t, "1 5000 2 5100 3 5200 4 5300 5 5400 6 5500 7 5600 8 5700 9 5800 10 5900")

	if got := histogramScore(query, candidate, 2, 10); got != 10 {
		t.Fatalf("histogramScore = %d, want 10", got)
	}
}

func TestHistogramScoreTopTwoBuckets(t *testing.T) {
	// Six hashes at one offset, three at another, one stray. The score is
	// the sum of the two largest buckets, so the stray does not count.
	query := mustParse(t, "1 0 2 100 3 200 4 300 5 400 6 500 7 600 8 700 9 800 10 900")
	candidate := mustParse(t,
		"1 5000 2 5100 3 5200 4 5300 5 5400 6 5500 "+
			"7 8600 8 8700 9 8800 "+
			"10 30900")

	if got := histogramScore(query, candidate, 2, 10); got != 9 {
		t.Fatalf("histogramScore = %d, want 9", got)
	}
}

func TestHistogramScoreScatteredCollisions(t *testing.T) {
	// Same shared hashes but every one at a different offset: each lands
	// in its own bucket and only two singletons count.
	query := mustParse(t, "1 0 2 100 3 200 4 300 5 400 6 500 7 600 8 700 9 800 10 900")
	candidate := mustParse(t,
		"1 5000 2 6100 3 7200 4 8300 5 9400 6 10500 7 11600 8 12700 9 13800 10 14900")

	if got := histogramScore(query, candidate, 2, 10); got != 2 {
		t.Fatalf("histogramScore = %d, want 2", got)
	}
}

func TestHistogramScoreShortCandidate(t *testing.T) {
	// A candidate below the elbow scores zero no matter how well aligned.
	query := mustParse(t, "1 0 2 100 3 200 4 300 5 400 6 500 7 600 8 700 9 800 10 900")
	candidate := mustParse(t, "1 5000 2 5100 3 5200")

	if got := histogramScore(query, candidate, 2, 10); got != 0 {
		t.Fatalf("histogramScore = %d, want 0", got)
	}
}

func TestHistogramScoreNoSharedHashes(t *testing.T) {
	query := mustParse(t, "1 0 2 100 3 200 4 300 5 400 6 500 7 600 8 700 9 800 10 900")
	candidate := mustParse(t,
		"100 0 101 100 102 200 103 300 104 400 105 500 106 600 107 700 108 800 109 900")

	if got := histogramScore(query, candidate, 2, 10); got != 0 {
		t.Fatalf("histogramScore = %d, want 0", got)
	}
}

func TestHistogramScoreRepeatedQueryHash(t *testing.T) {
	// The query contains a hash twice; each candidate occurrence takes the
	// smallest offset to any query occurrence, so the duplicates split
	// across two adjacent buckets and top-two summing still counts both.
	query := mustParse(t, "1 0 1 100 2 200 3 300 4 400 5 500 6 600 7 700 8 800 9 900")
	candidate := mustParse(t,
		"1 5000 1 5100 2 5200 3 5300 4 5400 5 5500 6 5600 7 5700 8 5800 9 5900")

	if got := histogramScore(query, candidate, 2, 10); got != 10 {
		t.Fatalf("histogramScore = %d, want 10", got)
	}
}
