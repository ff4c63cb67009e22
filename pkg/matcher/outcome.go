package matcher

// Outcome classifies the result of a match query. Outcomes are first-class
// results of the matching state machine, never errors.
//
// The wire strings are stable. Two codes are reserved for compatibility
// with older deployments and are never produced by the current algorithm:
// [MultipleGoodMatchHistogramIncreased] and [MultipleGoodMatch].
type Outcome int

const (
	// NotEnoughCode: the query has fewer pairs than the elbow.
	NotEnoughCode Outcome = iota

	// CannotDecode: the query looked compressed but failed to decode.
	CannotDecode

	// SingleBadMatch: a lone candidate scored too low to trust.
	SingleBadMatch

	// SingleGoodMatch: a lone candidate whose approximate score nearly
	// covers the query.
	SingleGoodMatch

	// NoResults: the index returned no candidates at all.
	NoResults

	// MultipleGoodMatchHistogramIncreased is reserved and unused.
	MultipleGoodMatchHistogramIncreased

	// MultipleGoodMatchHistogramDecreased: the exact histogram re-score
	// confirmed the top candidate despite a lower score than the
	// approximate stage reported.
	MultipleGoodMatchHistogramDecreased

	// MultipleBadHistogramMatch: re-scoring rejected every candidate.
	MultipleBadHistogramMatch

	// MultipleGoodMatch is reserved and unused.
	MultipleGoodMatch
)

var outcomeNames = map[Outcome]string{
	NotEnoughCode:                       "NOT_ENOUGH_CODE",
	CannotDecode:                        "CANNOT_DECODE",
	SingleBadMatch:                      "SINGLE_BAD_MATCH",
	SingleGoodMatch:                     "SINGLE_GOOD_MATCH",
	NoResults:                           "NO_RESULTS",
	MultipleGoodMatchHistogramIncreased: "MULTIPLE_GOOD_MATCH_HISTOGRAM_INCREASED",
	MultipleGoodMatchHistogramDecreased: "MULTIPLE_GOOD_MATCH_HISTOGRAM_DECREASED",
	MultipleBadHistogramMatch:           "MULTIPLE_BAD_HISTOGRAM_MATCH",
	MultipleGoodMatch:                   "MULTIPLE_GOOD_MATCH",
}

// String returns the wire-stable name of the outcome.
func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsMatch reports whether the outcome identifies a track.
func (o Outcome) IsMatch() bool {
	switch o {
	case SingleGoodMatch,
		MultipleGoodMatch,
		MultipleGoodMatchHistogramIncreased,
		MultipleGoodMatchHistogramDecreased:
		return true
	}
	return false
}
