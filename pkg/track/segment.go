package track

import (
	"fmt"

	"github.com/tonehive/fpmatch/pkg/fpcode"
)

// Segmentation parameters. Segments are 60 seconds long and start every
// 30 seconds, so consecutive segments overlap by half a window and a match
// anywhere within one window length is indexable regardless of alignment.
const (
	SegmentSeconds = 60
	OverlapSeconds = 30
)

// Segment is one indexable slice of a track's fingerprint. Segments are
// immutable once stored; re-ingesting the same track overwrites them.
type Segment struct {
	// ID is "{track_id}-{n}" with n counting windows from 0.
	ID string `json:"track_id" msgpack:"track_id"`

	// FP is the fingerprint slice covering this segment's window, in
	// canonical textual form. Empty when the parent fingerprint has no
	// pairs inside the window; the segment is still indexed under its id.
	FP string `json:"fp" msgpack:"fp"`

	Length      int    `json:"length" msgpack:"length"`
	CodeVersion string `json:"codever" msgpack:"codever"`

	Artist     string `json:"artist,omitempty" msgpack:"artist,omitempty"`
	Release    string `json:"release,omitempty" msgpack:"release,omitempty"`
	Title      string `json:"track,omitempty" msgpack:"track,omitempty"`
	Source     string `json:"source,omitempty" msgpack:"source,omitempty"`
	ImportDate string `json:"import_date,omitempty" msgpack:"import_date,omitempty"`
}

// SegmentID formats the id of segment n of a track.
func SegmentID(trackID string, n int) string {
	return fmt.Sprintf("%s-%d", trackID, n)
}

// Split cuts a track's fingerprint into overlapping segments.
//
// Pairs are ordered by ascending timestamp (stable, so same-time pairs keep
// their original order). Segment i covers the half-open window
// [i*half, i*half+full) in time units, where half is 30 seconds and full is
// 60 seconds; the number of segments is floor(last_timestamp/half)+1.
// An empty fingerprint produces zero segments.
func Split(t Track) ([]Segment, error) {
	code, err := fpcode.Parse(t.FP)
	if err != nil {
		return nil, fmt.Errorf("track: split %s: %w", t.TrackID, err)
	}
	if len(code) == 0 {
		return nil, nil
	}

	pairs := code.Sorted()

	half := OverlapSeconds * fpcode.UnitsPerSecond
	full := SegmentSeconds * fpcode.UnitsPerSecond

	last := pairs[len(pairs)-1].Time
	numSegments := int(float64(last)/half) + 1

	segments := make([]Segment, 0, numSegments)
	start := 0
	for i := 0; i < numSegments; i++ {
		lo := float64(i) * half
		hi := lo + full

		// Window starts advance monotonically, so the left cursor
		// never moves backwards across iterations.
		for start < len(pairs) && float64(pairs[start].Time) < lo {
			start++
		}
		end := start
		for end < len(pairs) && float64(pairs[end].Time) < hi {
			end++
		}

		seg := Segment{
			ID:          SegmentID(t.TrackID, i),
			FP:          fpcode.Code(pairs[start:end]).String(),
			Length:      t.Length,
			CodeVersion: t.CodeVersion,
			Artist:      t.Artist,
			Release:     t.Release,
			Title:       t.Title,
			Source:      t.Source,
			ImportDate:  t.ImportDate,
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
