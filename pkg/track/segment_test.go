package track_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tonehive/fpmatch/pkg/fpcode"
	"github.com/tonehive/fpmatch/pkg/track"
)

// buildFP builds a fingerprint with one pair every `step` time units up to
// `last`, hash i for the i-th pair.
func buildFP(step, last uint32) string {
	var parts []string
	i := uint32(0)
	for ts := uint32(0); ts <= last; ts += step {
		parts = append(parts, fmt.Sprintf("%d %d", i, ts))
		i++
	}
	return strings.Join(parts, " ")
}

func testTrack(fp string) track.Track {
	return track.Track{
		TrackID:     "TRTEST1",
		FP:          fp,
		Length:      180,
		CodeVersion: "4.12",
		Artist:      "Artist",
		Release:     "Release",
		Title:       "Title",
		Source:      "test",
		ImportDate:  "2026-01-02T03:04:05Z",
	}
}

func TestSplitEmpty(t *testing.T) {
	segs, err := track.Split(testTrack(""))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 0 {
		t.Fatalf("Split(empty) = %d segments, want 0", len(segs))
	}
}

func TestSplitSingleWindow(t *testing.T) {
	// All pairs well inside the first 30 seconds: exactly one segment.
	segs, err := track.Split(testTrack("1 0 2 100 3 200"))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("Split = %d segments, want 1", len(segs))
	}
	if segs[0].ID != "TRTEST1-0" {
		t.Fatalf("segment id = %q, want TRTEST1-0", segs[0].ID)
	}
	if segs[0].FP != "1 0 2 100 3 200" {
		t.Fatalf("segment fp = %q", segs[0].FP)
	}
}

func TestSplitCoverageAndOverlap(t *testing.T) {
	// ~3 minutes of pairs, one every 50 units.
	unitsPerSecond := float64(fpcode.UnitsPerSecond)
	last := uint32(3 * 60 * unitsPerSecond)
	tr := testTrack(buildFP(50, last))
	source, err := fpcode.Parse(tr.FP)
	if err != nil {
		t.Fatal(err)
	}

	segs, err := track.Split(tr)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	half := track.OverlapSeconds * fpcode.UnitsPerSecond
	wantSegs := int(float64(last)/half) + 1
	if len(segs) != wantSegs {
		t.Fatalf("Split = %d segments, want %d", len(segs), wantSegs)
	}

	// Every source pair must appear in at least one segment, and only in
	// segments whose window contains its timestamp.
	seen := make(map[fpcode.Pair]int)
	for i, seg := range segs {
		code, err := fpcode.Parse(seg.FP)
		if err != nil {
			t.Fatalf("segment %d: %v", i, err)
		}
		lo := float64(i) * half
		hi := lo + track.SegmentSeconds*fpcode.UnitsPerSecond
		for _, p := range code {
			if float64(p.Time) < lo || float64(p.Time) >= hi {
				t.Fatalf("segment %d contains pair at t=%d outside [%f, %f)", i, p.Time, lo, hi)
			}
			seen[p]++
		}
	}
	for _, p := range source {
		if seen[p] == 0 {
			t.Fatalf("pair %v missing from all segments", p)
		}
	}

	// Interior pairs land in exactly two segments (30s overlap).
	probe := source[len(source)/2]
	if seen[probe] != 2 {
		t.Fatalf("interior pair %v appears in %d segments, want 2", probe, seen[probe])
	}
}

func TestSplitCopiesMetadata(t *testing.T) {
	unitsPerSecond := float64(fpcode.UnitsPerSecond)
	tr := testTrack(buildFP(50, uint32(100*unitsPerSecond)))
	segs, err := track.Split(tr)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for _, seg := range segs {
		if seg.Length != tr.Length || seg.CodeVersion != tr.CodeVersion {
			t.Fatalf("segment %s missing required fields: %+v", seg.ID, seg)
		}
		if seg.Artist != tr.Artist || seg.Release != tr.Release ||
			seg.Title != tr.Title || seg.Source != tr.Source ||
			seg.ImportDate != tr.ImportDate {
			t.Fatalf("segment %s missing optional metadata: %+v", seg.ID, seg)
		}
	}
}

func TestSplitEmptyWindowStillIndexed(t *testing.T) {
	// Pairs only at the very start and at ~100s: the window in between
	// has no pairs but still produces an (empty) segment under its id.
	unitsPerSecond := float64(fpcode.UnitsPerSecond)
	gap := fmt.Sprintf("1 0 2 %d", uint32(100*unitsPerSecond))
	segs, err := track.Split(testTrack(gap))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("Split = %d segments, want 4", len(segs))
	}
	if segs[1].FP != "" {
		t.Fatalf("segment 1 fp = %q, want empty", segs[1].FP)
	}
	if segs[1].ID != "TRTEST1-1" {
		t.Fatalf("segment 1 id = %q", segs[1].ID)
	}
}

func TestSplitBadFingerprint(t *testing.T) {
	if _, err := track.Split(testTrack("not a code")); err == nil {
		t.Fatal("expected error for malformed fingerprint")
	}
}
