// Package matcher implements the ranking and classification stage of
// fingerprint matching.
//
// A query runs through a fixed pipeline: decode and length-gate the code,
// recall candidates from the approximate index, re-score them exactly
// against the stored codes, deduplicate by parent track, and classify the
// survivors into one of the wire-stable [Outcome] codes. The matcher holds
// no mutable state; concurrent queries are safe and bounded to two backend
// round trips each.
package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tonehive/fpmatch/pkg/fpcode"
	"github.com/tonehive/fpmatch/pkg/index"
	"github.com/tonehive/fpmatch/pkg/store"
	"github.com/tonehive/fpmatch/pkg/track"
)

// Defaults for [Config].
const (
	// DefaultElbow is the minimum pair count below which a query is too
	// short to trust.
	DefaultElbow = 10

	// DefaultSlop is the integer-division granularity applied to
	// timestamps before histogram bucketing.
	DefaultSlop = 2

	// DefaultMaxRows bounds the approximate candidate set.
	DefaultMaxRows = 30
)

// matchWindowSeconds bounds the scored portion of a query to one segment
// window; longer queries cannot match better, only slower.
const matchWindowSeconds = track.SegmentSeconds

// Config configures a [Matcher].
type Config struct {
	// Index is the approximate candidate index. Required.
	Index index.Index

	// Store is the exact fingerprint store. Required.
	Store store.Store

	// Elbow is the minimum query pair count. Default [DefaultElbow].
	Elbow int

	// Slop is the histogram time granularity. Default [DefaultSlop].
	Slop int

	// MaxRows caps the candidate set. Default [DefaultMaxRows].
	MaxRows int

	// Logger receives per-query decision logging. Default slog.Default().
	Logger *slog.Logger
}

// Matcher classifies query fingerprints against the index and store.
// It is stateless and safe for concurrent use.
type Matcher struct {
	idx     index.Index
	store   store.Store
	elbow   int
	slop    int
	maxRows int
	log     *slog.Logger
}

// New creates a Matcher, applying defaults for unset tuning fields.
func New(cfg Config) (*Matcher, error) {
	if cfg.Index == nil {
		return nil, errors.New("matcher: Config.Index is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("matcher: Config.Store is required")
	}
	m := &Matcher{
		idx:     cfg.Index,
		store:   cfg.Store,
		elbow:   cfg.Elbow,
		slop:    cfg.Slop,
		maxRows: cfg.MaxRows,
		log:     cfg.Logger,
	}
	if m.elbow <= 0 {
		m.elbow = DefaultElbow
	}
	if m.slop <= 0 {
		m.slop = DefaultSlop
	}
	if m.maxRows <= 0 {
		m.maxRows = DefaultMaxRows
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m, nil
}

// Response is the classified result of one match query.
type Response struct {
	// Outcome is the classification.
	Outcome Outcome

	// TrackID is the canonical matched track id (segment suffix
	// stripped). Empty unless Outcome.IsMatch().
	TrackID string

	// Score is the winning candidate's score: approximate for the
	// single-candidate fast path, exact otherwise.
	Score int

	// QueryTime is the latency of the approximate index round trip.
	QueryTime time.Duration

	// TotalTime is the wall time spent in the matcher.
	TotalTime time.Duration

	// Metadata holds the matched track's stored fields. Populated only
	// for match outcomes.
	Metadata map[string]string
}

// Match reports whether the response identifies a track.
func (r *Response) Match() bool {
	return r.Outcome.IsMatch()
}

// Message returns a human-readable summary of the response.
func (r *Response) Message() string {
	switch r.Outcome {
	case NotEnoughCode:
		return "query code length is too small"
	case CannotDecode:
		return "could not decode query code"
	case SingleBadMatch, NoResults, MultipleBadHistogramMatch:
		return "no results found (type " + r.Outcome.String() + ")"
	}
	return "OK (match type " + r.Outcome.String() + ")"
}

// MarshalJSON emits the wire shape, with durations in whole milliseconds.
func (r Response) MarshalJSON() ([]byte, error) {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return json.Marshal(struct {
		Outcome     string            `json:"outcome"`
		TrackID     string            `json:"track_id,omitempty"`
		Score       int               `json:"score"`
		QueryTimeMS int64             `json:"query_time_ms"`
		TotalTimeMS int64             `json:"total_time_ms"`
		Metadata    map[string]string `json:"metadata"`
	}{
		Outcome:     r.Outcome.String(),
		TrackID:     r.TrackID,
		Score:       r.Score,
		QueryTimeMS: r.QueryTime.Milliseconds(),
		TotalTimeMS: r.TotalTime.Milliseconds(),
		Metadata:    meta,
	})
}

// scored pairs a candidate with its exact histogram score.
type scored struct {
	segmentID string
	exact     int
	approx    int
}

// BestMatch classifies a query code string.
//
// The code may be in canonical textual form or the compressed transport
// form. Decode failures and weak matches are classifications, not errors;
// an error is returned only when the index or store itself fails.
func (m *Matcher) BestMatch(ctx context.Context, codeString string) (Response, error) {
	tic := time.Now()
	finish := func(r Response) (Response, error) {
		r.TotalTime = time.Since(tic)
		return r, nil
	}

	if fpcode.LooksCompressed(codeString) {
		decoded, err := fpcode.Decode(codeString)
		if err != nil {
			m.log.Warn("could not decode query code", "error", err)
			return finish(Response{Outcome: CannotDecode})
		}
		codeString = decoded
	}

	code, err := fpcode.Parse(codeString)
	if err != nil {
		m.log.Warn("malformed query code", "error", err)
		return finish(Response{Outcome: CannotDecode})
	}

	if len(code) < m.elbow {
		m.log.Warn("query code too short", "pairs", len(code), "elbow", m.elbow)
		return finish(Response{Outcome: NotEnoughCode})
	}

	code = code.Truncate(matchWindowSeconds)
	codeLen := len(code)
	codeText := code.String()

	qtic := time.Now()
	candidates, err := m.idx.Query(ctx, codeText, m.maxRows)
	if err != nil {
		return Response{}, err
	}
	qtime := time.Since(qtic)

	if len(candidates) == 0 {
		return finish(Response{Outcome: NoResults, QueryTime: qtime})
	}

	// Single-candidate fast path: trust the approximate score if it
	// covers nearly the whole query.
	if len(candidates) == 1 {
		top := candidates[0]
		trackID := canonicalTrackID(top.SegmentID)
		if codeLen-top.Score < m.elbow {
			meta, err := index.Metadata(ctx, m.idx, trackID)
			if err != nil {
				return Response{}, err
			}
			return finish(Response{
				Outcome:   SingleGoodMatch,
				TrackID:   trackID,
				Score:     top.Score,
				QueryTime: qtime,
				Metadata:  meta,
			})
		}
		return finish(Response{Outcome: SingleBadMatch, QueryTime: qtime})
	}

	// If even the best approximate score is under 5% of the query, the
	// signal is too weak to be worth re-scoring.
	if float64(candidates[0].Score) < float64(codeLen)*0.05 {
		return finish(Response{Outcome: MultipleBadHistogramMatch, QueryTime: qtime})
	}

	rescored, err := m.rescore(ctx, code, candidates)
	if err != nil {
		return Response{}, err
	}

	// Sort by exact score, then by segment id, both descending, and
	// keep only the best segment per parent track.
	sort.SliceStable(rescored, func(i, j int) bool {
		if rescored[i].exact != rescored[j].exact {
			return rescored[i].exact > rescored[j].exact
		}
		return rescored[i].segmentID > rescored[j].segmentID
	})
	deduped := dedupeByTrack(rescored)

	if len(deduped) == 0 {
		// Every candidate was missing from the exact store.
		m.log.Warn("no candidates could be re-scored", "candidates", len(candidates))
		return finish(Response{Outcome: MultipleBadHistogramMatch, QueryTime: qtime})
	}

	if len(deduped) == 1 {
		top := deduped[0]
		m.log.Debug("single re-scored result",
			"segment", top.segmentID, "exact", top.exact, "approx", top.approx)

		if float64(top.exact) < float64(codeLen)*0.1 {
			return finish(Response{Outcome: SingleBadMatch, QueryTime: qtime})
		}
		if top.exact > top.approx/2 {
			trackID := canonicalTrackID(top.segmentID)
			meta, err := index.Metadata(ctx, m.idx, trackID)
			if err != nil {
				return Response{}, err
			}
			return finish(Response{
				Outcome:   MultipleGoodMatchHistogramDecreased,
				TrackID:   trackID,
				Score:     top.exact,
				QueryTime: qtime,
				Metadata:  meta,
			})
		}
		return finish(Response{Outcome: MultipleBadHistogramMatch, QueryTime: qtime})
	}

	top, second := deduped[0], deduped[1]
	m.log.Debug("re-scored results",
		"top_segment", top.segmentID, "top_exact", top.exact, "top_approx", top.approx,
		"second_segment", second.segmentID, "second_exact", second.exact)

	if float64(top.exact) < float64(codeLen)*0.05 {
		return finish(Response{Outcome: MultipleBadHistogramMatch, QueryTime: qtime})
	}

	// The exact score usually drops below the approximate score; it can
	// still be close enough if the runner-up falls away sharply.
	if top.exact > top.approx/4 && (top.exact-second.exact) >= top.exact/3 {
		trackID := canonicalTrackID(top.segmentID)
		meta, err := index.Metadata(ctx, m.idx, trackID)
		if err != nil {
			return Response{}, err
		}
		return finish(Response{
			Outcome:   MultipleGoodMatchHistogramDecreased,
			TrackID:   trackID,
			Score:     top.exact,
			QueryTime: qtime,
			Metadata:  meta,
		})
	}
	return finish(Response{Outcome: MultipleBadHistogramMatch, QueryTime: qtime})
}

// rescore fetches the candidates' exact codes in one bulk read and
// computes their histogram scores. Candidates missing from the store are
// skipped.
func (m *Matcher) rescore(ctx context.Context, query fpcode.Code, candidates []index.Candidate) ([]scored, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SegmentID
	}

	codes, err := m.store.MultiGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	rescored := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if codes[i] == nil {
			// The index returned a segment the store does not hold.
			m.log.Warn("candidate missing from exact store", "segment", c.SegmentID)
			continue
		}
		candidate, err := fpcode.Parse(string(codes[i]))
		if err != nil {
			m.log.Warn("stored code unparseable", "segment", c.SegmentID, "error", err)
			continue
		}
		rescored = append(rescored, scored{
			segmentID: c.SegmentID,
			exact:     histogramScore(query, candidate, m.slop, m.elbow),
			approx:    c.Score,
		})
	}
	return rescored, nil
}

// dedupeByTrack keeps only the first (best-ranked) segment per parent
// track, preserving order.
func dedupeByTrack(candidates []scored) []scored {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		trackID := canonicalTrackID(c.segmentID)
		if _, dup := seen[trackID]; dup {
			continue
		}
		seen[trackID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// canonicalTrackID strips the segment suffix from a segment id.
// Works even when the id carries no suffix.
func canonicalTrackID(segmentID string) string {
	id, _, _ := strings.Cut(segmentID, "-")
	return id
}
