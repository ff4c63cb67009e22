// Package index provides the candidate index: an approximate search index
// over fingerprint segments.
//
// The index treats a fingerprint code string as a bag of hash tokens and
// scores stored segments by how many query hashes they share (the
// "approximate score"). It is the recall stage of matching — cheap and
// permissive — and the matcher re-scores its candidates exactly before
// classifying the result.
//
// Additions are buffered and become searchable only after [Index.Commit],
// mirroring the commit discipline of server-side search indexes. Batch
// ingestion exploits this by committing once at the end of a batch.
//
// The package ships an embedded in-memory implementation ([Memory]) with
// optional snapshot persistence. For distributed deployment, swap in a
// client that talks to a remote search service implementing the same
// contract.
package index

import (
	"context"
	"errors"
	"strconv"

	"github.com/tonehive/fpmatch/pkg/track"
)

// ErrUnavailable wraps transport or engine failures so callers can
// distinguish them from empty results. The engine never retries; retry
// policy belongs to the orchestration layer.
var ErrUnavailable = errors.New("index: unavailable")

// Candidate is one approximate search result.
type Candidate struct {
	// SegmentID is the id of the matched segment ("{track_id}-{n}").
	SegmentID string

	// Score is the approximate score: the number of query hash
	// occurrences found in the segment.
	Score int
}

// Index is the candidate-index contract.
//
// All implementations must be safe for concurrent use.
type Index interface {
	// Query searches for segments sharing hash tokens with the code
	// string, ordered by descending score (ties broken by descending
	// segment id), at most maxRows results.
	Query(ctx context.Context, code string, maxRows int) ([]Candidate, error)

	// AddMany buffers segment documents for indexing. Buffered documents
	// are invisible to Query and Lookup until Commit. A document with an
	// id already present replaces the stored one at commit time.
	AddMany(ctx context.Context, segments []track.Segment) error

	// Lookup returns the stored document for a segment id, or nil if the
	// id is unknown.
	Lookup(ctx context.Context, segmentID string) (*track.Segment, error)

	// DeleteByPrefix removes every segment of the given track
	// ("{trackID}-*"), both committed and buffered. Takes effect
	// immediately.
	DeleteByPrefix(ctx context.Context, trackID string) error

	// DeleteAll removes every document, committed and buffered.
	DeleteAll(ctx context.Context) error

	// SegmentIDs returns the ids of all committed documents. A
	// maintenance operation used by the reconciliation pass, not by the
	// query path.
	SegmentIDs(ctx context.Context) ([]string, error)

	// Commit makes all buffered documents searchable.
	Commit(ctx context.Context) error

	// Close releases resources held by the index.
	Close() error
}

// Metadata returns the stored fields for a track, read from its first
// segment ("{trackID}-0"). An unknown track yields an empty map.
func Metadata(ctx context.Context, idx Index, trackID string) (map[string]string, error) {
	if trackID == "" {
		return map[string]string{}, nil
	}
	seg, err := idx.Lookup(ctx, track.SegmentID(trackID, 0))
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return map[string]string{}, nil
	}
	return segmentFields(seg), nil
}

// segmentFields flattens a stored segment document into the wire-facing
// field mapping.
func segmentFields(seg *track.Segment) map[string]string {
	fields := map[string]string{
		"track_id": seg.ID,
		"codever":  seg.CodeVersion,
	}
	if seg.Length > 0 {
		fields["length"] = strconv.Itoa(seg.Length)
	}
	for k, v := range map[string]string{
		"artist":      seg.Artist,
		"release":     seg.Release,
		"track":       seg.Title,
		"source":      seg.Source,
		"import_date": seg.ImportDate,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
