// Package ingest orchestrates writes to the fingerprint database: adding
// tracks, deleting them, erasing everything, and reconciling the candidate
// index with the exact store.
//
// Ingestion cuts each track into overlapping segments, buffers them into
// the candidate index and writes the exact codes to the store in one bulk
// write per track. Index commits are deferred so batch ingestion pays for
// one commit instead of one per track.
//
// The two backends are written without a transaction spanning both, so a
// crash mid-ingest can leave them inconsistent. Failures past the first
// write surface as [*PartialError] and [Pipeline.Repair] restores
// consistency afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonehive/fpmatch/pkg/index"
	"github.com/tonehive/fpmatch/pkg/store"
	"github.com/tonehive/fpmatch/pkg/track"
)

// ErrNotConfirmed is returned by [Pipeline.Erase] when the destructive
// flag is not set.
var ErrNotConfirmed = errors.New("ingest: erase not confirmed")

// PartialError reports a failure that happened after some effects of the
// operation were already applied. The database may be inconsistent until
// [Pipeline.Repair] runs.
type PartialError struct {
	// Stage names the step that failed ("store write", "commit").
	Stage string

	// Err is the underlying failure.
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("ingest: %s failed after partial write: %v", e.Stage, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Config configures a [Pipeline].
type Config struct {
	// Index is the candidate index. Required.
	Index index.Index

	// Store is the exact fingerprint store. Required.
	Store store.Store

	// IDs mints track ids for tracks ingested without one. A fresh
	// generator is created when nil.
	IDs *track.IDGenerator

	// Logger receives ingestion progress logging. Default slog.Default().
	Logger *slog.Logger
}

// Pipeline owns all mutations of the fingerprint database. Safe for
// concurrent use, though concurrent writers share the index commit buffer.
type Pipeline struct {
	idx   index.Index
	store store.Store
	ids   *track.IDGenerator
	log   *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Index == nil {
		return nil, errors.New("ingest: Config.Index is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("ingest: Config.Store is required")
	}
	p := &Pipeline{
		idx:   cfg.Index,
		store: cfg.Store,
		ids:   cfg.IDs,
		log:   cfg.Logger,
	}
	if p.ids == nil {
		p.ids = track.NewIDGenerator()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p, nil
}

// Options controls a single-track ingest.
type Options struct {
	// CheckDuplicates skips the track when its id is already indexed.
	// Only committed documents are visible to the check.
	CheckDuplicates bool

	// Commit commits the index after the track is buffered, making it
	// searchable immediately.
	Commit bool
}

// BatchOptions controls a batch ingest.
type BatchOptions struct {
	// CheckDuplicates skips tracks whose ids are already indexed.
	CheckDuplicates bool

	// Strict aborts the batch on the first rejected track instead of
	// skipping it. Tracks ingested before the failure stay ingested.
	Strict bool
}

// Ingest adds one track to the database.
//
// Defaults are applied first (import date, source, a generated track id
// when missing), then the track is validated; validation failures are hard
// rejections. Returns false with a nil error when CheckDuplicates is set
// and the track id is already present.
func (p *Pipeline) Ingest(ctx context.Context, t *track.Track, opts Options) (bool, error) {
	t.ApplyDefaults(time.Now())
	if t.TrackID == "" {
		t.TrackID = p.ids.Next()
	}
	if err := t.Validate(); err != nil {
		return false, err
	}

	if opts.CheckDuplicates {
		meta, err := index.Metadata(ctx, p.idx, t.TrackID)
		if err != nil {
			return false, err
		}
		if len(meta) > 0 {
			p.log.Debug("skipping duplicate track", "track_id", t.TrackID)
			return false, nil
		}
	}

	segments, err := track.Split(*t)
	if err != nil {
		return false, err
	}

	if err := p.idx.AddMany(ctx, segments); err != nil {
		return false, err
	}

	entries := make([]store.Entry, len(segments))
	for i, seg := range segments {
		entries[i] = store.Entry{Key: seg.ID, Value: []byte(seg.FP)}
	}
	if err := p.store.MultiSet(ctx, entries); err != nil {
		return false, &PartialError{Stage: "store write", Err: err}
	}

	if opts.Commit {
		if err := p.idx.Commit(ctx); err != nil {
			return false, &PartialError{Stage: "commit", Err: err}
		}
	}

	p.log.Debug("ingested track", "track_id", t.TrackID, "segments", len(segments))
	return true, nil
}

// IngestBatch adds many tracks and commits the index once at the end.
//
// The commit always runs, even when the batch aborts early, so tracks
// ingested before a failure become searchable. Returns the number of
// tracks added.
func (p *Pipeline) IngestBatch(ctx context.Context, tracks []*track.Track, opts BatchOptions) (added int, err error) {
	batch := uuid.NewString()
	p.log.Info("starting batch ingest", "batch", batch, "tracks", len(tracks))

	defer func() {
		if cerr := p.idx.Commit(ctx); cerr != nil {
			if err == nil {
				err = &PartialError{Stage: "commit", Err: cerr}
			} else {
				p.log.Error("batch commit failed", "batch", batch, "error", cerr)
			}
		}
	}()

	for i, t := range tracks {
		ok, ierr := p.Ingest(ctx, t, Options{CheckDuplicates: opts.CheckDuplicates})
		if ierr != nil {
			if opts.Strict {
				return added, fmt.Errorf("ingest: batch %s track %d: %w", batch, i, ierr)
			}
			p.log.Warn("rejecting track", "batch", batch, "track", i, "error", ierr)
			continue
		}
		if ok {
			added++
		}
	}

	p.log.Info("finished batch ingest", "batch", batch, "added", added)
	return added, nil
}

// Delete removes the given tracks from both backends: every index segment
// with the track prefix and every store entry under it. Missing tracks are
// not an error. The index is committed when commit is set.
func (p *Pipeline) Delete(ctx context.Context, trackIDs []string, commit bool) error {
	keys, err := p.store.Keys(ctx)
	if err != nil {
		return err
	}

	var doomed []string
	for _, key := range keys {
		for _, id := range trackIDs {
			if strings.HasPrefix(key, id+"-") {
				doomed = append(doomed, key)
				break
			}
		}
	}

	for _, id := range trackIDs {
		if err := p.idx.DeleteByPrefix(ctx, id); err != nil {
			return err
		}
	}
	if err := p.store.MultiDelete(ctx, doomed); err != nil {
		return &PartialError{Stage: "store write", Err: err}
	}

	if commit {
		if err := p.idx.Commit(ctx); err != nil {
			return &PartialError{Stage: "commit", Err: err}
		}
	}

	p.log.Info("deleted tracks", "tracks", len(trackIDs), "segments", len(doomed))
	return nil
}

// Erase destroys the entire database, both index and store. It refuses to
// run with [ErrNotConfirmed] unless reallyDelete is set.
func (p *Pipeline) Erase(ctx context.Context, reallyDelete bool) error {
	if !reallyDelete {
		return ErrNotConfirmed
	}

	keys, err := p.store.Keys(ctx)
	if err != nil {
		return err
	}
	if err := p.idx.DeleteAll(ctx); err != nil {
		return err
	}
	if err := p.store.MultiDelete(ctx, keys); err != nil {
		return &PartialError{Stage: "store write", Err: err}
	}
	if err := p.idx.Commit(ctx); err != nil {
		return &PartialError{Stage: "commit", Err: err}
	}

	p.log.Warn("erased database", "segments", len(keys))
	return nil
}

// RepairResult summarizes one reconciliation pass.
type RepairResult struct {
	// RemovedSegments counts index documents removed.
	RemovedSegments int

	// RemovedKeys counts store entries removed.
	RemovedKeys int
}

// Repair reconciles the candidate index with the exact store after a
// partial failure.
//
// A track with any indexed segment lacking its exact code is removed
// entirely from both backends: the matcher cannot re-score it, so keeping
// the rest of its segments only produces dead candidates. Store entries
// with no index document are deleted too; nothing can ever query them.
func (p *Pipeline) Repair(ctx context.Context) (RepairResult, error) {
	var res RepairResult

	segmentIDs, err := p.idx.SegmentIDs(ctx)
	if err != nil {
		return res, err
	}
	keys, err := p.store.Keys(ctx)
	if err != nil {
		return res, err
	}

	stored := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		stored[key] = struct{}{}
	}
	indexed := make(map[string]struct{}, len(segmentIDs))
	for _, id := range segmentIDs {
		indexed[id] = struct{}{}
	}

	// Tracks with an indexed segment missing its exact code.
	badTracks := make(map[string]struct{})
	for _, id := range segmentIDs {
		if _, ok := stored[id]; !ok {
			badTracks[trackOf(id)] = struct{}{}
		}
	}

	var doomedKeys []string
	for _, key := range keys {
		_, inIndex := indexed[key]
		_, bad := badTracks[trackOf(key)]
		if !inIndex || bad {
			doomedKeys = append(doomedKeys, key)
		}
	}
	for _, id := range segmentIDs {
		if _, bad := badTracks[trackOf(id)]; bad {
			res.RemovedSegments++
		}
	}

	tracks := make([]string, 0, len(badTracks))
	for id := range badTracks {
		tracks = append(tracks, id)
	}
	sort.Strings(tracks)
	for _, id := range tracks {
		if err := p.idx.DeleteByPrefix(ctx, id); err != nil {
			return res, err
		}
	}
	if err := p.store.MultiDelete(ctx, doomedKeys); err != nil {
		return res, &PartialError{Stage: "store write", Err: err}
	}
	if err := p.idx.Commit(ctx); err != nil {
		return res, &PartialError{Stage: "commit", Err: err}
	}

	res.RemovedKeys = len(doomedKeys)
	if res.RemovedSegments > 0 || res.RemovedKeys > 0 {
		p.log.Info("repaired database",
			"removed_segments", res.RemovedSegments, "removed_keys", res.RemovedKeys)
	}
	return res, nil
}

// trackOf strips the segment suffix from a segment id.
func trackOf(segmentID string) string {
	id, _, _ := strings.Cut(segmentID, "-")
	return id
}
