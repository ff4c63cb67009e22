package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tonehive/fpmatch/pkg/track"
)

// Memory is an embedded in-memory Index implementation: an inverted map
// from hash token to the segments containing it, plus the stored segment
// documents.
//
// AddMany appends to a pending buffer; Commit merges the buffer into the
// searchable state. Deletes are applied immediately to both. Safe for
// concurrent use.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]track.Segment           // segment id → stored document
	hashes  map[string]map[string]struct{}     // segment id → distinct hash tokens
	posting map[string]map[string]struct{}     // hash token → segment ids
	pending []track.Segment
}

// NewMemory creates a new empty in-memory index.
func NewMemory() *Memory {
	return &Memory{
		docs:    make(map[string]track.Segment),
		hashes:  make(map[string]map[string]struct{}),
		posting: make(map[string]map[string]struct{}),
	}
}

// queryHashes extracts the hash tokens (with multiplicity) from a code
// string: the even-position tokens of the alternating hash/time form.
func queryHashes(code string) []string {
	fields := strings.Fields(code)
	out := make([]string, 0, (len(fields)+1)/2)
	for i := 0; i < len(fields); i += 2 {
		out = append(out, fields[i])
	}
	return out
}

func (m *Memory) Query(_ context.Context, code string, maxRows int) ([]Candidate, error) {
	tokens := queryHashes(code)
	if len(tokens) == 0 || maxRows <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Recall: every segment sharing at least one distinct hash.
	candidates := make(map[string]struct{})
	seenToken := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, dup := seenToken[tok]; dup {
			continue
		}
		seenToken[tok] = struct{}{}
		for id := range m.posting[tok] {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Score: count query hash occurrences present in each segment.
	results := make([]Candidate, 0, len(candidates))
	for id := range candidates {
		segHashes := m.hashes[id]
		score := 0
		for _, tok := range tokens {
			if _, ok := segHashes[tok]; ok {
				score++
			}
		}
		results = append(results, Candidate{SegmentID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SegmentID > results[j].SegmentID
	})
	if len(results) > maxRows {
		results = results[:maxRows]
	}
	return results, nil
}

func (m *Memory) AddMany(_ context.Context, segments []track.Segment) error {
	m.mu.Lock()
	m.pending = append(m.pending, segments...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Lookup(_ context.Context, segmentID string) (*track.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seg, ok := m.docs[segmentID]
	if !ok {
		return nil, nil
	}
	return &seg, nil
}

func (m *Memory) Commit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seg := range m.pending {
		m.removeLocked(seg.ID)
		m.docs[seg.ID] = seg

		hashSet := make(map[string]struct{})
		for _, tok := range queryHashes(seg.FP) {
			hashSet[tok] = struct{}{}
			ids, ok := m.posting[tok]
			if !ok {
				ids = make(map[string]struct{})
				m.posting[tok] = ids
			}
			ids[seg.ID] = struct{}{}
		}
		m.hashes[seg.ID] = hashSet
	}
	m.pending = nil
	return nil
}

func (m *Memory) DeleteByPrefix(_ context.Context, trackID string) error {
	prefix := trackID + "-"

	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.docs {
		if strings.HasPrefix(id, prefix) {
			m.removeLocked(id)
		}
	}

	kept := m.pending[:0]
	for _, seg := range m.pending {
		if !strings.HasPrefix(seg.ID, prefix) {
			kept = append(kept, seg)
		}
	}
	m.pending = kept
	return nil
}

func (m *Memory) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	m.docs = make(map[string]track.Segment)
	m.hashes = make(map[string]map[string]struct{})
	m.posting = make(map[string]map[string]struct{})
	m.pending = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// SegmentIDs returns the ids of all committed documents. Used by the
// repair pass to compare against the exact store's key set.
func (m *Memory) SegmentIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// removeLocked drops a committed document and its postings.
// Caller holds the write lock.
func (m *Memory) removeLocked(id string) {
	for tok := range m.hashes[id] {
		delete(m.posting[tok], id)
		if len(m.posting[tok]) == 0 {
			delete(m.posting, tok)
		}
	}
	delete(m.hashes, id)
	delete(m.docs, id)
}
