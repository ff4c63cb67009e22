package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tonehive/fpmatch/pkg/track"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// snapshot is the persisted form of a Memory index: just the committed
// documents. Postings are rebuilt on load, which is cheaper than storing
// them and keeps the format trivial.
type snapshot struct {
	Version  int             `msgpack:"version"`
	Segments []track.Segment `msgpack:"segments"`
}

// SaveSnapshot writes all committed documents to w, msgpack-encoded.
// Pending (uncommitted) documents are not included.
func (m *Memory) SaveSnapshot(w io.Writer) error {
	m.mu.RLock()
	snap := snapshot{Version: snapshotVersion}
	snap.Segments = make([]track.Segment, 0, len(m.docs))
	for _, seg := range m.docs {
		snap.Segments = append(snap.Segments, seg)
	}
	m.mu.RUnlock()

	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("index: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot replaces the index contents with the documents from a
// snapshot previously written by SaveSnapshot.
func (m *Memory) LoadSnapshot(r io.Reader) error {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("index: load snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("index: load snapshot: unsupported version %d", snap.Version)
	}

	ctx := context.Background()
	if err := m.DeleteAll(ctx); err != nil {
		return err
	}
	if err := m.AddMany(ctx, snap.Segments); err != nil {
		return err
	}
	return m.Commit(ctx)
}

// SaveSnapshotFile writes a snapshot to path atomically (write to a
// temporary file in the same directory, then rename).
func (m *Memory) SaveSnapshotFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("index: save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.SaveSnapshot(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("index: save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("index: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshotFile loads a snapshot from path. A missing file is not an
// error: the index simply starts empty.
func (m *Memory) LoadSnapshotFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: load snapshot: %w", err)
	}
	defer f.Close()
	return m.LoadSnapshot(f)
}
