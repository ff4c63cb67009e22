package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/ingest"
	"github.com/tonehive/fpmatch/pkg/track"
)

var (
	flagCheckDuplicates bool
	flagStrict          bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest echoprint fingerprint documents",
	Long: `Ingest fingerprint documents produced by an echoprint-style generator.

Each file holds a JSON array of documents (or a single document object)
with a compressed "code" or decoded "fp" field plus metadata. With no
file arguments, documents are read from stdin.

The index is committed once at the end of the batch, so all ingested
tracks become searchable together.

Example:
  fpmatch ingest fingerprints.json
  codegen song.mp3 | fpmatch ingest`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&flagCheckDuplicates, "check-duplicates", false, "skip tracks whose id is already indexed")
	ingestCmd.Flags().BoolVar(&flagStrict, "strict", false, "abort the batch on the first rejected document")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	var docs []track.EchoprintDoc
	if len(args) == 0 {
		read, err := readDocs(os.Stdin)
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		docs = read
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		read, err := readDocs(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, read...)
	}

	ids := track.NewIDGenerator()
	now := time.Now()
	tracks := make([]*track.Track, 0, len(docs))
	for i, doc := range docs {
		t, err := track.FromEchoprint(doc, ids, now)
		if err != nil {
			if flagStrict {
				return fmt.Errorf("document %d: %w", i, err)
			}
			slog.Warn("rejecting document", "document", i, "error", err)
			continue
		}
		// Some generators pack "Artist - Title" into the title field.
		if t.Artist == "" {
			if title, artist, ok := track.ParseTitle(t.Title); ok {
				t.Title, t.Artist = title, artist
			}
		}
		tracks = append(tracks, &t)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil {
			slog.Error("close failed", "error", cerr)
		}
	}()

	p, err := ingest.New(ingest.Config{Index: e.idx, Store: e.store, IDs: ids})
	if err != nil {
		return err
	}
	added, err := p.IngestBatch(cmd.Context(), tracks, ingest.BatchOptions{
		CheckDuplicates: flagCheckDuplicates,
		Strict:          flagStrict,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d of %d tracks\n", added, len(docs))
	return nil
}

// readDocs decodes a JSON array of documents, falling back to a single
// document object.
func readDocs(r io.Reader) ([]track.EchoprintDoc, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var docs []track.EchoprintDoc
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}
	var doc track.EchoprintDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return []track.EchoprintDoc{doc}, nil
}
