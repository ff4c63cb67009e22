package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/config"
	"github.com/tonehive/fpmatch/pkg/index"
	"github.com/tonehive/fpmatch/pkg/store"
)

var (
	// Global flags
	flagConfig string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fpmatch",
	Short: "Audio fingerprint storage and matching engine",
	Long: `fpmatch stores echoprint-style audio fingerprints and matches short
query snippets against them.

Tracks are cut into overlapping 60-second segments; a query is matched by
recalling candidate segments from an inverted hash index and re-scoring
them exactly against the stored codes.

Examples:
  # Ingest fingerprint documents and make them searchable
  fpmatch ingest fingerprints.json

  # Match a query code (compressed or textual form)
  fpmatch query "$(cat query.code)"

  # Remove a track
  fpmatch delete TRABCDE12F`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// engine bundles the two backends behind one open/close pair. The index
// snapshot is written back on Close, so every mutating command persists
// its effect.
type engine struct {
	cfg   config.Config
	idx   *index.Memory
	store store.Store
}

func openEngine() (*engine, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.Store.InMemory {
		st = store.NewMemory()
	} else {
		st, err = store.NewBadger(store.BadgerOptions{Dir: cfg.Store.Dir})
		if err != nil {
			return nil, err
		}
	}

	idx := index.NewMemory()
	if cfg.Index.Snapshot != "" {
		if err := idx.LoadSnapshotFile(cfg.Index.Snapshot); err != nil {
			st.Close()
			return nil, err
		}
	}

	return &engine{cfg: cfg, idx: idx, store: st}, nil
}

func (e *engine) Close() error {
	var snapErr error
	if e.cfg.Index.Snapshot != "" {
		if err := os.MkdirAll(filepath.Dir(e.cfg.Index.Snapshot), 0o755); err != nil {
			snapErr = err
		} else {
			snapErr = e.idx.SaveSnapshotFile(e.cfg.Index.Snapshot)
		}
	}
	return errors.Join(snapErr, e.store.Close(), e.idx.Close())
}
