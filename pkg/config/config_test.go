package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tonehive/fpmatch/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Dir != "data/store" || cfg.Store.InMemory {
		t.Fatalf("Store = %+v", cfg.Store)
	}
	if cfg.Matcher.Elbow != 10 || cfg.Matcher.Slop != 2 || cfg.Matcher.MaxRows != 30 {
		t.Fatalf("Matcher = %+v", cfg.Matcher)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
store:
  in_memory: true
index:
  snapshot: /var/lib/fpmatch/index.snap
matcher:
  max_rows: 50
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Store.InMemory {
		t.Fatal("store.in_memory not applied")
	}
	if cfg.Index.Snapshot != "/var/lib/fpmatch/index.snap" {
		t.Fatalf("Index.Snapshot = %q", cfg.Index.Snapshot)
	}
	if cfg.Matcher.MaxRows != 50 {
		t.Fatalf("Matcher.MaxRows = %d", cfg.Matcher.MaxRows)
	}

	// Unset fields keep their defaults.
	if cfg.Matcher.Elbow != 10 {
		t.Fatalf("Matcher.Elbow = %d, want default", cfg.Matcher.Elbow)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load(missing) succeeded")
	}
}
