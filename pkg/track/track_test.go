package track_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tonehive/fpmatch/pkg/track"
)

func TestValidate(t *testing.T) {
	valid := track.Track{TrackID: "TR1", FP: "1 2", Length: 60, CodeVersion: "4.12"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate(valid): %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*track.Track)
		want   error
	}{
		{"no track id", func(tr *track.Track) { tr.TrackID = "" }, track.ErrMissingTrackID},
		{"no fp", func(tr *track.Track) { tr.FP = "" }, track.ErrMissingFingerprint},
		{"no length", func(tr *track.Track) { tr.Length = 0 }, track.ErrMissingLength},
		{"no codever", func(tr *track.Track) { tr.CodeVersion = "" }, track.ErrMissingCodeVersion},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := valid
			c.mutate(&tr)
			if err := tr.Validate(); !errors.Is(err, c.want) {
				t.Fatalf("Validate = %v, want %v", err, c.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	tr := track.Track{}
	tr.ApplyDefaults(now)
	if tr.ImportDate != "2026-08-31T12:00:00Z" {
		t.Fatalf("ImportDate = %q", tr.ImportDate)
	}
	if tr.Source != track.DefaultSource {
		t.Fatalf("Source = %q", tr.Source)
	}

	// Existing values are kept.
	tr2 := track.Track{ImportDate: "2020-01-01T00:00:00Z", Source: "import"}
	tr2.ApplyDefaults(now)
	if tr2.ImportDate != "2020-01-01T00:00:00Z" || tr2.Source != "import" {
		t.Fatalf("defaults overwrote existing values: %+v", tr2)
	}
}

func TestNormalizeCodeVersion(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"4.12", "4.12"},
		{"4", "4.00"},
		{" 4.1 ", "4.10"},
	}
	for _, c := range cases {
		got, err := track.NormalizeCodeVersion(c.in)
		if err != nil {
			t.Fatalf("NormalizeCodeVersion(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("NormalizeCodeVersion(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if _, err := track.NormalizeCodeVersion("latest"); err == nil {
		t.Fatal("expected error for non-numeric version")
	}
}

func TestParseTitle(t *testing.T) {
	title, artist, ok := track.ParseTitle("Daft Punk - Around the World")
	if !ok || artist != "Daft Punk" || title != "Around the World" {
		t.Fatalf("ParseTitle = (%q, %q, %v)", title, artist, ok)
	}

	title, artist, ok = track.ParseTitle("NoSeparatorHere")
	if ok || artist != "" || title != "NoSeparatorHere" {
		t.Fatalf("ParseTitle = (%q, %q, %v)", title, artist, ok)
	}
}

func TestIDGenerator(t *testing.T) {
	g := track.NewIDGenerator()

	id := g.Next()
	if len(id) < 7 || id[:2] != "TR" {
		t.Fatalf("id = %q", id)
	}
	for _, c := range id[2:7] {
		if c < 'A' || c > 'Z' {
			t.Fatalf("id %q random part not uppercase letters", id)
		}
	}

	// Unique under concurrency.
	const n = 100
	var mu sync.Mutex
	seen := make(map[string]bool, 4*n)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n; j++ {
				id := g.Next()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %q", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestEchoprintRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	src := track.Track{
		TrackID:     "TRABCDE1F",
		FP:          "12345 10 678 24",
		Artist:      "Artist",
		Title:       "Title",
		Release:     "Release",
		Length:      241,
		CodeVersion: "4.12",
		Source:      "test",
	}

	doc, err := src.ToEchoprint()
	if err != nil {
		t.Fatalf("ToEchoprint: %v", err)
	}
	if doc.Code == "" {
		t.Fatal("ToEchoprint produced no code")
	}
	if doc.Metadata.Duration != 241 || doc.Metadata.Title != "Title" {
		t.Fatalf("metadata = %+v", doc.Metadata)
	}

	got, err := track.FromEchoprint(doc, track.NewIDGenerator(), now)
	if err != nil {
		t.Fatalf("FromEchoprint: %v", err)
	}
	if got.FP != src.FP {
		t.Fatalf("fp = %q, want %q", got.FP, src.FP)
	}
	if got.TrackID != src.TrackID || got.Length != src.Length {
		t.Fatalf("track = %+v", got)
	}
	if got.CodeVersion != "4.12" {
		t.Fatalf("codever = %q", got.CodeVersion)
	}
	if got.ImportDate != "2026-08-31T00:00:00Z" {
		t.Fatalf("import date = %q", got.ImportDate)
	}
}

func TestFromEchoprintGeneratesID(t *testing.T) {
	doc := track.EchoprintDoc{
		FP:       "1 2 3 4",
		Metadata: track.EchoprintMetadata{Version: 4.12, Duration: 60},
	}
	got, err := track.FromEchoprint(doc, track.NewIDGenerator(), time.Now())
	if err != nil {
		t.Fatalf("FromEchoprint: %v", err)
	}
	if got.TrackID == "" {
		t.Fatal("expected a generated track id")
	}

	if _, err := track.FromEchoprint(track.EchoprintDoc{}, track.NewIDGenerator(), time.Now()); !errors.Is(err, track.ErrNoFingerprint) {
		t.Fatalf("expected ErrNoFingerprint, got %v", err)
	}
}
