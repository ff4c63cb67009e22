// Package track defines the track record ingested into the fingerprint
// database, the derived storage segments, and track id generation.
//
// A [Track] is one full-length fingerprint plus its metadata. During
// ingestion it is cut into overlapping [Segment] values by [Split]; each
// segment is indexed independently under the id "{track_id}-{n}" so a match
// anywhere inside a song is findable from a short query.
package track

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ImportDateFormat is the wire format for the import_date field:
// UTC ISO-8601 with second precision.
const ImportDateFormat = "2006-01-02T15:04:05Z"

// DefaultSource is the source recorded for tracks ingested without one.
const DefaultSource = "local"

// Validation errors.
var (
	ErrMissingTrackID     = errors.New("track: missing track_id")
	ErrMissingFingerprint = errors.New("track: missing fingerprint")
	ErrMissingLength      = errors.New("track: missing length")
	ErrMissingCodeVersion = errors.New("track: missing codever")
)

// Track is a full-length fingerprint record with its metadata.
//
// TrackID, FP, Length and CodeVersion are required for ingestion; the
// remaining fields are optional but highly recommended.
type Track struct {
	// TrackID uniquely identifies the track. Generated by [IDGenerator]
	// when the source material carries none.
	TrackID string `json:"track_id" msgpack:"track_id"`

	// FP is the fingerprint in canonical textual form.
	FP string `json:"fp" msgpack:"fp"`

	Artist  string `json:"artist,omitempty" msgpack:"artist,omitempty"`
	Release string `json:"release,omitempty" msgpack:"release,omitempty"`

	// Title is the track title ("track" on the wire).
	Title string `json:"track,omitempty" msgpack:"track,omitempty"`

	// Length is the track duration in whole seconds.
	Length int `json:"length" msgpack:"length"`

	// CodeVersion is the fingerprint-algorithm version string ("codever"
	// on the wire), normalized to two decimals.
	CodeVersion string `json:"codever" msgpack:"codever"`

	Source string `json:"source,omitempty" msgpack:"source,omitempty"`

	// ImportDate is the UTC ISO-8601 time the track was imported.
	ImportDate string `json:"import_date,omitempty" msgpack:"import_date,omitempty"`
}

// Validate checks the required ingestion fields. Missing fields are hard
// validation failures, never retried.
func (t *Track) Validate() error {
	switch {
	case t.TrackID == "":
		return ErrMissingTrackID
	case t.FP == "":
		return ErrMissingFingerprint
	case t.Length <= 0:
		return ErrMissingLength
	case t.CodeVersion == "":
		return ErrMissingCodeVersion
	}
	return nil
}

// ApplyDefaults fills ImportDate with the given time and Source with
// [DefaultSource] when they are unset.
func (t *Track) ApplyDefaults(now time.Time) {
	if t.ImportDate == "" {
		t.ImportDate = now.UTC().Format(ImportDateFormat)
	}
	if t.Source == "" {
		t.Source = DefaultSource
	}
}

// NormalizeCodeVersion formats a fingerprint-algorithm version string to
// two decimals ("4.12" → "4.12", "4" → "4.00"). A non-numeric version is
// an error.
func NormalizeCodeVersion(v string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return "", fmt.Errorf("track: bad codever %q: %w", v, err)
	}
	return strconv.FormatFloat(f, 'f', 2, 64), nil
}

var titleRE = regexp.MustCompile(`^([^-]*?)\s*-\s*(.*)$`)

// ParseTitle splits a combined "Artist - Title" string. When no separator
// is present the whole string is returned as the title with an empty
// artist, and ok is false.
func ParseTitle(s string) (title, artist string, ok bool) {
	m := titleRE.FindStringSubmatch(s)
	if m == nil {
		return s, "", false
	}
	return m[2], m[1], true
}
