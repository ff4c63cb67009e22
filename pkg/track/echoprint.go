package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/tonehive/fpmatch/pkg/fpcode"
)

// EchoprintDoc is the interchange document emitted by echoprint-style
// fingerprint generators. Either Code (compressed) or FP (already decoded)
// carries the fingerprint.
type EchoprintDoc struct {
	Code     string            `json:"code,omitempty"`
	FP       string            `json:"fp,omitempty"`
	Metadata EchoprintMetadata `json:"metadata"`
}

// EchoprintMetadata is the metadata block of an [EchoprintDoc]. Field names
// follow the generator's vocabulary: "title" for the track title, "version"
// for the fingerprint-algorithm version and "duration" for the length in
// seconds.
type EchoprintMetadata struct {
	TrackID  string  `json:"track_id,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	Title    string  `json:"title,omitempty"`
	Release  string  `json:"release,omitempty"`
	Version  float64 `json:"version"`
	Duration int     `json:"duration"`
	Source   string  `json:"source,omitempty"`
}

// ErrNoFingerprint is returned by [FromEchoprint] when a document carries
// neither a compressed code nor a decoded fingerprint.
var ErrNoFingerprint = errors.New("track: echoprint document has no fingerprint")

// ToEchoprint converts a track back to the generator document shape,
// compressing the fingerprint with the codec.
func (t *Track) ToEchoprint() (EchoprintDoc, error) {
	code, err := fpcode.Encode(t.FP)
	if err != nil {
		return EchoprintDoc{}, err
	}

	var version float64
	fmt.Sscanf(t.CodeVersion, "%f", &version)

	return EchoprintDoc{
		Code: code,
		Metadata: EchoprintMetadata{
			TrackID:  t.TrackID,
			Artist:   t.Artist,
			Title:    t.Title,
			Release:  t.Release,
			Version:  version,
			Duration: t.Length,
			Source:   t.Source,
		},
	}, nil
}

// FromEchoprint converts a generator document into a [Track].
//
// A compressed code takes precedence over a pre-decoded fp field. A missing
// track id is filled from ids, and the import date defaults to now. The
// version is normalized to two decimals.
func FromEchoprint(doc EchoprintDoc, ids *IDGenerator, now time.Time) (Track, error) {
	fp := doc.FP
	if doc.Code != "" {
		decoded, err := fpcode.Decode(doc.Code)
		if err != nil {
			return Track{}, err
		}
		fp = decoded
	}
	if fp == "" {
		return Track{}, ErrNoFingerprint
	}

	trackID := doc.Metadata.TrackID
	if trackID == "" {
		trackID = ids.Next()
	}

	codever, err := NormalizeCodeVersion(fmt.Sprintf("%g", doc.Metadata.Version))
	if err != nil {
		return Track{}, err
	}

	t := Track{
		TrackID:     trackID,
		FP:          fp,
		Artist:      doc.Metadata.Artist,
		Release:     doc.Metadata.Release,
		Title:       doc.Metadata.Title,
		Length:      doc.Metadata.Duration,
		CodeVersion: codever,
		Source:      doc.Metadata.Source,
	}
	t.ApplyDefaults(now)
	return t, nil
}
