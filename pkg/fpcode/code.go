// Package fpcode defines the fingerprint code representation and its wire
// codecs.
//
// A fingerprint is an ordered sequence of (hashcode, timestamp) pairs
// summarizing short-time audio features. The canonical textual form is
// whitespace-separated alternating decimal tokens:
//
//	"<hash1> <time1> <hash2> <time2> ..."
//
// Timestamps are expressed in fingerprint time units; [UnitsPerSecond]
// converts between units and seconds. For transport and storage the textual
// form is deflate-compressed and URL-safe base64 encoded ([Encode]/[Decode]).
// A legacy fixed-width packed-hex form is supported on the decode path only
// ([InflateLegacy]).
package fpcode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UnitsPerSecond is the number of fingerprint time units per second of
// audio. The fingerprint generator emits one unit per 23.2 ms frame hop.
const UnitsPerSecond = 1000.0 / 23.2

// Pair is a single (hashcode, timestamp) entry of a fingerprint.
type Pair struct {
	Hash uint32
	Time uint32
}

// Code is an ordered sequence of fingerprint pairs.
//
// Pairs are conceptually time-ordered but the textual form used for queries
// is not required to be strictly ascending; the query path re-normalizes
// timestamps before scoring.
type Code []Pair

// Parse converts the canonical textual form into a Code.
// An empty or all-whitespace string parses to an empty Code. An odd token
// count or a non-integer token is an error.
func Parse(s string) (Code, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("fpcode: odd token count %d", len(fields))
	}

	code := make(Code, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		hash, err := strconv.ParseUint(fields[i], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("fpcode: bad hash token %q: %w", fields[i], err)
		}
		ts, err := strconv.ParseUint(fields[i+1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("fpcode: bad time token %q: %w", fields[i+1], err)
		}
		code = append(code, Pair{Hash: uint32(hash), Time: uint32(ts)})
	}
	return code, nil
}

// String returns the canonical textual form.
func (c Code) String() string {
	if len(c) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(c) * 12)
	for i, p := range c {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(p.Hash), 10))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(uint64(p.Time), 10))
	}
	return b.String()
}

// Sorted returns a copy of the code with pairs ordered by ascending
// timestamp. The sort is stable so pairs sharing a timestamp keep their
// original relative order.
func (c Code) Sorted() Code {
	out := make(Code, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Normalized returns a copy of the code with the minimum timestamp
// subtracted from every pair, so the earliest pair starts at time 0.
// Pair order is preserved.
func (c Code) Normalized() Code {
	if len(c) == 0 {
		return nil
	}
	min := c[0].Time
	for _, p := range c[1:] {
		if p.Time < min {
			min = p.Time
		}
	}
	out := make(Code, len(c))
	for i, p := range c {
		out[i] = Pair{Hash: p.Hash, Time: p.Time - min}
	}
	return out
}

// Truncate returns a copy of the code limited to at most the given number
// of seconds of content measured from the first pair's timestamp. Pairs
// beyond the window are discarded; pair order is preserved.
//
// Matching is bounded to one segment window, so a query longer than the
// window only wastes scoring work.
func (c Code) Truncate(seconds float64) Code {
	if len(c) < 2 {
		return c
	}
	limit := uint32(seconds*UnitsPerSecond) + c[0].Time
	out := make(Code, 0, len(c))
	for _, p := range c {
		if p.Time <= limit {
			out = append(out, p)
		}
	}
	return out
}
