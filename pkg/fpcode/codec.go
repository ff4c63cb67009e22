package fpcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Sentinel errors.
var (
	// ErrCannotDecode is returned for any malformed compressed code string:
	// bad base64, bad zlib stream, or a malformed legacy packed form.
	ErrCannotDecode = errors.New("fpcode: cannot decode code string")

	// ErrCannotEncode is returned when compressing a code string fails.
	ErrCannotEncode = errors.New("fpcode: cannot encode code string")
)

// legacy packed form: 5 hex chars per timestamp, 5 per hash.
const legacyGroupLen = 5

// Decode converts a compressed transport form back to the canonical textual
// form: URL-safe base64 decode, then zlib inflate. If the inflated text
// contains no separating space it is treated as the legacy packed-hex form
// and expanded with [InflateLegacy].
//
// An empty input decodes to an empty string. Any malformed input fails with
// an error wrapping [ErrCannotDecode]; the underlying cause is never
// propagated as-is.
func Decode(compressed string) (string, error) {
	if compressed == "" {
		return "", nil
	}

	raw, err := base64Decode(compressed)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrCannotDecode, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: zlib: %v", ErrCannotDecode, err)
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: zlib: %v", ErrCannotDecode, err)
	}

	if !bytes.ContainsRune(text, ' ') {
		return InflateLegacy(string(text))
	}
	return string(text), nil
}

// Encode converts the canonical textual form into the compressed transport
// form: zlib deflate, then URL-safe base64. An empty input encodes to an
// empty output without invoking the compressor.
func Encode(code string) (string, error) {
	if code == "" {
		return "", nil
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(code)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotEncode, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotEncode, err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// InflateLegacy expands an uncompressed legacy code string, consisting of
// zero-padded fixed-width sorted hex, into the canonical textual form.
//
// For n = len/10 pairs the string holds n groups of 5 hex characters of
// timestamps followed by n groups of 5 hex characters of hash codes.
// A trailing remainder or a non-hex group fails with [ErrCannotDecode].
func InflateLegacy(packed string) (string, error) {
	n := len(packed) / (2 * legacyGroupLen)
	if n*2*legacyGroupLen != len(packed) {
		return "", fmt.Errorf("%w: legacy form length %d not a multiple of %d",
			ErrCannotDecode, len(packed), 2*legacyGroupLen)
	}
	if n == 0 {
		return "", nil
	}

	times, err := parseHexGroups(packed[:n*legacyGroupLen])
	if err != nil {
		return "", err
	}
	hashes, err := parseHexGroups(packed[n*legacyGroupLen:])
	if err != nil {
		return "", err
	}
	if len(times) != len(hashes) {
		return "", fmt.Errorf("%w: legacy form group count mismatch: %d times, %d hashes",
			ErrCannotDecode, len(times), len(hashes))
	}

	var b strings.Builder
	b.Grow(len(packed) * 2)
	for i := range hashes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(hashes[i], 10))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(times[i], 10))
	}
	return b.String(), nil
}

// LooksCompressed reports whether a query code string appears to be in the
// compressed transport form rather than the canonical textual form.
//
// The canonical form always starts with a decimal digit, while base64
// output of a zlib stream starts with a letter or a symbol of the base64
// alphabet, so checking the first byte is sufficient.
func LooksCompressed(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c == '/' || c == '+' || c == '_' || c == '-':
		return true
	}
	return false
}

// parseHexGroups splits s into 5-character groups and parses each as a
// base-16 integer.
func parseHexGroups(s string) ([]uint64, error) {
	out := make([]uint64, 0, len(s)/legacyGroupLen)
	for pos := 0; pos < len(s); pos += legacyGroupLen {
		v, err := strconv.ParseUint(s[pos:pos+legacyGroupLen], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: legacy form group %q: %v",
				ErrCannotDecode, s[pos:pos+legacyGroupLen], err)
		}
		out = append(out, v)
	}
	return out, nil
}

// base64Decode accepts both the URL-safe and the standard base64 alphabet,
// with or without padding. Code strings produced by different client
// generations have used all four combinations.
func base64Decode(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
