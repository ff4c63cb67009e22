package fpcode_test

import (
	"errors"
	"testing"

	"github.com/tonehive/fpmatch/pkg/fpcode"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"12345 10 678 24 12345 300",
		"1 0",
		"4294967295 4294967295",
	}
	for _, text := range cases {
		enc, err := fpcode.Encode(text)
		if err != nil {
			t.Fatalf("Encode(%q): %v", text, err)
		}
		if enc == "" {
			t.Fatalf("Encode(%q) returned empty output", text)
		}
		dec, err := fpcode.Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)): %v", text, err)
		}
		if dec != text {
			t.Fatalf("round trip = %q, want %q", dec, text)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	enc, err := fpcode.Encode("")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc != "" {
		t.Fatalf("Encode(\"\") = %q, want empty", enc)
	}

	dec, err := fpcode.Decode("")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec != "" {
		t.Fatalf("Decode(\"\") = %q, want empty", dec)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"!!!not-base64!!!",
		"AAAA", // valid base64, not a zlib stream
		"eJwB", // valid zlib header, truncated deflate stream
	}
	for _, s := range cases {
		_, err := fpcode.Decode(s)
		if err == nil {
			t.Errorf("Decode(%q): expected error", s)
			continue
		}
		if !errors.Is(err, fpcode.ErrCannotDecode) {
			t.Errorf("Decode(%q): error %v does not wrap ErrCannotDecode", s, err)
		}
	}
}

func TestInflateLegacy(t *testing.T) {
	// Two pairs: timestamps 0x00001, 0x00002 then hashes 0x0000a, 0x0000b.
	packed := "00001" + "00002" + "0000a" + "0000b"
	text, err := fpcode.InflateLegacy(packed)
	if err != nil {
		t.Fatalf("InflateLegacy: %v", err)
	}
	if text != "10 1 11 2" {
		t.Fatalf("InflateLegacy = %q, want %q", text, "10 1 11 2")
	}

	code, err := fpcode.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(code) != 2 {
		t.Fatalf("inflated to %d pairs, want 2", len(code))
	}
}

func TestInflateLegacyMalformed(t *testing.T) {
	cases := []string{
		"12345",      // trailing remainder: group counts cannot match
		"123451234",  // not a multiple of the pair width
		"0000100zzz", // non-hex group
	}
	for _, s := range cases {
		_, err := fpcode.InflateLegacy(s)
		if err == nil {
			t.Errorf("InflateLegacy(%q): expected error", s)
			continue
		}
		if !errors.Is(err, fpcode.ErrCannotDecode) {
			t.Errorf("InflateLegacy(%q): error %v does not wrap ErrCannotDecode", s, err)
		}
	}
}

func TestInflateLegacyEmpty(t *testing.T) {
	text, err := fpcode.InflateLegacy("")
	if err != nil {
		t.Fatalf("InflateLegacy: %v", err)
	}
	if text != "" {
		t.Fatalf("InflateLegacy(\"\") = %q, want empty", text)
	}
}

func TestLooksCompressed(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"12345 10 678 24", false},
		{"eJxLMTQyBgAC", true},
		{"_underscore", true},
		{"-dash", true},
		{"+plus", true},
		{"/slash", true},
		{"0eJx", false}, // leading digit wins: canonical form
	}
	for _, c := range cases {
		if got := fpcode.LooksCompressed(c.in); got != c.want {
			t.Errorf("LooksCompressed(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
