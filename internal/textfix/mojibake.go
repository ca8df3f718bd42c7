// Package textfix repairs character-encoding damage in text cells.
package textfix

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxPasses bounds how many layers of double encoding are unwound.
const maxPasses = 4

// FixMojibake reverses text that was UTF-8 encoded and then decoded as
// Windows-1252 or Latin-1, possibly several times over. Each maximal run of
// non-ASCII characters is re-encoded with a sloppy Windows-1252 codec; the
// run, or failing that each sub-span of it, is replaced only when the
// resulting bytes are valid UTF-8 that decodes to fewer characters. Spans that
// do not round-trip are left alone, so legitimate accented text survives.
func FixMojibake(s string) string {
	if isASCII(s) {
		return s
	}
	for pass := 0; pass < maxPasses; pass++ {
		fixed := fixRuns(s)
		if fixed == s {
			break
		}
		s = fixed
	}
	return s
}

func fixRuns(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		out.WriteString(decodeRun(s[runStart:end]))
		runStart = -1
	}

	for i, r := range s {
		if r < utf8.RuneSelf {
			flush(i)
			out.WriteRune(r)
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	flush(len(s))
	return out.String()
}

// decodeRun returns the UTF-8 reading of run's single-byte encoding. When
// the run as a whole does not decode, for example because a genuine accent
// sits next to a damaged sequence, each maximal sub-span that does decode is
// replaced and the remaining characters are kept.
func decodeRun(run string) string {
	if fixed, ok := decodeSpan(run); ok {
		return fixed
	}

	runes := []rune(run)
	var out strings.Builder
	for i := 0; i < len(runes); {
		j := len(runes)
		for ; j > i+1; j-- {
			if fixed, ok := decodeSpan(string(runes[i:j])); ok {
				out.WriteString(fixed)
				break
			}
		}
		if j > i+1 {
			i = j
			continue
		}
		out.WriteRune(runes[i])
		i++
	}
	return out.String()
}

// decodeSpan reports whether span re-encodes to valid UTF-8 with fewer
// characters, and returns that reading.
func decodeSpan(span string) (string, bool) {
	raw, ok := sloppyEncode(span)
	if !ok || !utf8.Valid(raw) {
		return "", false
	}
	decoded := string(raw)
	if utf8.RuneCountInString(decoded) >= utf8.RuneCountInString(span) {
		return "", false
	}
	return decoded, true
}

// sloppyEncode maps each rune to its Windows-1252 byte, falling back to the
// Latin-1 byte for the five positions Windows-1252 leaves undefined and for
// C1 control characters.
func sloppyEncode(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		if r <= 0xFF {
			out = append(out, byte(r))
			continue
		}
		return nil, false
	}
	return out, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
