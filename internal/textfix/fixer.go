package textfix

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// apostrophes are dropped rather than transliterated to "'".
var apostrophes = strings.NewReplacer(
	"‘", "", // left single quotation mark
	"’", "", // right single quotation mark
	"‛", "", // single high-reversed-9 quotation mark
	"ʼ", "", // modifier letter apostrophe
	"′", "", // prime
)

// Fixer runs the cell repair chain: mojibake reversal, removal of known
// artifact substrings, then ASCII transliteration. Artifacts are also
// stripped before the reversal so it cannot reinterpret them as text.
type Fixer struct {
	remove []string
}

// NewFixer returns a Fixer that deletes every substring in remove after the
// encoding repair step. Empty entries are ignored.
func NewFixer(remove []string) *Fixer {
	f := &Fixer{}
	for _, r := range remove {
		if r != "" {
			f.remove = append(f.remove, r)
		}
	}
	return f
}

// Fix applies the full chain to s.
func (f *Fixer) Fix(s string) string {
	s = f.strip(s)
	s = FixMojibake(s)
	s = f.strip(s)
	return ToASCII(s)
}

func (f *Fixer) strip(s string) string {
	for _, r := range f.remove {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

// ToASCII transliterates s to its closest ASCII spelling.
func ToASCII(s string) string {
	if isASCII(s) {
		return s
	}
	s = norm.NFC.String(s)
	s = apostrophes.Replace(s)
	return unidecode.Unidecode(s)
}
