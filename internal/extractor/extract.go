package extractor

import (
	"strings"

	"github.com/nguyentantai21042004/recall-scorer/internal/docx"
)

// Extract returns the trimmed text following the first occurrence of marker
// in the newline-joined paragraphs. The match is case-sensitive. ok is false
// when the marker does not occur.
func Extract(paragraphs []string, marker string) (text string, ok bool) {
	full := docx.FullText(paragraphs)
	_, after, found := strings.Cut(full, marker)
	if !found {
		return "", false
	}
	return strings.TrimSpace(after), true
}

// ParticipantID derives the participant identifier from a transcript file
// name by removing the extension and keeping everything else verbatim.
func ParticipantID(filename, ext string) string {
	if ext != "" && strings.HasSuffix(filename, ext) && len(filename) > len(ext) {
		return strings.TrimSuffix(filename, ext)
	}
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
