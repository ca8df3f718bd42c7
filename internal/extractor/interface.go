package extractor

import (
	"context"
	"errors"
)

// ErrInputNotFound is returned when the transcript directory does not exist.
var ErrInputNotFound = errors.New("input directory not found")

// Extractor turns a directory of interview transcripts into a table of
// free-recall narratives.
type Extractor interface {
	Run(ctx context.Context) (*Manifest, error)
}
