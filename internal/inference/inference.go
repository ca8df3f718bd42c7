// Package inference defines how the scorer drives a model runtime.
package inference

import (
	"context"
	"errors"
)

// ErrShapeMismatch is returned when a runtime answers with a different
// number of scores than texts submitted.
var ErrShapeMismatch = errors.New("model output does not match batch size")

// Dimension identifies one scoring dimension and the model that scores it.
type Dimension struct {
	Name    string
	ModelID string
	Model   string
	Device  string
}

// Backend opens one inference session per dimension.
type Backend interface {
	Open(ctx context.Context, dim Dimension) (Session, error)
}

// Session scores texts with a loaded model. Score returns one raw model
// output per text, in submission order. Close releases the model and every
// resource tied to it; it must be safe to call after a failed Score.
type Session interface {
	Score(ctx context.Context, texts []string) ([]float64, error)
	Close(ctx context.Context) error
}
