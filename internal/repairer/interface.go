package repairer

import "context"

// Repairer fixes encoding damage in a tabular file and, after confirmation,
// writes a cleaned copy next to it.
type Repairer interface {
	// Run returns -1 on failure, 0 when nothing needed fixing and the number
	// of changed cells otherwise.
	Run(ctx context.Context) int
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}
