package executor

import "context"

// Executor runs external programs.
type Executor interface {
	// Execute runs name with args and returns its stdout.
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// Available reports whether name can be found on PATH.
	Available(name string) bool
}
