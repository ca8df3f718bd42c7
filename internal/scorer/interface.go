package scorer

import "context"

// Scorer fills the score columns of a narrative table, one dimension at a time.
type Scorer interface {
	Run(ctx context.Context) (*Summary, error)
}

// Summary reports what a run did.
type Summary struct {
	Input      string
	Dropped    int
	Carried    int
	Dimensions []DimensionSummary
}

// DimensionSummary reports one dimension of a run.
type DimensionSummary struct {
	Name    string
	Column  string
	Scored  int
	Batches int
	Skipped bool
}
