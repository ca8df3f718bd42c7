package extractor

import (
	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
)

// Status is the outcome of processing one transcript file.
type Status string

const (
	StatusExtracted  Status = "extracted"
	StatusNoMarker   Status = "no_marker"
	StatusEmptyText  Status = "empty_text"
	StatusParseError Status = "parse_error"
	StatusReadError  Status = "read_error"
)

// Item records what happened to a single transcript.
type Item struct {
	File          string
	ParticipantID string
	Status        Status
	Reason        string
	Memory        string
}

// Manifest lists the outcome of every transcript considered in one run,
// in the order they were processed.
type Manifest struct {
	Items []Item
}

// Extracted returns the items that produced a narrative record.
func (m *Manifest) Extracted() []Item {
	var out []Item
	for _, it := range m.Items {
		if it.Status == StatusExtracted {
			out = append(out, it)
		}
	}
	return out
}

// Skipped returns the items that produced no record.
func (m *Manifest) Skipped() []Item {
	var out []Item
	for _, it := range m.Items {
		if it.Status != StatusExtracted {
			out = append(out, it)
		}
	}
	return out
}

// Counts tallies items by status.
func (m *Manifest) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, it := range m.Items {
		counts[it.Status]++
	}
	return counts
}

// Records builds the narrative table with columns ParticipantID, memory.
func (m *Manifest) Records() *tabular.Table {
	t := tabular.New("ParticipantID", "memory")
	for _, it := range m.Extracted() {
		t.Append(tabular.Text(it.ParticipantID), tabular.Text(it.Memory))
	}
	return t
}

// Table builds the manifest table with one row per file.
func (m *Manifest) Table() *tabular.Table {
	t := tabular.New("file", "ParticipantID", "status", "reason")
	for _, it := range m.Items {
		reason := tabular.Null()
		if it.Reason != "" {
			reason = tabular.Text(it.Reason)
		}
		t.Append(tabular.Text(it.File), tabular.Text(it.ParticipantID), tabular.Text(string(it.Status)), reason)
	}
	return t
}
