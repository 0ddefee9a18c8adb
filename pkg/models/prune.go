// Package models defines the data types shared between the pruning engine,
// the CLI, and report serialization.
package models

import "time"

// Edit is a byte-span replacement against the original source. An empty Text
// deletes the span. Edits produced for one file never overlap.
type Edit struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	Text  string `json:"text"`
}

// FileResult is the outcome of pruning a single file.
type FileResult struct {
	Path    string   `json:"path"`
	Removed []string `json:"removed,omitempty"`
	Edits   []Edit   `json:"-"`
	// Output holds the transformed source when the caller asked for it.
	Output []byte `json:"-"`
}

// Pruned reports whether the file was changed at all.
func (r *FileResult) Pruned() bool {
	return len(r.Edits) > 0
}

// PruneSummary aggregates a whole run.
type PruneSummary struct {
	TotalFiles     int `json:"total_files"`
	PrunedFiles    int `json:"pruned_files"`
	RemovedSymbols int `json:"removed_symbols"`
	FailedFiles    int `json:"failed_files"`
}

// PruneAnalysis is the complete result of one build's restricted pass.
type PruneAnalysis struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Mode        string       `json:"mode"`
	Files       []FileResult `json:"files"`
	Summary     PruneSummary `json:"summary"`
}

// NewPruneAnalysis builds an analysis with a computed summary.
func NewPruneAnalysis(mode string, files []FileResult, failed int) *PruneAnalysis {
	a := &PruneAnalysis{
		GeneratedAt: time.Now(),
		Mode:        mode,
		Files:       files,
	}
	a.Summary.TotalFiles = len(files) + failed
	a.Summary.FailedFiles = failed
	for _, f := range files {
		if f.Pruned() {
			a.Summary.PrunedFiles++
		}
		a.Summary.RemovedSymbols += len(f.Removed)
	}
	return a
}
