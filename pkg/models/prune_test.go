package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileResult_Pruned(t *testing.T) {
	r := &FileResult{Path: "a.tsx"}
	assert.False(t, r.Pruned())

	r.Edits = []Edit{{Start: 0, End: 4}}
	assert.True(t, r.Pruned())
}

func TestNewPruneAnalysis(t *testing.T) {
	files := []FileResult{
		{Path: "a.tsx", Removed: []string{"Debug", "styles.debugPanel"}, Edits: []Edit{{Start: 0, End: 1}}},
		{Path: "b.tsx"},
		{Path: "c.tsx", Removed: []string{"auditLog"}, Edits: []Edit{{Start: 5, End: 9}}},
	}

	a := NewPruneAnalysis("restricted", files, 1)

	assert.Equal(t, "restricted", a.Mode)
	assert.Equal(t, 4, a.Summary.TotalFiles)
	assert.Equal(t, 2, a.Summary.PrunedFiles)
	assert.Equal(t, 3, a.Summary.RemovedSymbols)
	assert.Equal(t, 1, a.Summary.FailedFiles)
	assert.False(t, a.GeneratedAt.IsZero())
}
