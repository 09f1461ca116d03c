package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/crf/internal/models"
)

func TestProject_Empty(t *testing.T) {
	got := Project(models.StatsSummary{})
	assert.Equal(t, 0, got.TotalFeedback)
	assert.Equal(t, 0.0, got.AcceptanceRate)
	assert.NotNil(t, got.ByCategory)
	assert.Empty(t, got.ByCategory)
	assert.False(t, got.Inconsistent)
}

func TestProject_RateAndCategories(t *testing.T) {
	s := models.StatsSummary{
		TotalFeedback:  10,
		Accepts:        7,
		Rejects:        2,
		Edits:          1,
		AcceptanceRate: 70,
		ByCategory: map[string]models.CategoryCounts{
			"style":    {Total: 4, Accepts: 3, Rejects: 1},
			"bug_risk": {Total: 6, Accepts: 4, Rejects: 1, Edits: 1},
		},
	}

	got := Project(s)
	assert.Equal(t, 70.0, got.AcceptanceRate)
	assert.Equal(t, 70.0, got.BackendRate)
	assert.False(t, got.Inconsistent)
	require.Len(t, got.ByCategory, 2)
	assert.Equal(t, "bug_risk", got.ByCategory[0].Category)
	assert.Equal(t, "style", got.ByCategory[1].Category)
	assert.Equal(t, 3, got.ByCategory[1].Accepts)

	assert.Len(t, s.ByCategory, 2, "input left untouched")
}

func TestProject_Inconsistent(t *testing.T) {
	got := Project(models.StatsSummary{TotalFeedback: 5, Accepts: 1, Rejects: 1})
	assert.True(t, got.Inconsistent)
	assert.Equal(t, 5, got.TotalFeedback, "counters are not corrected")
	assert.Equal(t, 20.0, got.AcceptanceRate)
}

func TestRate(t *testing.T) {
	tests := []struct {
		accepts, total int
		want           float64
	}{
		{0, 0, 0},
		{7, 10, 70},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{1, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.accepts, tt.total), "%d/%d", tt.accepts, tt.total)
	}
}
