// Package stats projects the backend's feedback summary into display form.
package stats

import (
	"math"
	"sort"

	"github.com/joescharf/crf/internal/models"
)

// CategoryRow is one by-category line of the display.
type CategoryRow struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Accepts  int    `json:"accepts"`
	Rejects  int    `json:"rejects"`
	Edits    int    `json:"edits"`
}

// DisplayStats is the read-only view of a StatsSummary.
type DisplayStats struct {
	TotalFeedback int `json:"total_feedback"`
	Accepts       int `json:"accepts"`
	Rejects       int `json:"rejects"`
	Edits         int `json:"edits"`
	// AcceptanceRate is a percentage rounded to one decimal.
	AcceptanceRate float64 `json:"acceptance_rate"`
	// BackendRate is the rate as reported by the backend.
	BackendRate float64       `json:"backend_rate"`
	ByCategory  []CategoryRow `json:"by_category"`
	// Inconsistent is set when accepts+rejects+edits != total.
	Inconsistent bool `json:"inconsistent,omitempty"`
}

// Project derives display statistics from s. It never mutates s.
func Project(s models.StatsSummary) DisplayStats {
	out := DisplayStats{
		TotalFeedback:  s.TotalFeedback,
		Accepts:        s.Accepts,
		Rejects:        s.Rejects,
		Edits:          s.Edits,
		AcceptanceRate: Rate(s.Accepts, s.TotalFeedback),
		BackendRate:    s.AcceptanceRate,
		ByCategory:     make([]CategoryRow, 0, len(s.ByCategory)),
		Inconsistent:   s.Accepts+s.Rejects+s.Edits != s.TotalFeedback,
	}

	for name, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, CategoryRow{
			Category: name,
			Total:    c.Total,
			Accepts:  c.Accepts,
			Rejects:  c.Rejects,
			Edits:    c.Edits,
		})
	}
	sort.Slice(out.ByCategory, func(i, j int) bool {
		return out.ByCategory[i].Category < out.ByCategory[j].Category
	})
	return out
}

// Rate returns accepts/total as a percentage rounded to one decimal, or 0
// when total is 0.
func Rate(accepts, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(accepts)/float64(total)*1000) / 10
}
