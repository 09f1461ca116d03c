package review

import (
	"fmt"
	"log/slog"

	"github.com/joescharf/crf/internal/models"
)

// Gap records a field a recognized response could not supply. The field is
// set to a defined default and must not be treated as authoritative.
type Gap struct {
	ReviewID string
	Field    string
	Reason   string
}

func (g Gap) String() string {
	return fmt.Sprintf("review %s: %s %s", g.ReviewID, g.Field, g.Reason)
}

// Normalize turns either response shape into the canonical Review.
//
// Detail-shape files are flattened in file order, each suggestion stamped
// with its file's path; within-file order is kept. FileCount becomes the
// number of files and TotalChanges is recorded as unknown.
func Normalize(raw Raw) (*models.Review, []Gap, error) {
	var (
		r    *models.Review
		gaps []Gap
	)

	switch raw.Kind {
	case KindList:
		if raw.List == nil {
			return nil, nil, fmt.Errorf("normalize: list shape without payload")
		}
		l := raw.List
		r = &models.Review{
			ID:          l.ReviewID,
			CreatedAt:   l.CreatedAt.Time,
			FileCount:   l.FileCount,
			Suggestions: make([]models.Suggestion, 0, len(l.Suggestions)),
		}
		if l.TotalChanges != nil {
			r.TotalChanges = *l.TotalChanges
			r.TotalChangesKnown = true
		} else {
			gaps = append(gaps, Gap{ReviewID: l.ReviewID, Field: "total_changes", Reason: "missing from list response"})
		}
		for _, s := range l.Suggestions {
			r.Suggestions = append(r.Suggestions, s.Clone())
		}

	case KindDetail:
		if raw.Detail == nil {
			return nil, nil, fmt.Errorf("normalize: detail shape without payload")
		}
		d := raw.Detail
		r = &models.Review{
			ID:          d.ReviewID,
			CreatedAt:   d.CreatedAt.Time,
			FileCount:   len(d.Files),
			Suggestions: []models.Suggestion{},
		}
		gaps = append(gaps, Gap{ReviewID: d.ReviewID, Field: "total_changes", Reason: "not carried by detail response"})
		for _, f := range d.Files {
			for _, s := range f.Suggestions {
				c := s.Clone()
				c.FilePath = f.FilePath
				r.Suggestions = append(r.Suggestions, c)
			}
		}

	default:
		return nil, nil, fmt.Errorf("normalize: unknown response shape")
	}

	if r.CreatedAt.IsZero() {
		gaps = append(gaps, Gap{ReviewID: r.ID, Field: "created_at", Reason: "missing or empty"})
	}

	seen := make(map[string]bool, len(r.Suggestions))
	for i := range r.Suggestions {
		s := &r.Suggestions[i]
		if seen[s.ID] {
			return nil, nil, fmt.Errorf("normalize: duplicate suggestion id %s in review %s", s.ID, r.ID)
		}
		seen[s.ID] = true

		switch {
		case s.Status == "":
			s.Status = models.SuggestionStatusPending
		case !s.Status.Valid():
			gaps = append(gaps, Gap{ReviewID: r.ID, Field: "suggestions." + s.ID + ".status", Reason: fmt.Sprintf("unknown value %q", s.Status)})
			s.Status = models.SuggestionStatusPending
		}
	}

	return r, gaps, nil
}

// LogGaps reports normalization gaps at warn level.
func LogGaps(logger *slog.Logger, gaps []Gap) {
	for _, g := range gaps {
		logger.Warn("normalization gap", "review_id", g.ReviewID, "field", g.Field, "reason", g.Reason)
	}
}
