package models

import "time"

// Review is one analysis run over a diff or pull request.
// Suggestions keep the order the backend returned them in.
type Review struct {
	ID                string       `json:"review_id"`
	CreatedAt         time.Time    `json:"created_at"`
	FileCount         int          `json:"file_count"`
	TotalChanges      int          `json:"total_changes"`
	TotalChangesKnown bool         `json:"total_changes_known"`
	Suggestions       []Suggestion `json:"suggestions"`
}

// Index returns the position of the suggestion with the given id, or -1.
func (r *Review) Index(suggestionID string) int {
	for i := range r.Suggestions {
		if r.Suggestions[i].ID == suggestionID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the review and its suggestions.
func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	c.Suggestions = make([]Suggestion, len(r.Suggestions))
	for i, s := range r.Suggestions {
		c.Suggestions[i] = s.Clone()
	}
	return &c
}

// StatusCounts tallies suggestions by status.
func (r *Review) StatusCounts() map[SuggestionStatus]int {
	counts := make(map[SuggestionStatus]int)
	for _, s := range r.Suggestions {
		counts[s.Status]++
	}
	return counts
}

// ReviewSummary is a lightweight history entry. It only points at a review;
// the full review must be fetched by ID.
type ReviewSummary struct {
	ID              string    `json:"review_id"`
	CreatedAt       Timestamp `json:"created_at"`
	SuggestionCount int       `json:"suggestion_count"`
	Files           []string  `json:"files"`
}

// ShortID returns the first 8 characters of the review ID.
func (s ReviewSummary) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}
