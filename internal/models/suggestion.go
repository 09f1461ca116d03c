package models

import "fmt"

// SuggestionStatus is the reviewer's disposition of a suggestion.
type SuggestionStatus string

const (
	SuggestionStatusPending  SuggestionStatus = "pending"
	SuggestionStatusAccepted SuggestionStatus = "accepted"
	SuggestionStatusRejected SuggestionStatus = "rejected"
	SuggestionStatusEdited   SuggestionStatus = "edited"
)

// IsTerminal reports whether no further feedback may be recorded.
func (s SuggestionStatus) IsTerminal() bool {
	switch s {
	case SuggestionStatusAccepted, SuggestionStatusRejected, SuggestionStatusEdited:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s SuggestionStatus) Valid() bool {
	return s == SuggestionStatusPending || s.IsTerminal()
}

// Suggestion is one machine-generated finding within a review.
// Status, EditedText and RejectReason are owned by the feedback controller.
type Suggestion struct {
	ID            string           `json:"id"`
	FilePath      string           `json:"file_path"`
	LineNumber    int              `json:"line_number"`
	EndLineNumber *int             `json:"end_line_number"`
	Category      string           `json:"category"`
	Confidence    int              `json:"confidence"`
	Text          string           `json:"suggestion"`
	CodeSnippet   *string          `json:"code_snippet"`
	Status        SuggestionStatus `json:"status,omitempty"`
	EditedText    *string          `json:"edited_text,omitempty"`
	RejectReason  *string          `json:"reject_reason,omitempty"`
}

// LineRange renders the line span, e.g. "12" or "12-18".
func (s Suggestion) LineRange() string {
	if s.EndLineNumber != nil && *s.EndLineNumber != s.LineNumber {
		return fmt.Sprintf("%d-%d", s.LineNumber, *s.EndLineNumber)
	}
	return fmt.Sprintf("%d", s.LineNumber)
}

// Clone returns a deep copy.
func (s Suggestion) Clone() Suggestion {
	c := s
	c.EndLineNumber = cloneInt(s.EndLineNumber)
	c.CodeSnippet = cloneString(s.CodeSnippet)
	c.EditedText = cloneString(s.EditedText)
	c.RejectReason = cloneString(s.RejectReason)
	return c
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
