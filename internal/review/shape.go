package review

import (
	"github.com/joescharf/crf/internal/models"
)

// Kind tags which response shape a Raw value carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindList
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// ListShape is returned by POST /review: a flat suggestion list whose
// entries already carry their file path.
type ListShape struct {
	ReviewID     string              `json:"review_id"`
	FileCount    int                 `json:"file_count"`
	TotalChanges *int                `json:"total_changes"`
	Suggestions  []models.Suggestion `json:"suggestions"`
	CreatedAt    models.Timestamp    `json:"created_at"`
}

// FileSuggestions groups the suggestions for one file in a DetailShape.
type FileSuggestions struct {
	FilePath    string              `json:"file_path"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// DetailShape is returned by GET /review/{id}: suggestions nested per file.
// It carries no line-change total.
type DetailShape struct {
	ReviewID  string            `json:"review_id"`
	CreatedAt models.Timestamp  `json:"created_at"`
	Files     []FileSuggestions `json:"files"`
}

// Raw is a backend review response of exactly one known shape.
type Raw struct {
	Kind   Kind
	List   *ListShape
	Detail *DetailShape
}

// FromList wraps a list-shape response.
func FromList(l ListShape) Raw {
	return Raw{Kind: KindList, List: &l}
}

// FromDetail wraps a detail-shape response.
func FromDetail(d DetailShape) Raw {
	return Raw{Kind: KindDetail, Detail: &d}
}

// ReviewID returns the review id regardless of shape.
func (r Raw) ReviewID() string {
	switch r.Kind {
	case KindList:
		return r.List.ReviewID
	case KindDetail:
		return r.Detail.ReviewID
	default:
		return ""
	}
}
