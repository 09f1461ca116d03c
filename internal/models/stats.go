package models

import (
	"encoding/json"
	"fmt"
)

// StatsSummary is the backend's aggregate over the feedback log.
type StatsSummary struct {
	TotalFeedback  int                       `json:"total_feedback"`
	Accepts        int                       `json:"accepts"`
	Rejects        int                       `json:"rejects"`
	Edits          int                       `json:"edits"`
	AcceptanceRate float64                   `json:"acceptance_rate"`
	ByCategory     map[string]CategoryCounts `json:"by_category"`
}

// CategoryCounts holds per-category feedback counters.
type CategoryCounts struct {
	Total   int `json:"total"`
	Accepts int `json:"accepts"`
	Rejects int `json:"rejects"`
	Edits   int `json:"edits"`
}

// UnmarshalJSON accepts either a bare count or an object of counters keyed
// by plural ("accepts") or action ("accept") names. Other fields, such as a
// per-category rate, are ignored.
func (c *CategoryCounts) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = CategoryCounts{Total: int(n)}
		return nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("category counts: %w", err)
	}
	count := func(keys ...string) (int, bool) {
		sum, found := 0, false
		for _, k := range keys {
			raw, ok := m[k]
			if !ok {
				continue
			}
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				continue
			}
			sum += int(v)
			found = true
		}
		return sum, found
	}

	out := CategoryCounts{}
	out.Accepts, _ = count("accepts", "accept")
	out.Rejects, _ = count("rejects", "reject")
	out.Edits, _ = count("edits", "edit")
	if t, ok := count("total"); ok {
		out.Total = t
	} else {
		out.Total = out.Accepts + out.Rejects + out.Edits
	}
	*c = out
	return nil
}
