package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ListShape(t *testing.T) {
	body := `{
		"review_id": "r1",
		"file_count": 1,
		"total_changes": 12,
		"created_at": "2024-05-01T10:00:00.123456",
		"suggestions": [
			{"id": "s1", "file_path": "a.py", "line_number": 4, "end_line_number": null,
			 "category": "bug_risk", "confidence": 91, "suggestion": "check nil", "code_snippet": null}
		]
	}`

	raw, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindList, raw.Kind)
	require.NotNil(t, raw.List)
	assert.Equal(t, "r1", raw.ReviewID())
	require.NotNil(t, raw.List.TotalChanges)
	assert.Equal(t, 12, *raw.List.TotalChanges)
	require.Len(t, raw.List.Suggestions, 1)
	assert.Equal(t, "check nil", raw.List.Suggestions[0].Text)
	assert.Nil(t, raw.List.Suggestions[0].EndLineNumber)
	assert.Equal(t, 2024, raw.List.CreatedAt.Year())
}

func TestDecode_DetailShape(t *testing.T) {
	body := `{
		"review_id": "r2",
		"created_at": "2024-05-01T10:00:00Z",
		"files": [
			{"file_path": "a.py", "suggestions": [{"id": "x1", "line_number": 1, "category": "style", "confidence": 50, "suggestion": "s"}]},
			{"file_path": "b.py", "suggestions": []}
		]
	}`

	raw, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindDetail, raw.Kind)
	require.NotNil(t, raw.Detail)
	assert.Len(t, raw.Detail.Files, 2)
	assert.Equal(t, "r2", raw.ReviewID())
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"no review id", `{"suggestions": []}`},
		{"history summary", `{"review_id": "r1", "suggestion_count": 2, "files": ["a.py"]}`},
		{"suggestion without id", `{"review_id": "r1", "suggestions": [{"file_path": "a.py"}]}`},
		{"confidence out of range", `{"review_id": "r1", "suggestions": [{"id": "s", "confidence": 140}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "detail", KindDetail.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
