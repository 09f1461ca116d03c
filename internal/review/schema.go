package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const suggestionSchemaJSON = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": { "type": "string", "minLength": 1 },
    "file_path": { "type": ["string", "null"] },
    "line_number": { "type": ["integer", "null"] },
    "end_line_number": { "type": ["integer", "null"] },
    "category": { "type": ["string", "null"] },
    "confidence": { "type": ["integer", "null"], "minimum": 0, "maximum": 100 },
    "suggestion": { "type": ["string", "null"] },
    "code_snippet": { "type": ["string", "null"] },
    "status": { "type": ["string", "null"] }
  }
}`

var listSchemaJSON = `{
  "type": "object",
  "required": ["review_id", "suggestions"],
  "properties": {
    "review_id": { "type": "string", "minLength": 1 },
    "file_count": { "type": ["integer", "null"], "minimum": 0 },
    "total_changes": { "type": ["integer", "null"], "minimum": 0 },
    "created_at": { "type": ["string", "null"] },
    "suggestions": { "type": "array", "items": ` + suggestionSchemaJSON + ` }
  },
  "not": { "required": ["files"] }
}`

var detailSchemaJSON = `{
  "type": "object",
  "required": ["review_id", "files"],
  "properties": {
    "review_id": { "type": "string", "minLength": 1 },
    "created_at": { "type": ["string", "null"] },
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["file_path", "suggestions"],
        "properties": {
          "file_path": { "type": "string" },
          "suggestions": { "type": "array", "items": ` + suggestionSchemaJSON + ` }
        }
      }
    }
  }
}`

var (
	listSchemaLoader   = gojsonschema.NewStringLoader(listSchemaJSON)
	detailSchemaLoader = gojsonschema.NewStringLoader(detailSchemaJSON)
)

// Decode classifies a backend review body as a list or detail shape and
// decodes it. Bodies matching neither schema are rejected with the schema
// violations of the closer candidate.
func Decode(body []byte) (Raw, error) {
	doc := gojsonschema.NewBytesLoader(body)

	detailResult, err := gojsonschema.Validate(detailSchemaLoader, doc)
	if err != nil {
		return Raw{}, fmt.Errorf("decode review: %w", err)
	}
	if detailResult.Valid() {
		var d DetailShape
		if err := json.Unmarshal(body, &d); err != nil {
			return Raw{}, fmt.Errorf("decode detail review: %w", err)
		}
		return FromDetail(d), nil
	}

	listResult, err := gojsonschema.Validate(listSchemaLoader, doc)
	if err != nil {
		return Raw{}, fmt.Errorf("decode review: %w", err)
	}
	if listResult.Valid() {
		var l ListShape
		if err := json.Unmarshal(body, &l); err != nil {
			return Raw{}, fmt.Errorf("decode list review: %w", err)
		}
		return FromList(l), nil
	}

	closest := listResult
	if hasKey(body, "files") {
		closest = detailResult
	}
	return Raw{}, fmt.Errorf("unrecognized review response: %s", describeErrors(closest))
}

func hasKey(body []byte, key string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

func describeErrors(result *gojsonschema.Result) string {
	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	if len(msgs) == 0 {
		return "no schema matched"
	}
	return strings.Join(msgs, "; ")
}
