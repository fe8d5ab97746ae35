package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	ErrNoJSON         = errors.New("no JSON object found in response")
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// ExtractJSON returns the first balanced JSON object in a model reply,
// skipping markdown fences and prose around it.
func ExtractJSON(response string) (string, error) {
	for offset := 0; offset < len(response); {
		start := strings.IndexByte(response[offset:], '{')
		if start < 0 {
			break
		}
		start += offset

		if candidate, ok := balancedObject(response[start:]); ok && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		offset = start + 1
	}
	return "", ErrNoJSON
}

func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// DecodeStructured extracts the JSON object from response, drops null
// members, checks it against schema and unmarshals it into v.
func DecodeStructured(response string, schema jsonschema.Definition, v any) error {
	raw, err := ExtractJSON(response)
	if err != nil {
		return err
	}

	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	cleaned, err := json.Marshal(pruneNulls(generic))
	if err != nil {
		return fmt.Errorf("failed to re-encode JSON: %w", err)
	}

	if err := jsonschema.VerifySchemaAndUnmarshal(schema, cleaned, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// pruneNulls removes null object members recursively. Optional fields are
// then simply absent, which the schema validator accepts.
func pruneNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = pruneNulls(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			if val == nil {
				continue
			}
			out = append(out, pruneNulls(val))
		}
		return out
	default:
		return v
	}
}
