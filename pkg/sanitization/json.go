package sanitization

import (
	"encoding/json"
	"fmt"
)

// SanitizeJSON recursively sanitizes JSON data for logging.
//
// It returns indented JSON with known sensitive fields masked/redacted while preserving structure.
func SanitizeJSON(jsonBytes []byte) string {
	if len(jsonBytes) == 0 {
		return "(empty)"
	}

	var data any
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return fmt.Sprintf("(malformed JSON: %s)", err.Error())
	}

	out, err := json.MarshalIndent(sanitizeJSONValue(data), "", "  ")
	if err != nil {
		return "(error marshaling sanitized JSON)"
	}
	return string(out)
}

func sanitizeJSONValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			switch sv := SanitizeFieldValue(key, item).(type) {
			case map[string]any:
				result[key] = sanitizeJSONValue(sv)
			case []any:
				result[key] = sanitizeJSONValue(sv)
			default:
				result[key] = sv
			}
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i := range v {
			result[i] = sanitizeJSONValue(v[i])
		}
		return result
	case float64, bool, nil:
		return v
	default:
		return sanitizeValue(v)
	}
}
