package conditions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Values maps field ids to submitted or stored values.
type Values map[string]any

// Lookup treats an absent key and an explicit nil the same way.
func (v Values) Lookup(fieldID string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v[strings.TrimSpace(fieldID)]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

// Merge returns a new Values with overlay applied on top of v.
func (v Values) Merge(overlay Values) Values {
	out := make(Values, len(v)+len(overlay))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range overlay {
		out[k] = val
	}
	return out
}

// IsEmptyValue reports blank strings, empty lists and empty objects.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// TextOf renders a scalar as trimmed text.
func TextOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// NumberOf parses v as a number when possible.
func NumberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// DateOf parses v as an RFC3339 timestamp or a calendar date.
func DateOf(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ListOf returns v as a list when it is one.
func ListOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
