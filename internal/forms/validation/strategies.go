package validation

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
)

// Strategy checks one value against one rule. It returns an empty message when
// the value passes.
type Strategy interface {
	Check(value any, props map[string]any) string
}

type StrategyFunc func(value any, props map[string]any) string

func (f StrategyFunc) Check(value any, props map[string]any) string { return f(value, props) }

// Registry maps input-rule keys to strategies.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	r := &Registry{strategies: map[string]Strategy{}}
	r.Register("required", StrategyFunc(checkRequired))
	r.Register("email", skipEmpty(checkEmail))
	r.Register("min_length", skipEmpty(checkMinLength))
	r.Register("max_length", skipEmpty(checkMaxLength))
	r.Register("pattern", skipEmpty(checkPattern))
	r.Register("min", skipEmpty(checkMin))
	r.Register("max", skipEmpty(checkMax))
	r.Register("numeric", skipEmpty(checkNumeric))
	r.Register("one_of", skipEmpty(checkOneOf))
	r.Register("json_schema", skipEmpty(checkJSONSchema))
	return r
}

func (r *Registry) Register(key string, s Strategy) {
	r.strategies[strings.ToLower(strings.TrimSpace(key))] = s
}

func (r *Registry) Lookup(key string) (Strategy, bool) {
	s, ok := r.strategies[strings.ToLower(strings.TrimSpace(key))]
	return s, ok
}

// skipEmpty lets blank values through; emptiness is the required rule's job.
func skipEmpty(fn func(value any, props map[string]any) string) Strategy {
	return StrategyFunc(func(value any, props map[string]any) string {
		if conditions.IsEmptyValue(value) {
			return ""
		}
		return fn(value, props)
	})
}

func checkRequired(value any, _ map[string]any) string {
	if conditions.IsEmptyValue(value) {
		return "This field is required."
	}
	return ""
}

func checkEmail(value any, _ map[string]any) string {
	if !IsEmail(conditions.TextOf(value)) {
		return "Enter a valid email address."
	}
	return ""
}

// IsEmail accepts a bare address, not a display-name form.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func lengthOf(value any) int {
	if list, ok := conditions.ListOf(value); ok {
		return len(list)
	}
	return utf8.RuneCountInString(conditions.TextOf(value))
}

func checkMinLength(value any, props map[string]any) string {
	n, ok := propNumber(props, "value", "min_length", "min", "length")
	if ok && float64(lengthOf(value)) < n {
		return fmt.Sprintf("Must be at least %s characters.", conditions.TextOf(n))
	}
	return ""
}

func checkMaxLength(value any, props map[string]any) string {
	n, ok := propNumber(props, "value", "max_length", "max", "length")
	if ok && float64(lengthOf(value)) > n {
		return fmt.Sprintf("Must be at most %s characters.", conditions.TextOf(n))
	}
	return ""
}

func checkPattern(value any, props map[string]any) string {
	pattern := propString(props, "value", "pattern", "regex")
	if pattern == "" {
		return ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	if !re.MatchString(conditions.TextOf(value)) {
		if msg := propString(props, "message"); msg != "" {
			return msg
		}
		return "Value has an invalid format."
	}
	return ""
}

func checkMin(value any, props map[string]any) string {
	bound, ok := propNumber(props, "value", "min")
	if !ok {
		return ""
	}
	n, isNum := conditions.NumberOf(value)
	if !isNum {
		return "Must be a number."
	}
	if n < bound {
		return fmt.Sprintf("Must be at least %s.", conditions.TextOf(bound))
	}
	return ""
}

func checkMax(value any, props map[string]any) string {
	bound, ok := propNumber(props, "value", "max")
	if !ok {
		return ""
	}
	n, isNum := conditions.NumberOf(value)
	if !isNum {
		return "Must be a number."
	}
	if n > bound {
		return fmt.Sprintf("Must be at most %s.", conditions.TextOf(bound))
	}
	return ""
}

func checkNumeric(value any, _ map[string]any) string {
	if _, ok := conditions.NumberOf(value); !ok {
		return "Must be a number."
	}
	return ""
}

func checkOneOf(value any, props map[string]any) string {
	var allowed []any
	for _, key := range []string{"values", "options", "value"} {
		if list, ok := conditions.ListOf(props[key]); ok {
			allowed = list
			break
		}
	}
	if allowed == nil {
		return ""
	}
	candidates, ok := conditions.ListOf(value)
	if !ok {
		candidates = []any{value}
	}
	for _, c := range candidates {
		found := false
		for _, a := range allowed {
			if conditions.TextOf(a) == conditions.TextOf(c) {
				found = true
				break
			}
		}
		if !found {
			return "Select one of the allowed options."
		}
	}
	return ""
}

func checkJSONSchema(value any, props map[string]any) string {
	schema, ok := props["schema"]
	if !ok || schema == nil {
		return ""
	}
	if s, isText := schema.(string); isText {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return ""
		}
		schema = decoded
	}
	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(value))
	if err != nil {
		return "Value could not be checked against its schema."
	}
	if res.Valid() {
		return ""
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

func propNumber(props map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if n, ok := conditions.NumberOf(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func propString(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := props[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
