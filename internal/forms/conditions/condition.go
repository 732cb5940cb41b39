package conditions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Node is a parsed condition tree.
type Node interface {
	Eval(values Values) bool
}

type always struct{}

func (always) Eval(Values) bool { return true }

// Always is the condition used when none is configured.
var Always Node = always{}

type allOf []Node

func (n allOf) Eval(values Values) bool {
	for _, c := range n {
		if !c.Eval(values) {
			return false
		}
	}
	return true
}

type anyOf []Node

func (n anyOf) Eval(values Values) bool {
	for _, c := range n {
		if c.Eval(values) {
			return true
		}
	}
	return false
}

type leaf struct {
	field        string
	op           Operator
	compare      any
	compareField string
}

func (n leaf) Eval(values Values) bool {
	actual, present := values.Lookup(n.field)
	if !present {
		return n.op.Name == "is_empty"
	}
	if n.op.Unary {
		return n.op.Apply(actual, nil)
	}
	expected := n.compare
	if n.compareField != "" {
		v, ok := values.Lookup(n.compareField)
		if !ok {
			return false
		}
		expected = v
	}
	return n.op.Apply(actual, expected)
}

// Parse decodes a JSON condition. Empty input, null and {} parse to Always.
func Parse(raw []byte) (Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Always, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}
	return FromValue(v)
}

// FromValue builds a Node from JSON-decoded data.
func FromValue(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Always, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return Always, nil
		}
		return Parse([]byte(t))
	case map[string]any:
		return fromObject(t)
	default:
		return nil, fmt.Errorf("condition must be an object, got %T", v)
	}
}

func fromObject(obj map[string]any) (Node, error) {
	if len(obj) == 0 {
		return Always, nil
	}
	if rawOp, ok := obj["op"]; ok {
		return fromCombinator(rawOp, obj["conditions"])
	}
	return fromLeaf(obj)
}

func fromCombinator(rawOp any, rawChildren any) (Node, error) {
	opName, _ := rawOp.(string)
	var children []any
	if rawChildren != nil {
		list, ok := rawChildren.([]any)
		if !ok {
			return nil, fmt.Errorf("conditions must be a list")
		}
		children = list
	}
	nodes := make([]Node, 0, len(children))
	for i, c := range children {
		n, err := FromValue(c)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	switch strings.ToUpper(strings.TrimSpace(opName)) {
	case "AND":
		return allOf(nodes), nil
	case "OR":
		return anyOf(nodes), nil
	default:
		return nil, fmt.Errorf("unknown combinator %q", opName)
	}
}

func fromLeaf(obj map[string]any) (Node, error) {
	rawField, ok := obj["field"]
	if !ok {
		return nil, fmt.Errorf("condition leaf missing field")
	}
	// A nulled reference (field deleted by a rewrite) reads as a missing value.
	field, _ := rawField.(string)
	field = strings.TrimSpace(field)
	opName, _ := obj["operator"].(string)
	op, ok := LookupOperator(opName)
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", opName)
	}
	n := leaf{field: field, op: op, compare: obj["comparevalue"]}
	if cf, ok := obj["compare_field"].(string); ok {
		n.compareField = strings.TrimSpace(cf)
	}
	return n, nil
}

// Evaluate parses raw and evaluates it against values.
func Evaluate(raw []byte, values Values) (bool, error) {
	n, err := Parse(raw)
	if err != nil {
		return false, err
	}
	return n.Eval(values), nil
}

// Holds evaluates raw and treats malformed conditions as false.
func Holds(raw []byte, values Values) bool {
	ok, err := Evaluate(raw, values)
	return err == nil && ok
}
