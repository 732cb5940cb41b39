// Package catalog holds an immutable view of the reference tables: field types,
// input rules and transition actions, keyed both by id and by key.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	domaincatalog "github.com/yungbote/formflow-backend/internal/domain/catalog"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
)

const propsOp = "Forms.Catalog.ValidateProps"

type entry struct {
	key    string
	name   string
	schema *gojsonschema.Schema
}

// Snapshot implements graph.Catalog and graph.CatalogKeys.
type Snapshot struct {
	fieldTypes map[uuid.UUID]entry
	inputRules map[uuid.UUID]entry
	actions    map[uuid.UUID]entry
	byKey      map[string]uuid.UUID
}

var (
	_ graph.Catalog     = (*Snapshot)(nil)
	_ graph.CatalogKeys = (*Snapshot)(nil)
)

// NewSnapshot compiles every props schema up front; a schema that does not
// compile is an error so a bad seed fails at startup.
func NewSnapshot(fieldTypes []*domaincatalog.FieldType, inputRules []*domaincatalog.InputRule, actions []*domaincatalog.Action) (*Snapshot, error) {
	s := &Snapshot{
		fieldTypes: make(map[uuid.UUID]entry, len(fieldTypes)),
		inputRules: make(map[uuid.UUID]entry, len(inputRules)),
		actions:    make(map[uuid.UUID]entry, len(actions)),
		byKey:      map[string]uuid.UUID{},
	}
	for _, ft := range fieldTypes {
		s.fieldTypes[ft.ID] = entry{key: ft.Key, name: ft.Name}
		s.byKey["field_type:"+ft.Key] = ft.ID
	}
	for _, ir := range inputRules {
		schema, err := compile(ir.PropsSchema)
		if err != nil {
			return nil, fmt.Errorf("input rule %q props schema: %w", ir.Key, err)
		}
		s.inputRules[ir.ID] = entry{key: ir.Key, name: ir.Name, schema: schema}
		s.byKey["input_rule:"+ir.Key] = ir.ID
	}
	for _, a := range actions {
		schema, err := compile(a.PropsSchema)
		if err != nil {
			return nil, fmt.Errorf("action %q props schema: %w", a.Key, err)
		}
		s.actions[a.ID] = entry{key: a.Key, name: a.Name, schema: schema}
		s.byKey["action:"+a.Key] = a.ID
	}
	return s, nil
}

func compile(raw []byte) (*gojsonschema.Schema, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}

func (s *Snapshot) HasFieldType(id uuid.UUID) bool { _, ok := s.fieldTypes[id]; return ok }
func (s *Snapshot) HasInputRule(id uuid.UUID) bool { _, ok := s.inputRules[id]; return ok }
func (s *Snapshot) HasAction(id uuid.UUID) bool    { _, ok := s.actions[id]; return ok }

func (s *Snapshot) FieldTypeKey(id uuid.UUID) string { return s.fieldTypes[id].key }
func (s *Snapshot) InputRuleKey(id uuid.UUID) string { return s.inputRules[id].key }
func (s *Snapshot) ActionKey(id uuid.UUID) string    { return s.actions[id].key }

// FieldTypeID looks up a field type by key.
func (s *Snapshot) FieldTypeID(key string) (uuid.UUID, bool) {
	id, ok := s.byKey["field_type:"+key]
	return id, ok
}

func (s *Snapshot) InputRuleID(key string) (uuid.UUID, bool) {
	id, ok := s.byKey["input_rule:"+key]
	return id, ok
}

func (s *Snapshot) ActionID(key string) (uuid.UUID, bool) {
	id, ok := s.byKey["action:"+key]
	return id, ok
}

// ValidateProps checks every rule_props and action_props blob of g against the
// schema of its catalog entry. All violations are reported together.
func (s *Snapshot) ValidateProps(g *graph.Graph) error {
	var problems []string
	for _, r := range g.Rules {
		e := s.inputRules[r.InputRuleID]
		if msg := check(e.schema, r.RuleProps); msg != "" {
			problems = append(problems, fmt.Sprintf("rule %s (%s): %s", r.ID, e.key, msg))
		}
	}
	for _, a := range g.Actions {
		e := s.actions[a.ActionID]
		if msg := check(e.schema, a.ActionProps); msg != "" {
			problems = append(problems, fmt.Sprintf("action %s (%s): %s", a.ID, e.key, msg))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return domainagg.NewError(domainagg.CodeValidation, propsOp, strings.Join(problems, "; "), nil)
}

func check(schema *gojsonschema.Schema, props []byte) string {
	if schema == nil {
		return ""
	}
	doc := props
	if len(strings.TrimSpace(string(doc))) == 0 || strings.TrimSpace(string(doc)) == "null" {
		doc = []byte("{}")
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return "props are not valid JSON"
	}
	if res.Valid() {
		return ""
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, ", ")
}
