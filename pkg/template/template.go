// Package template implements the value-templating engine (C2): a
// per-scenario model of attribute values that are either constants or
// templates referencing named, typed, stateful variables.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/variable"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// UnknownVariableError reports a ${NAME} reference that does not
// resolve in the registry.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// TypeError reports a value/target-type mismatch at build time, e.g. a
// scalar string targeting Grouped or vice versa.
type TypeError struct {
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: %s", e.Reason)
}

// Template produces a typed AVP value on demand, either by returning a
// pre-computed constant or by substituting captured variables into its
// source string and converting the result to TargetType.
type Template struct {
	source    string
	avpName   string
	targetType diameter.AVPType

	constant  *diameter.AVPValue // present iff len(variables) == 0
	variables []variable.Variable // capture order; empty iff constant != nil
}

// ScalarNode is a leaf attribute value: a literal string possibly
// containing ${NAME} references.
type ScalarNode struct {
	Value string
}

// GroupedNode is a nested attribute list; each entry resolves once at
// build time.
type GroupedNode struct {
	Entries []GroupedEntry
}

// GroupedEntry is one child attribute of a GroupedNode.
type GroupedEntry struct {
	AVPName    string
	TargetType diameter.AVPType
	Value      Node
}

// Node is either a ScalarNode or a GroupedNode.
type Node interface {
	isNode()
}

func (ScalarNode) isNode()  {}
func (GroupedNode) isNode() {}

// Build constructs a Template for one attribute's configured value.
func Build(avpName string, value Node, targetType diameter.AVPType, registry *variable.Registry) (*Template, error) {
	switch v := value.(type) {
	case ScalarNode:
		if targetType == diameter.Grouped {
			return nil, &TypeError{Reason: fmt.Sprintf("avp %q: target type is Grouped but value is scalar", avpName)}
		}
		return buildScalar(avpName, v.Value, targetType, registry)

	case GroupedNode:
		if targetType != diameter.Grouped {
			return nil, &TypeError{Reason: fmt.Sprintf("avp %q: value is grouped but target type is %s", avpName, targetType)}
		}
		return buildGrouped(avpName, v, registry)

	default:
		return nil, &TypeError{Reason: fmt.Sprintf("avp %q: unrecognized value node", avpName)}
	}
}

func buildScalar(avpName, source string, targetType diameter.AVPType, registry *variable.Registry) (*Template, error) {
	matches := placeholderPattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		val, err := diameter.StringToAVPValue(avpName, source, targetType)
		if err != nil {
			return nil, err
		}
		return &Template{source: source, avpName: avpName, targetType: targetType, constant: &val}, nil
	}

	vars := make([]variable.Variable, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		v := registry.Lookup(name)
		if v == nil {
			return nil, &UnknownVariableError{Name: name}
		}
		vars = append(vars, v)
	}

	return &Template{source: source, avpName: avpName, targetType: targetType, variables: vars}, nil
}

func buildGrouped(avpName string, node GroupedNode, registry *variable.Registry) (*Template, error) {
	var children []diameter.AVP
	for _, entry := range node.Entries {
		childTmpl, err := Build(entry.AVPName, entry.Value, entry.TargetType, registry)
		if err != nil {
			return nil, err
		}
		childVal, err := childTmpl.Materialize()
		if err != nil {
			return nil, err
		}
		children = append(children, diameter.AVP{Value: childVal})
	}

	val := diameter.AVPValue{Type: diameter.Grouped, Grouped: children}
	return &Template{avpName: avpName, targetType: diameter.Grouped, constant: &val}, nil
}

// Materialize resolves the template to a typed value. Constant
// templates return the same value every call (determinism). Variable
// templates advance each captured variable exactly once per call,
// substituting every textual occurrence of its ${NAME} placeholder
// with that single draw.
func (t *Template) Materialize() (diameter.AVPValue, error) {
	if t.constant != nil {
		return *t.constant, nil
	}

	resolved := t.source
	seen := make(map[string]bool, len(t.variables))
	for _, v := range t.variables {
		if seen[v.Name()] {
			continue // already substituted this occurrence index's variable
		}
		seen[v.Name()] = true
		next := v.Next()
		resolved = strings.ReplaceAll(resolved, "${"+v.Name()+"}", next)
	}

	return diameter.StringToAVPValue(t.avpName, resolved, t.targetType)
}
