package config

import (
	"fmt"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/scenario"
	"github.com/jihwankim/diameter-load/pkg/template"
	"github.com/jihwankim/diameter-load/pkg/variable"
)

// VariableSpecs converts the configured globals into variable.Spec
// values ready for variable.Build.
func (c *Config) VariableSpecs() []variable.Spec {
	specs := make([]variable.Spec, len(c.Globals.Variables))
	for i, v := range c.Globals.Variables {
		specs[i] = variable.Spec{
			Name: v.Name,
			Kind: variable.Kind(v.Kind),
			Min:  v.Min,
			Max:  v.Max,
			Step: v.Step,
		}
	}
	return specs
}

// BuildScenarios resolves every configured ScenarioSpec against dict
// and registry, returning the Init and Repeating scenarios in their
// configured order.
func BuildScenarios(specs []ScenarioSpec, registry *variable.Registry, dict *diameter.Dictionary) (init []*scenario.Scenario, repeating []*scenario.Scenario, err error) {
	for _, s := range specs {
		attrs, aerr := buildAttributeConfigs(s.Name, s.Attributes, dict)
		if aerr != nil {
			return nil, nil, aerr
		}

		built, berr := scenario.Build(scenario.Config{
			Name:        s.Name,
			Kind:        scenario.Kind(s.Type),
			Command:     s.Command,
			Application: s.Application,
			Attributes:  attrs,
		}, registry, dict)
		if berr != nil {
			return nil, nil, berr
		}

		switch built.Kind() {
		case scenario.KindInit:
			init = append(init, built)
		case scenario.KindRepeating:
			repeating = append(repeating, built)
		default:
			return nil, nil, fmt.Errorf("scenario %q: unrecognized type %q", s.Name, s.Type)
		}
	}
	return init, repeating, nil
}

func buildAttributeConfigs(scenarioName string, specs []AttributeSpec, dict *diameter.Dictionary) ([]scenario.AttributeConfig, error) {
	out := make([]scenario.AttributeConfig, len(specs))
	for i, s := range specs {
		node, err := attributeNode(scenarioName, s, dict)
		if err != nil {
			return nil, err
		}
		out[i] = scenario.AttributeConfig{Name: s.Name, Value: node}
	}
	return out, nil
}

// attributeNode converts one configured attribute into a template.Node,
// recursively resolving nested Grouped entries' types against dict —
// the top-level attribute's own type is resolved later by scenario.Build.
func attributeNode(scenarioName string, s AttributeSpec, dict *diameter.Dictionary) (template.Node, error) {
	if len(s.Entries) == 0 {
		return template.ScalarNode{Value: s.Value}, nil
	}

	entries := make([]template.GroupedEntry, len(s.Entries))
	for i, e := range s.Entries {
		def, ok := dict.AVP(e.Name)
		if !ok {
			return nil, &scenario.ConfigError{Scenario: scenarioName, Reason: fmt.Sprintf("unknown avp %q", e.Name)}
		}
		child, err := attributeNode(scenarioName, e, dict)
		if err != nil {
			return nil, err
		}
		entries[i] = template.GroupedEntry{AVPName: e.Name, TargetType: def.Type, Value: child}
	}
	return template.GroupedNode{Entries: entries}, nil
}
