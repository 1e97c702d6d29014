// Package variable implements the named, stateful value generators
// (C1 of the load generator core) that Value Templates draw from.
package variable

import "fmt"

// Kind is the variety of value generator a Spec describes.
type Kind string

const (
	KindIncrementalCounter Kind = "IncrementalCounter"
	KindRandomNumber       Kind = "RandomNumber"
	// KindCustomScript is reserved; build() rejects it until a scripting
	// engine is wired in.
	KindCustomScript Kind = "CustomScript"
)

// Spec is the configuration-level description of one variable.
type Spec struct {
	Name string
	Kind Kind
	Min  int64
	Max  int64
	Step int64
}

// ConfigError reports a malformed variable specification.
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: variable %q: %s", e.Name, e.Reason)
}

// Variable is a named value generator. next() is exposed as Next() and
// mutates only its own state — each worker owns its own Registry, so
// state is never shared across workers.
type Variable interface {
	Name() string
	Next() string
}

// Registry owns every Variable built from configuration for one
// worker and hands out shared, non-owning references to it.
type Registry struct {
	variables map[string]Variable
}

// Build constructs a Registry from specs, failing with ConfigError on
// duplicate names or invalid ranges.
func Build(specs []Spec) (*Registry, error) {
	reg := &Registry{variables: make(map[string]Variable, len(specs))}

	for _, spec := range specs {
		if _, exists := reg.variables[spec.Name]; exists {
			return nil, &ConfigError{Name: spec.Name, Reason: "duplicate variable name"}
		}

		switch spec.Kind {
		case KindIncrementalCounter:
			if spec.Step < 1 {
				return nil, &ConfigError{Name: spec.Name, Reason: "step must be >= 1"}
			}
			if spec.Min > spec.Max {
				return nil, &ConfigError{Name: spec.Name, Reason: "min must be <= max"}
			}
			reg.variables[spec.Name] = newIncrementalCounter(spec.Name, spec.Min, spec.Max, spec.Step)

		case KindRandomNumber:
			if spec.Min > spec.Max {
				return nil, &ConfigError{Name: spec.Name, Reason: "min must be <= max"}
			}
			reg.variables[spec.Name] = newRandomNumber(spec.Name, spec.Min, spec.Max)

		default:
			return nil, &ConfigError{Name: spec.Name, Reason: fmt.Sprintf("unrecognized variable kind %q", spec.Kind)}
		}
	}

	return reg, nil
}

// Lookup returns the named variable, or nil if it doesn't exist.
func (r *Registry) Lookup(name string) Variable {
	return r.variables[name]
}
