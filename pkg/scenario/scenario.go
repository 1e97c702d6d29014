// Package scenario implements the Scenario component (C3): one
// sequence template (command, application, attribute list) that
// emits a fresh, fully-populated message per invocation.
package scenario

import (
	"fmt"
	"math/rand"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/template"
	"github.com/jihwankim/diameter-load/pkg/variable"
)

// Kind distinguishes the one-shot initialization exchange from the
// repeating chain.
type Kind string

const (
	KindInit      Kind = "Init"
	KindRepeating Kind = "Repeating"
)

// ConfigError reports a scenario that could not be resolved against
// the dictionary.
type ConfigError struct {
	Scenario string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: scenario %q: %s", e.Scenario, e.Reason)
}

// AttributeConfig is the configured description of one attribute:
// its dictionary name and its value template source.
type AttributeConfig struct {
	Name  string
	Value template.Node
}

// Config is the configuration-level description of a scenario.
type Config struct {
	Name        string
	Kind        Kind
	Command     string
	Application string
	Attributes  []AttributeConfig
}

// attribute is a resolved attribute: its dictionary identity plus its
// built Value Template.
type attribute struct {
	code      uint32
	vendorID  uint32
	mandatory bool
	tmpl      *template.Template
}

// Scenario materializes a fresh message per call to NextMessage. It is
// built once at campaign start and owns a monotonically increasing
// seq_num used as both the hop-by-hop and end-to-end id.
type Scenario struct {
	name          string
	kind          Kind
	commandCode   uint32
	applicationID uint32
	attributes    []attribute
	seqNum        uint32
}

// Build resolves the scenario's command, application, and every
// attribute name against the dictionary, and constructs a Value
// Template per attribute with the attribute's dictionary-declared
// type and mandatory flag.
func Build(cfg Config, registry *variable.Registry, dict *diameter.Dictionary) (*Scenario, error) {
	commandCode, ok := dict.CommandCode(cfg.Command)
	if !ok {
		return nil, &ConfigError{Scenario: cfg.Name, Reason: fmt.Sprintf("unknown command %q", cfg.Command)}
	}
	applicationID, ok := dict.ApplicationID(cfg.Application)
	if !ok {
		return nil, &ConfigError{Scenario: cfg.Name, Reason: fmt.Sprintf("unknown application %q", cfg.Application)}
	}

	attrs := make([]attribute, 0, len(cfg.Attributes))
	for _, a := range cfg.Attributes {
		def, ok := dict.AVP(a.Name)
		if !ok {
			return nil, &ConfigError{Scenario: cfg.Name, Reason: fmt.Sprintf("unknown avp %q", a.Name)}
		}

		tmpl, err := template.Build(a.Name, a.Value, def.Type, registry)
		if err != nil {
			return nil, &ConfigError{Scenario: cfg.Name, Reason: err.Error()}
		}

		attrs = append(attrs, attribute{
			code:      def.Code,
			vendorID:  def.VendorID,
			mandatory: def.Mandatory,
			tmpl:      tmpl,
		})
	}

	return &Scenario{
		name:          cfg.Name,
		kind:          cfg.Kind,
		commandCode:   commandCode,
		applicationID: applicationID,
		attributes:    attrs,
		// Seed per worker with a random value to reduce hop-by-hop/
		// end-to-end collisions across parallel workers.
		seqNum: rand.Uint32(),
	}, nil
}

// Name returns the scenario's configured name.
func (s *Scenario) Name() string { return s.name }

// Kind returns whether this is an Init or Repeating scenario.
func (s *Scenario) Kind() Kind { return s.kind }

// NextMessage increments seq_num, builds a fresh request carrying it
// as both hop-by-hop and end-to-end id, and materializes each
// attribute in declared order.
func (s *Scenario) NextMessage() (*diameter.Message, error) {
	s.seqNum++
	builder := diameter.NewBuilder(s.commandCode, s.applicationID, s.seqNum)

	for _, a := range s.attributes {
		val, err := a.tmpl.Materialize()
		if err != nil {
			return nil, err
		}
		builder.Append(a.code, a.vendorID, a.mandatory, val)
	}

	return builder.Build(), nil
}
