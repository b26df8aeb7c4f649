// Package schema loads and validates declarative typewire protocol
// descriptions from TOML. A schema is the source the code generator works
// from; its validation rules mirror the runtime registry's (stable unique
// IDs, reserved system range off limits, closed response sets).
package schema

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// sysBase mirrors protocol.SysBase; the schema package stays independent of
// the runtime registry so generated code is its only coupling point.
const sysBase = 0xFFFFFF00

// System response names usable in response sets without declaring them.
var sysResponses = map[string]bool{
	"Empty":  true,
	"Error":  true,
	"String": true,
	"Bool":   true,
}

// Field types the binary codec and the generator support.
var fieldTypes = map[string]bool{
	"bool":    true,
	"int32":   true,
	"int64":   true,
	"uint32":  true,
	"uint64":  true,
	"float64": true,
	"string":  true,
	"bytes":   true,
}

// Schema is one protocol description.
type Schema struct {
	// Version is the protocol's version marker (e.g. "billing/3").
	Version string `toml:"version"`

	// Package is the Go package name for generated code.
	Package string `toml:"package"`

	// Strict selects the strict unknown-ID policy for receivers.
	Strict bool `toml:"strict"`

	Messages  []Message  `toml:"message"`
	Responses []Response `toml:"response"`
}

// Message declares one request variant.
type Message struct {
	Name    string  `toml:"name"`
	ID      uint32  `toml:"id"`
	Retired bool    `toml:"retired"`
	Fields  []Field `toml:"fields"`

	// Responses names the allowed response types: declared responses or the
	// system names Empty, Error, String, Bool.
	Responses []string `toml:"responses"`
}

// Response declares one result variant.
type Response struct {
	Name   string  `toml:"name"`
	ID     uint32  `toml:"id"`
	Fields []Field `toml:"fields"`
}

// Field is one payload field.
type Field struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes and validates a schema from TOML source.
func Parse(src string) (*Schema, error) {
	var s Schema
	if _, err := toml.Decode(src, &s); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the schema's internal consistency: package and version
// present, names and IDs unique across messages and responses, no reserved
// IDs, response references resolvable, field types supported.
func (s *Schema) Validate() error {
	if s.Package == "" {
		return fmt.Errorf("schema: package is required")
	}
	if s.Version == "" {
		return fmt.Errorf("schema: version is required")
	}

	ids := make(map[uint32]string)
	names := make(map[string]bool)
	declared := make(map[string]bool)

	for _, r := range s.Responses {
		if err := checkName(r.Name, names, sysResponses); err != nil {
			return err
		}
		if err := checkID(r.ID, r.Name, ids); err != nil {
			return err
		}
		if err := checkFields(r.Name, r.Fields); err != nil {
			return err
		}
		declared[r.Name] = true
	}

	for _, m := range s.Messages {
		if err := checkName(m.Name, names, sysResponses); err != nil {
			return err
		}
		if err := checkID(m.ID, m.Name, ids); err != nil {
			return err
		}
		if err := checkFields(m.Name, m.Fields); err != nil {
			return err
		}
		if len(m.Responses) == 0 {
			return fmt.Errorf("schema: message %s declares no responses", m.Name)
		}
		for _, ref := range m.Responses {
			if !declared[ref] && !sysResponses[ref] {
				return fmt.Errorf("schema: message %s references undeclared response %s", m.Name, ref)
			}
		}
	}
	return nil
}

// ResponseByName resolves a declared (non-system) response.
func (s *Schema) ResponseByName(name string) (Response, bool) {
	for _, r := range s.Responses {
		if r.Name == name {
			return r, true
		}
	}
	return Response{}, false
}

func checkName(name string, names map[string]bool, reserved map[string]bool) error {
	if name == "" {
		return fmt.Errorf("schema: entry with empty name")
	}
	if reserved[name] {
		return fmt.Errorf("schema: name %s collides with a system response", name)
	}
	if names[name] {
		return fmt.Errorf("schema: duplicate name %s", name)
	}
	names[name] = true
	return nil
}

func checkID(id uint32, name string, ids map[uint32]string) error {
	if id >= sysBase {
		return fmt.Errorf("schema: %s: ID %d is in the reserved system range", name, id)
	}
	if holder, ok := ids[id]; ok {
		return fmt.Errorf("schema: %s: ID %d already used by %s", name, id, holder)
	}
	ids[id] = name
	return nil
}

func checkFields(owner string, fields []Field) error {
	seen := make(map[string]bool)
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("schema: %s: field with empty name", owner)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema: %s: duplicate field %s", owner, f.Name)
		}
		seen[f.Name] = true
		if !fieldTypes[f.Type] {
			return fmt.Errorf("schema: %s.%s: unsupported field type %q", owner, f.Name, f.Type)
		}
	}
	return nil
}
