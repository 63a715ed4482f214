package gen

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// JSON renders the IR as indented JSON.
type JSON struct{}

func (JSON) Name() string { return "json" }
func (JSON) Ext() string  { return "json" }

func (JSON) Convert(spec *idl.ServiceSpec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// Aggregate renders every given document as one JSON array.
func Aggregate(specs []*idl.ServiceSpec) ([]byte, error) {
	if specs == nil {
		specs = []*idl.ServiceSpec{}
	}
	return json.MarshalIndent(specs, "", "  ")
}

// YAML renders the IR as YAML with the same field names as JSON.
type YAML struct{}

func (YAML) Name() string { return "yaml" }
func (YAML) Ext() string  { return "yaml" }

func (YAML) Convert(spec *idl.ServiceSpec) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
