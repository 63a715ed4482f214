// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package gen renders compiled service specifications into output formats.
package gen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Converter renders one compiled document.
type Converter interface {
	// Name is the format name and the output directory of the format.
	Name() string
	// Ext is the file extension of rendered documents, without the dot.
	Ext() string
	Convert(spec *idl.ServiceSpec) ([]byte, error)
}

var converters = map[string]Converter{
	"c":     CHeader{},
	"json":  JSON{},
	"yaml":  YAML{},
	"proto": Protobuf{},
}

// Names lists every registered format.
func Names() []string {
	names := make([]string, 0, len(converters))
	for name := range converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Lookup(name string) (Converter, bool) {
	c, ok := converters[name]
	return c, ok
}

// New returns the converters for the given format names in the given order.
func New(names []string) ([]Converter, error) {
	out := make([]Converter, 0, len(names))
	for _, name := range names {
		c, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown output format %q; known formats are %s", name, strings.Join(Names(), ", "))
		}
		out = append(out, c)
	}
	return out, nil
}

var lowerUpper = regexp.MustCompile(`([a-z])([A-Z])`)

// upperName turns camelCase and snake_case names into SCREAMING_SNAKE_CASE.
func upperName(name string) string {
	return strings.ToUpper(lowerUpper.ReplaceAllString(name, "${1}_${2}"))
}

// lowerName turns camelCase names into snake_case.
func lowerName(name string) string {
	return strings.ToLower(lowerUpper.ReplaceAllString(name, "${1}_${2}"))
}

// sortedEnums returns the enums of a document in name order.
func sortedEnums(spec *idl.ServiceSpec) []*idl.EnumInfo {
	out := make([]*idl.EnumInfo, 0, len(spec.Enums))
	for _, e := range spec.Enums {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type enumMember struct {
	name  string
	value int64
}

// sortedMembers returns the members of an enum by value, then by name.
func sortedMembers(e *idl.EnumInfo) []enumMember {
	out := make([]enumMember, 0, len(e.Members))
	for k, v := range e.Members {
		out = append(out, enumMember{name: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value < out[j].value
		}
		return out[i].name < out[j].name
	})
	return out
}
