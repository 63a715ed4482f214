// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package gen

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/bufbuild/protocompile/options"
	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Protobuf renders a document as a proto3 schema with one message per
// packet. Every schema is parsed back before it is returned.
type Protobuf struct{}

func (Protobuf) Name() string { return "proto" }
func (Protobuf) Ext() string  { return "proto" }

func (Protobuf) Convert(spec *idl.ServiceSpec) ([]byte, error) {
	src := renderProto(spec)
	if _, err := parseSchema(ProtoFileName(spec), src); err != nil {
		return nil, err
	}
	return []byte(src), nil
}

// Descriptor returns the validated descriptor of the schema of a document.
func (Protobuf) Descriptor(spec *idl.ServiceSpec) (*descriptorpb.FileDescriptorProto, error) {
	return parseSchema(ProtoFileName(spec), renderProto(spec))
}

// DescriptorSet collects the descriptors of every given document.
func DescriptorSet(specs []*idl.ServiceSpec) (*descriptorpb.FileDescriptorSet, error) {
	set := &descriptorpb.FileDescriptorSet{}
	for _, spec := range specs {
		fd, err := Protobuf{}.Descriptor(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.ShortID, err)
		}
		set.File = append(set.File, fd)
	}
	return set, nil
}

func ProtoFileName(spec *idl.ServiceSpec) string {
	return "jacdac/" + spec.ShortID + ".proto"
}

func parseSchema(name string, src string) (*descriptorpb.FileDescriptorProto, error) {
	h := reporter.NewHandler(&protoReporter{Reporter: exc.NewReporter(nil)})
	node, err := parser.Parse(name, strings.NewReader(src), h)
	if err != nil {
		return nil, err
	}
	result, err := parser.ResultFromAST(node, true, h)
	if err != nil {
		return nil, err
	}
	if _, err := options.InterpretUnlinkedOptions(result); err != nil {
		return nil, err
	}
	return result.FileDescriptorProto(), nil
}

type protoReporter struct {
	Reporter exc.Reporter
}

func (self *protoReporter) Error(e reporter.ErrorWithPos) error {
	pos := e.GetPosition()
	loc := exc.Location{
		URI: pos.Filename,
		Location: idl.Location{
			Line: int32(pos.Line),
		},
	}
	return self.Reporter.Report(exc.Wrap(loc, exc.CodeSchema, e))
}

func (self *protoReporter) Warning(e reporter.ErrorWithPos) {
	_ = self.Error(e)
}

// nameSet hands out unique names. Names are compared by their lower cased
// JSON spelling so that proto3 JSON names never collide.
type nameSet map[string]bool

func (self nameSet) claim(name string) string {
	n := name
	for x := 2; self[jsonKey(n)]; x = x + 1 {
		n = fmt.Sprintf("%s_%d", name, x)
	}
	self[jsonKey(n)] = true
	return n
}

func jsonKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

type protoWriter struct {
	b     strings.Builder
	scope nameSet
	enums map[string]string
}

func renderProto(spec *idl.ServiceSpec) string {
	w := &protoWriter{
		scope: nameSet{},
		enums: map[string]string{},
	}
	fmt.Fprintf(&w.b, "// Autogenerated protobuf schema for %s\n", spec.Name)
	w.b.WriteString("syntax = \"proto3\";\n\n")
	fmt.Fprintf(&w.b, "package jacdac.%s;\n", protoPackage(spec))

	enums := sortedEnums(spec)
	for _, e := range enums {
		w.enums[e.Name] = w.scope.claim(exportName(e.Name, "Enum"))
	}
	for _, e := range enums {
		w.writeEnum(e)
	}
	for _, pkt := range spec.Packets {
		if pkt.Derived {
			continue
		}
		w.writeMessage(pkt)
	}
	return w.b.String()
}

func protoPackage(spec *idl.ServiceSpec) string {
	name := spec.CamelName
	if name == "" {
		name = spec.ShortID
	}
	name = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return unicode.ToLower(r)
		}
		return '_'
	}, lowerName(name))
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}

// exportName turns a snake_case name into a message or enum type name.
func exportName(name string, fallback string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		r := []rune(part)
		if len(r) == 0 {
			continue
		}
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	out := b.String()
	if out == "" {
		return fallback
	}
	if unicode.IsDigit(rune(out[0])) {
		return fallback + out
	}
	return out
}

func fieldName(name string) string {
	if name == "_" || name == "" {
		return "value"
	}
	if unicode.IsDigit(rune(name[0])) {
		return "f" + name
	}
	return name
}

var messageSuffix = map[idl.PacketKind]string{
	idl.PacketKindCommand:         "Command",
	idl.PacketKindReport:          "Report",
	idl.PacketKindConst:           "Register",
	idl.PacketKindRO:              "Register",
	idl.PacketKindRW:              "Register",
	idl.PacketKindEvent:           "Event",
	idl.PacketKindPipeCommand:     "PipeCommand",
	idl.PacketKindPipeReport:      "PipeReport",
	idl.PacketKindMetaPipeCommand: "MetaCommand",
	idl.PacketKindMetaPipeReport:  "MetaReport",
}

func (self *protoWriter) writeEnum(e *idl.EnumInfo) {
	typeName := self.enums[e.Name]
	prefix := upperName(typeName) + "_"
	members := sortedMembers(e)

	var zero, rest []enumMember
	seen := map[int64]bool{}
	alias := false
	for _, m := range members {
		if fitsEnum(m.value) {
			alias = alias || seen[m.value]
			seen[m.value] = true
		}
		if m.value == 0 {
			zero = append(zero, m)
		} else {
			rest = append(rest, m)
		}
	}

	fmt.Fprintf(&self.b, "\nenum %s {\n", typeName)
	if alias {
		self.b.WriteString("  option allow_alias = true;\n")
	}
	if len(zero) == 0 {
		fmt.Fprintf(&self.b, "  %s = 0;\n", self.scope.claim(prefix+"UNSPECIFIED"))
	}
	for _, m := range append(zero, rest...) {
		if !fitsEnum(m.value) {
			fmt.Fprintf(&self.b, "  // %s = 0x%x does not fit an enum value\n", m.name, m.value)
			continue
		}
		fmt.Fprintf(&self.b, "  %s = %d;\n", self.scope.claim(prefix+upperName(m.name)), m.value)
	}
	self.b.WriteString("}\n")
}

func fitsEnum(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func (self *protoWriter) writeMessage(pkt *idl.PacketInfo) {
	name := self.scope.claim(exportName(pkt.Name, "Packet") + messageSuffix[pkt.Kind])
	self.b.WriteString("\n")
	if pkt.Description != "" {
		desc := pkt.Description
		if at := strings.Index(desc, "\n\n"); at >= 0 {
			desc = desc[:at]
		}
		for _, line := range strings.Split(desc, "\n") {
			self.b.WriteString(strings.TrimRight("// "+line, " ") + "\n")
		}
	}
	fmt.Fprintf(&self.b, "// %s @ 0x%x\n", pkt.Kind, pkt.Identifier)
	fmt.Fprintf(&self.b, "message %s {\n", name)

	head := pkt.Fields
	var tail []idl.Field
	for x, f := range pkt.Fields {
		if f.StartRepeats {
			head, tail = pkt.Fields[:x], pkt.Fields[x:]
			break
		}
	}
	fields := nameSet{}
	number := 1
	for _, f := range head {
		self.writeField("  ", "", fields.claim(fieldName(f.Name)), f, number)
		number = number + 1
	}
	switch len(tail) {
	case 0:
	case 1:
		self.writeField("  ", "repeated ", fields.claim(fieldName(tail[0].Name)), tail[0], number)
	default:
		self.b.WriteString("  message Repeat {\n")
		inner := nameSet{}
		for x, f := range tail {
			self.writeField("    ", "", inner.claim(fieldName(f.Name)), f, x+1)
		}
		self.b.WriteString("  }\n")
		fmt.Fprintf(&self.b, "  repeated Repeat %s = %d;\n", fields.claim("repeats"), number)
	}
	self.b.WriteString("}\n")
}

func (self *protoWriter) writeField(indent string, label string, name string, f idl.Field, number int) {
	line := fmt.Sprintf("%s%s%s %s = %d;", indent, label, self.fieldType(f), name, number)
	var notes []string
	if !f.IsSimpleType {
		notes = append(notes, f.Type)
	}
	if f.Unit != idl.UnitNone {
		notes = append(notes, f.Unit.Pretty())
	}
	if len(notes) > 0 {
		line = line + "  // " + strings.Join(notes, " ")
	}
	self.b.WriteString(line + "\n")
}

func (self *protoWriter) fieldType(f idl.Field) string {
	if t, ok := self.enums[f.Type]; ok {
		return t
	}
	switch {
	case f.Type == "bool":
		return "bool"
	case f.Type == "string" || f.Type == "string0":
		return "string"
	case strings.HasPrefix(f.Type, "u8["):
		return "bytes"
	}
	switch f.Storage {
	case 1, 2, 4:
		return "uint32"
	case -1, -2, -4:
		return "int32"
	case 8:
		return "uint64"
	case -8:
		return "int64"
	default:
		return "bytes"
	}
}
