package gen

import (
	"fmt"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// CHeader renders identifier constants and packet layouts as a C header.
type CHeader struct{}

func (CHeader) Name() string { return "c" }
func (CHeader) Ext() string  { return "h" }

func (CHeader) Convert(spec *idl.ServiceSpec) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// Autogenerated C header file for %s\n", spec.Name)
	guard := fmt.Sprintf("_JACDAC_%s_H", upperName(spec.CamelName))
	fmt.Fprintf(&b, "#ifndef %s\n", guard)
	fmt.Fprintf(&b, "#define %s 1\n", guard)
	prefix := "JD_" + upperName(spec.ShortName) + "_"

	for _, e := range sortedEnums(spec) {
		enumPrefix := prefix + upperName(e.Name)
		fmt.Fprintf(&b, "\n// enum %s (%s)\n", e.Name, e.Storage.CType())
		for _, m := range sortedMembers(e) {
			fmt.Fprintf(&b, "#define %s_%s %d\n", enumPrefix, upperName(m.name), m.value)
		}
	}

	for _, pkt := range spec.Packets {
		if pkt.Derived {
			continue
		}
		typeInfo := packetTypeInfo(pkt)
		if pkt.Kind == idl.PacketKindReport {
			fmt.Fprintf(&b, "// Report: %s\n", typeInfo)
		} else {
			if pkt.Description != "" {
				writeDoc(&b, pkt.Description, typeInfo)
			}
			inner := defineGroup(pkt.Kind)
			value := fmt.Sprintf("0x%x", pkt.Identifier)
			if pkt.IdentifierName != "" {
				value = "JD_" + inner + "_" + upperName(pkt.IdentifierName)
			}
			fmt.Fprintf(&b, "#define %s%s_%s %s\n", prefix, inner, upperName(pkt.Name), value)
		}
		if len(pkt.Fields) > 1 {
			writeStruct(&b, spec, pkt)
		}
	}
	b.WriteString("\n#endif\n")
	return []byte(b.String()), nil
}

func defineGroup(kind idl.PacketKind) string {
	switch {
	case kind.IsRegister():
		return "REG"
	case kind == idl.PacketKindEvent:
		return "EV"
	default:
		return "CMD"
	}
}

func unitPrefix(f idl.Field) string {
	if f.Unit == idl.UnitNone {
		return ""
	}
	return f.Unit.Pretty() + " "
}

// packetTypeInfo describes the payload of packets with at most one field.
func packetTypeInfo(pkt *idl.PacketInfo) string {
	switch len(pkt.Fields) {
	case 0:
		if pkt.Kind == idl.PacketKindEvent {
			return ""
		}
		return "No args"
	case 1:
	default:
		return ""
	}
	f := pkt.Fields[0]
	info := f.Storage.CType()
	if !f.IsSimpleType {
		info = f.Type + " (" + info + ")"
	}
	info = unitPrefix(f) + info
	if f.Name != "_" {
		info = f.Name + " " + info
	}
	if pkt.Kind.IsRegister() {
		access := "Read-write"
		switch pkt.Kind {
		case idl.PacketKindRO:
			access = "Read-only"
		case idl.PacketKindConst:
			access = "Constant"
		}
		return access + " " + info
	}
	return "Argument: " + info
}

// writeDoc emits the first paragraph of a description as a doc comment.
func writeDoc(b *strings.Builder, description string, typeInfo string) {
	desc := description
	if at := strings.Index(desc, "\n\n"); at >= 0 {
		desc = desc[:at]
	}
	if typeInfo != "" {
		desc = typeInfo + ". " + desc
	}
	if strings.Index(desc, "\n") > 0 {
		fmt.Fprintf(b, "\n/**\n * %s\n */\n", strings.ReplaceAll(desc, "\n", "\n * "))
		return
	}
	fmt.Fprintf(b, "\n/** %s */\n", desc)
}

func writeStruct(b *strings.Builder, spec *idl.ServiceSpec, pkt *idl.PacketInfo) {
	name := "jd_" + lowerName(spec.CamelName) + "_" + lowerName(pkt.Name)
	if pkt.Kind == idl.PacketKindReport {
		name = name + "_report"
	}
	fmt.Fprintf(b, "typedef struct %s {\n", name)
	for _, f := range pkt.Fields {
		def := fmt.Sprintf("%s %s;", f.Storage.CType(), f.Name)
		if f.Storage == 0 {
			def = fmt.Sprintf("char %s[0];", f.Name)
		}
		if !f.IsSimpleType {
			def = def + "  // " + unitPrefix(f) + f.Type
		} else if f.Unit != idl.UnitNone {
			def = def + " // " + f.Unit.Pretty()
		}
		b.WriteString("    " + def + "\n")
	}
	attr := ""
	if pkt.Packed {
		attr = " __attribute__((packed))"
	}
	fmt.Fprintf(b, "}%s %s_t;\n\n", attr, name)
}
