package gen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func buttonSpec() *idl.ServiceSpec {
	spec := idl.NewServiceSpec("button", "")
	spec.Name = "Button"
	spec.CamelName = "Button"
	spec.ShortName = "Button"
	spec.ClassIdentifier = 0x1473a263
	spec.Enums["Mode"] = &idl.EnumInfo{Name: "Mode", Storage: 1, Members: map[string]int64{"Slow": 2, "Fast": 1}}
	spec.Packets = []*idl.PacketInfo{
		{
			Kind: idl.PacketKindRW, Name: "streaming_interval", Identifier: 0x80, Derived: true,
			Fields: []idl.Field{{Name: "_", Unit: idl.UnitMillisecond, Type: "u32", Storage: 4, IsSimpleType: true}},
		},
		{
			Kind: idl.PacketKindRO, Name: "pressure", Identifier: 0x101, IdentifierName: "reading",
			Description: "Indicates the pressure state.\n\nMore details.",
			Fields:      []idl.Field{{Name: "_", Unit: idl.UnitFraction, Shift: 16, Type: "u0.16", Storage: 2}},
		},
		{Kind: idl.PacketKindEvent, Name: "down", Identifier: 0x81, Description: "Emitted on press.", Fields: []idl.Field{}},
		{
			Kind: idl.PacketKindCommand, Name: "press", Identifier: 0x80, Description: "Simulate a press.",
			Fields: []idl.Field{
				{Name: "duration", Unit: idl.UnitMillisecond, Type: "u16", Storage: 2, IsSimpleType: true},
				{Name: "force", Type: "u8", Storage: 1, IsSimpleType: true},
			},
		},
		{
			Kind: idl.PacketKindReport, Name: "press", Identifier: 0x80, Packed: true,
			Fields: []idl.Field{
				{Name: "ok", Type: "u8", Storage: 1, IsSimpleType: true},
				{Name: "mode", Type: "Mode", Storage: 1},
			},
		},
	}
	return spec
}

func TestCHeader(t *testing.T) {
	t.Parallel()

	out, err := CHeader{}.Convert(buttonSpec())
	require.NoError(t, err)
	expected := strings.Join([]string{
		"// Autogenerated C header file for Button",
		"#ifndef _JACDAC_BUTTON_H",
		"#define _JACDAC_BUTTON_H 1",
		"",
		"// enum Mode (uint8_t)",
		"#define JD_BUTTON_MODE_FAST 1",
		"#define JD_BUTTON_MODE_SLOW 2",
		"",
		"/** Read-only fraction u0.16 (uint16_t). Indicates the pressure state. */",
		"#define JD_BUTTON_REG_PRESSURE JD_REG_READING",
		"",
		"/** Emitted on press. */",
		"#define JD_BUTTON_EV_DOWN 0x81",
		"",
		"/** Simulate a press. */",
		"#define JD_BUTTON_CMD_PRESS 0x80",
		"typedef struct jd_button_press {",
		"    uint16_t duration; // ms",
		"    uint8_t force;",
		"} jd_button_press_t;",
		"",
		"// Report: ",
		"typedef struct jd_button_press_report {",
		"    uint8_t ok;",
		"    uint8_t mode;  // Mode",
		"} __attribute__((packed)) jd_button_press_report_t;",
		"",
		"",
		"#endif",
		"",
	}, "\n")
	require.Equal(t, expected, string(out))
}

func TestCHeaderDetails(t *testing.T) {
	t.Parallel()

	spec := idl.NewServiceSpec("rotary", "")
	spec.Name = "Rotary encoder"
	spec.CamelName = "RotaryEncoder"
	spec.ShortName = "RotaryEncoder"
	spec.Packets = []*idl.PacketInfo{
		{
			Kind: idl.PacketKindConst, Name: "clicks_per_turn", Identifier: 0x180,
			Description: "Number of clicks\nin one full turn.",
			Fields:      []idl.Field{{Name: "clicks", Type: "u16", Storage: 2, IsSimpleType: true}},
		},
		{Kind: idl.PacketKindCommand, Name: "reset", Identifier: 0x81, Description: "Reset.", Fields: []idl.Field{}},
		{
			Kind: idl.PacketKindCommand, Name: "set_label", Identifier: 0x82,
			Fields: []idl.Field{
				{Name: "index", Type: "u8", Storage: 1, IsSimpleType: true},
				{Name: "label", Type: "string", Storage: 0},
			},
		},
	}
	out, err := CHeader{}.Convert(spec)
	require.NoError(t, err)
	text := string(out)
	require.Contains(t, text, "#ifndef _JACDAC_ROTARY_ENCODER_H\n")
	require.Contains(t, text, "\n/**\n * Constant clicks uint16_t. Number of clicks\n * in one full turn.\n */\n#define JD_ROTARY_ENCODER_REG_CLICKS_PER_TURN 0x180\n")
	require.Contains(t, text, "\n/** No args. Reset. */\n#define JD_ROTARY_ENCODER_CMD_RESET 0x81\n")
	require.Contains(t, text, "typedef struct jd_rotary_encoder_set_label {\n    uint8_t index;\n    char label[0];  // string\n} jd_rotary_encoder_set_label_t;\n")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	out, err := JSON{}.Convert(buttonSpec())
	require.NoError(t, err)
	text := string(out)
	require.Less(t, strings.Index(text, `"name"`), strings.Index(text, `"shortId"`))
	require.Less(t, strings.Index(text, `"shortId"`), strings.Index(text, `"packets"`))
	require.Contains(t, text, "\n  \"classIdentifier\": 343122531,\n")
	require.Contains(t, text, `"kind": "ro"`)
	require.NotContains(t, text, `"errors"`)

	var back idl.ServiceSpec
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, buttonSpec(), &back)

	all, err := Aggregate(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(all))
	all, err = Aggregate([]*idl.ServiceSpec{buttonSpec()})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(all), "[\n  {\n    \"name\": \"Button\""))
}

func TestYAML(t *testing.T) {
	t.Parallel()

	out, err := YAML{}.Convert(buttonSpec())
	require.NoError(t, err)
	text := string(out)
	require.True(t, strings.HasPrefix(text, "name: Button\nshortId: button\n"))
	require.Contains(t, text, "kind: ro")
	require.Contains(t, text, "identifierName: reading")
}

func messageNames(fd *descriptorpb.FileDescriptorProto) []string {
	var out []string
	for _, m := range fd.GetMessageType() {
		out = append(out, m.GetName())
	}
	return out
}

func TestProtobuf(t *testing.T) {
	t.Parallel()

	fd, err := Protobuf{}.Descriptor(buttonSpec())
	require.NoError(t, err)
	require.Equal(t, "jacdac/button.proto", fd.GetName())
	require.Equal(t, "jacdac.button", fd.GetPackage())
	require.Equal(t, "proto3", fd.GetSyntax())

	require.Len(t, fd.GetEnumType(), 1)
	mode := fd.GetEnumType()[0]
	require.Equal(t, "Mode", mode.GetName())
	var values []string
	for _, v := range mode.GetValue() {
		values = append(values, v.GetName())
	}
	require.Equal(t, []string{"MODE_UNSPECIFIED", "MODE_FAST", "MODE_SLOW"}, values)

	require.Equal(t, []string{"PressureRegister", "DownEvent", "PressCommand", "PressReport"}, messageNames(fd))
	pressure := fd.GetMessageType()[0]
	require.Equal(t, "value", pressure.GetField()[0].GetName())
	require.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_UINT32, pressure.GetField()[0].GetType())
	report := fd.GetMessageType()[3]
	require.Equal(t, "Mode", report.GetField()[1].GetTypeName())
	require.Equal(t, int32(2), report.GetField()[1].GetNumber())

	src, err := Protobuf{}.Convert(buttonSpec())
	require.NoError(t, err)
	require.Contains(t, string(src), "// Indicates the pressure state.\n// ro @ 0x101\nmessage PressureRegister {\n  uint32 value = 1;  // u0.16 fraction\n}\n")
	require.NotContains(t, string(src), "StreamingInterval")
}

func TestProtobufShapes(t *testing.T) {
	t.Parallel()

	spec := idl.NewServiceSpec("thing", "")
	spec.Name = "Thing"
	spec.CamelName = "Thing"
	spec.Enums["Flags"] = &idl.EnumInfo{Name: "Flags", Storage: 4, IsFlags: true, Members: map[string]int64{
		"None": 0, "A": 1, "Also_A": 1, "Top": 0x1_0000_0000,
	}}
	spec.Packets = []*idl.PacketInfo{
		{
			Kind: idl.PacketKindReport, Name: "samples", Identifier: 0x80,
			Fields: []idl.Field{
				{Name: "count", Type: "u8", Storage: 1, IsSimpleType: true},
				{Name: "x", Type: "i16", Storage: -2, IsSimpleType: true, StartRepeats: true},
				{Name: "y", Type: "i16", Storage: -2, IsSimpleType: true},
			},
		},
		{
			Kind: idl.PacketKindCommand, Name: "set", Identifier: 0x81,
			Fields: []idl.Field{
				{Name: "on", Type: "bool", Storage: 1},
				{Name: "id", Type: "u8[8]", Storage: 8},
				{Name: "v", Type: "u32", Storage: 4, IsSimpleType: true, StartRepeats: true},
			},
		},
		{Kind: idl.PacketKindEvent, Name: "set", Identifier: 0x01},
	}

	fd, err := Protobuf{}.Descriptor(spec)
	require.NoError(t, err)

	flags := fd.GetEnumType()[0]
	require.True(t, flags.GetOptions().GetAllowAlias())
	var values []string
	for _, v := range flags.GetValue() {
		values = append(values, v.GetName())
	}
	require.Equal(t, []string{"FLAGS_NONE", "FLAGS_A", "FLAGS_ALSO_A"}, values)

	require.Equal(t, []string{"SamplesReport", "SetCommand", "SetEvent"}, messageNames(fd))
	samples := fd.GetMessageType()[0]
	require.Len(t, samples.GetNestedType(), 1)
	require.Equal(t, "Repeat", samples.GetNestedType()[0].GetName())
	require.Len(t, samples.GetNestedType()[0].GetField(), 2)
	require.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_INT32, samples.GetNestedType()[0].GetField()[0].GetType())
	repeats := samples.GetField()[1]
	require.Equal(t, "repeats", repeats.GetName())
	require.Equal(t, descriptorpb.FieldDescriptorProto_LABEL_REPEATED, repeats.GetLabel())

	set := fd.GetMessageType()[1]
	require.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_BOOL, set.GetField()[0].GetType())
	require.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_BYTES, set.GetField()[1].GetType())
	require.Equal(t, descriptorpb.FieldDescriptorProto_LABEL_REPEATED, set.GetField()[2].GetLabel())

	src, err := Protobuf{}.Convert(spec)
	require.NoError(t, err)
	require.Contains(t, string(src), "  // Top = 0x100000000 does not fit an enum value\n")
}

func TestDescriptorSet(t *testing.T) {
	t.Parallel()

	other := buttonSpec()
	other.ShortID = "button2"
	set, err := DescriptorSet([]*idl.ServiceSpec{buttonSpec(), other})
	require.NoError(t, err)
	require.Len(t, set.GetFile(), 2)
	require.Equal(t, "jacdac/button2.proto", set.GetFile()[1].GetName())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"c", "json", "proto", "yaml"}, Names())
	cs, err := New([]string{"json", "c"})
	require.NoError(t, err)
	require.Equal(t, "json", cs[0].Name())
	require.Equal(t, "h", cs[1].Ext())
	_, err = New([]string{"ts"})
	require.ErrorContains(t, err, `unknown output format "ts"`)
}

func TestNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ROTARY_ENCODER", upperName("RotaryEncoder"))
	require.Equal(t, "STREAMING_INTERVAL", upperName("streaming_interval"))
	require.Equal(t, "rotary_encoder", lowerName("RotaryEncoder"))
	require.Equal(t, "StreamingInterval", exportName("streaming_interval", "Packet"))
	require.Equal(t, "Packet2d", exportName("2d", "Packet"))
	require.Equal(t, "value", fieldName("_"))
}
