package servicespec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func TestResolveType(t *testing.T) {
	t.Parallel()

	enums := map[string]*idl.EnumInfo{
		"Mode": {Name: "Mode", Storage: 1, Members: map[string]int64{}},
	}
	testCases := []struct {
		name     string
		token    string
		expected ResolvedType
		simple   bool
		err      string
	}{
		{name: "u8", token: "u8", expected: ResolvedType{Class: TypeClassInteger, Name: "u8", Storage: 1}, simple: true},
		{name: "suffix", token: "i16_t", expected: ResolvedType{Class: TypeClassInteger, Name: "i16", Storage: -2}, simple: true},
		{name: "upper", token: "U32", expected: ResolvedType{Class: TypeClassInteger, Name: "u32", Storage: 4}, simple: true},
		{name: "fraction", token: "u0.16", expected: ResolvedType{Class: TypeClassFixedPoint, Name: "u0.16", Storage: 2, Shift: 16}},
		{name: "signed fixed", token: "i22.10", expected: ResolvedType{Class: TypeClassFixedPoint, Name: "i22.10", Storage: -4, Shift: 10}},
		{name: "bad fixed", token: "u3.3", expected: ResolvedType{Class: TypeClassFixedPoint, Name: "u3.3", Storage: 4, Shift: 3}, err: "fixed point u3.3 can't be 6 bits"},
		{name: "bool", token: "bool", expected: ResolvedType{Class: TypeClassBool, Name: "bool", Storage: 1}},
		{name: "pipe", token: "pipe", expected: ResolvedType{Class: TypeClassPipe, Name: "pipe", Storage: 12}},
		{name: "pipe port", token: "pipe_port", expected: ResolvedType{Class: TypeClassPipePort, Name: "pipe_port", Storage: 2}},
		{name: "bytes", token: "bytes", expected: ResolvedType{Class: TypeClassVariable, Name: "bytes", Storage: 0}, simple: true},
		{name: "string", token: "string", expected: ResolvedType{Class: TypeClassVariable, Name: "string", Storage: 0}},
		{name: "int array", token: "i32[]", expected: ResolvedType{Class: TypeClassVariable, Name: "i32[]", Storage: 0}},
		{name: "byte array", token: "u8[6]", expected: ResolvedType{Class: TypeClassByteArray, Name: "u8[6]", Storage: 6}},
		{name: "huge byte array", token: "u8[99999999999999999999]", expected: ResolvedType{Class: TypeClassByteArray, Name: "u8[99999999999999999999]", Storage: 4}, err: "array length 99999999999999999999 out of range"},
		{name: "enum", token: "Mode", expected: ResolvedType{Class: TypeClassEnum, Name: "Mode", Storage: 1}},
		{name: "unknown", token: "float", expected: ResolvedType{Class: TypeClassUnknown, Name: "float", Storage: 4}, err: "unknown type: float"},
		{name: "missing", token: "", expected: ResolvedType{Class: TypeClassUnknown, Storage: 4}, err: "expecting type here"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual, err := ResolveType(testCase.token, enums)
			if testCase.err != "" {
				require.EqualError(t, err, testCase.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, testCase.expected, actual)
			require.Equal(t, testCase.simple, actual.IsSimple())
		})
	}
}

func TestResolveUnit(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"", "frac", "s", "ms", "us", "mV", "mA", "mWh", "K", "C", "g", "%RH", "bytes"} {
		actual, err := ResolveUnit(u)
		require.NoError(t, err, u)
		require.Equal(t, idl.Unit(u), actual)
	}
	actual, err := ResolveUnit("km")
	require.EqualError(t, err, "expecting unit, got 'km'")
	require.Equal(t, idl.UnitNone, actual)
}

func TestHasNaturalAlignment(t *testing.T) {
	t.Parallel()

	field := func(tp string, storage idl.StorageType) idl.Field {
		return idl.Field{Name: "f", Type: tp, Storage: storage}
	}
	testCases := []struct {
		name    string
		fields  []idl.Field
		aligned bool
	}{
		{name: "empty", aligned: true},
		{name: "u8 then u16", fields: []idl.Field{field("u8", 1), field("u16", 2)}, aligned: false},
		{name: "u16 then u8", fields: []idl.Field{field("u16", 2), field("u8", 1)}, aligned: true},
		{name: "byte array", fields: []idl.Field{field("u16", 2), field("u8[2]", 2), field("u32", 4)}, aligned: true},
		{name: "odd byte array", fields: []idl.Field{field("u8[3]", 3), field("u8", 1)}, aligned: true},
		{name: "variable skipped", fields: []idl.Field{field("u8", 1), field("string", 0)}, aligned: true},
		{name: "pipe", fields: []idl.Field{field("u8", 1), field("pipe", 12)}, aligned: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.aligned, HasNaturalAlignment(&idl.PacketInfo{Fields: testCase.fields}))
		})
	}
}
