package servicespec

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func TestLooksRandom(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		id       uint32
		expected bool
	}{
		{id: 0x12345678, expected: true},
		{id: 0x1473a263, expected: true},
		{id: 0xdeadbeef, expected: false},
		{id: 0x1000_f00d, expected: false},
		{id: 0x1dea_f123, expected: false},
		{id: 0x1222_3456, expected: false},
		{id: 0x1fff_fff1, expected: false},
		{id: 0x1abc_cc12, expected: false},
	}
	for _, testCase := range testCases {
		require.Equal(t, testCase.expected, LooksRandom(testCase.id), "%#x", testCase.id)
	}
}

func TestSuggestClassIdentifier(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(7, 11))
	for x := 0; x < 200; x = x + 1 {
		id := SuggestClassIdentifier(r)
		require.True(t, LooksRandom(id), "%#x", id)
		require.GreaterOrEqual(t, id, MinClassIdentifier)
		require.LessOrEqual(t, id, MaxClassIdentifier)
	}

	a := SuggestClassIdentifier(rand.New(rand.NewPCG(1, 2)))
	b := SuggestClassIdentifier(rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, a, b)
}

func TestClassifyIdentifier(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		kind     idl.PacketKind
		id       uint32
		expected identifierRange
		tabled   bool
	}{
		{name: "ro system", kind: idl.PacketKindRO, id: 0x101, expected: rangeSystem, tabled: true},
		{name: "ro user", kind: idl.PacketKindRO, id: 0x181, expected: rangeUser, tabled: true},
		{name: "ro high", kind: idl.PacketKindRO, id: 0x250, expected: rangeHigh, tabled: true},
		{name: "ro outside", kind: idl.PacketKindRO, id: 0x10, expected: rangeNone, tabled: true},
		{name: "rw system", kind: idl.PacketKindRW, id: 0x01, expected: rangeSystem, tabled: true},
		{name: "rw user", kind: idl.PacketKindRW, id: 0x80, expected: rangeUser, tabled: true},
		{name: "command system", kind: idl.PacketKindCommand, id: 0x00, expected: rangeSystem, tabled: true},
		{name: "command high", kind: idl.PacketKindCommand, id: 0x100, expected: rangeHigh, tabled: true},
		{name: "command outside", kind: idl.PacketKindCommand, id: 0x1000, expected: rangeNone, tabled: true},
		{name: "event user", kind: idl.PacketKindEvent, id: 0x7f, expected: rangeUser, tabled: true},
		{name: "event high", kind: idl.PacketKindEvent, id: 0x1_0000, expected: rangeHigh, tabled: true},
		{name: "meta pipe", kind: idl.PacketKindMetaPipeCommand, id: 0x10, expected: rangeNone, tabled: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			r, tabled := classifyIdentifier(testCase.kind, testCase.id)
			require.Equal(t, testCase.expected, r)
			require.Equal(t, testCase.tabled, tabled)
		})
	}
}
