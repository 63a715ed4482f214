package exc

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func at(line int32) Location {
	return Location{URI: "button.md", Location: idl.Location{Line: line}}
}

func TestReporterDedup(t *testing.T) {
	t.Parallel()

	r := NewReporter(nil)
	require.NotNil(t, r.Report(New(at(3), CodeGrammar, "expecting ':'")))
	require.NotNil(t, r.Report(New(at(3), CodeGrammar, "expecting ':'")))
	_ = r.Report(New(at(4), CodeGrammar, "expecting ':'"))
	_ = r.Report(New(at(3), CodeType, "unknown type: u7"))
	require.Len(t, r.Reported(), 3)
}

func TestReporterWarnings(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		suppress bool
		expected int
	}{
		{name: "kept", suppress: false, expected: 1},
		{name: "suppressed", suppress: true, expected: 0},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			r := NewReporter(nil, WithSuppressedWarnings(testCase.suppress))
			require.Nil(t, r.Report(New(at(1), CodeWarning, "ro @ 0x101 should be expressed with a name from _base.md")))
			require.Len(t, r.Reported(), testCase.expected)
		})
	}
}

func TestReporterAppendKeepsOrder(t *testing.T) {
	t.Parallel()

	r := NewReporter(nil)
	_ = r.Report(New(at(9), CodeStructural, "nothing to end here"))
	r.Append(New(at(9), CodeStructural, "nothing to end here"), New(at(10), CodeType, "unknown type: foo"))
	reported := r.Reported()
	require.Len(t, reported, 3)
	require.Equal(t, int32(10), reported[2].Location().Line)
}

func TestDiagnosticConversion(t *testing.T) {
	t.Parallel()

	e := New(at(12), CodeIdentifier, "identifier: not specified")
	d := ToDiagnostic(e)
	require.Equal(t, idl.Diagnostic{File: "button.md", Line: 12, Message: "identifier: not specified"}, d)
	back := FromDiagnostic(d)
	require.Equal(t, d, ToDiagnostic(back))
	require.Equal(t, "button.md(12): J0103: identifier: not specified", e.Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	require.Nil(t, Wrap(at(1), CodeUnknownFatal, nil))
	wrapped := Wrap(at(1), CodeFileNotFound, fs.ErrNotExist)
	require.True(t, errors.Is(wrapped, fs.ErrNotExist))
	require.Equal(t, CodeFileNotFound, wrapped.Code())
}
