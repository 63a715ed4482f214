package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// printDiagnostic prints one document diagnostic as FILE(LINE): MESSAGE.
// The file is the document the diagnostic was raised in, which differs from
// the document itself for diagnostics inherited from a base.
func printDiagnostic(w io.Writer, dir string, spec *idl.ServiceSpec, d idl.Diagnostic) {
	file := d.File
	if file == "" {
		file = spec.ShortID + ".md"
	}
	fmt.Fprintln(w, errorColorFG.Sprintf("%s(%d): %s", filepath.Join(dir, file), d.Line, d.Message))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyleBG.Sprint("error")+" "+errorColorFG.Sprint(err.Error()))
}

func printSummary(w io.Writer, total int, generated int, clean bool) {
	if clean {
		fmt.Fprintln(w, successStyleBG.Sprint("ok")+" "+successColorFG.Sprintf("generated %d of %d documents", generated, total))
		return
	}
	fmt.Fprintln(w, errorStyleBG.Sprint("failed")+" "+errorColorFG.Sprintf("generated %d of %d documents", generated, total))
}
