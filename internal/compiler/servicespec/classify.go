package servicespec

import "strings"

type lineClass uint8

const (
	lineProse lineClass = iota
	lineCode
	lineSkip
)

type fenceState uint8

const (
	fenceNone fenceState = iota
	// fenceUntagged hides its contents from both prose and definitions.
	fenceUntagged
	// fenceTagged contents are kept as prose, indented lines included.
	fenceTagged
)

const fenceMarker = "```"

// codeIndent marks a definition line.
const codeIndent = "    "

// classifier tracks fenced blocks across lines. Nothing inside a fence is
// ever interpreted as a definition.
type classifier struct {
	fence fenceState
}

func (c *classifier) classify(text string) lineClass {
	trimmed := strings.TrimSpace(text)
	switch c.fence {
	case fenceNone:
		if strings.HasPrefix(trimmed, fenceMarker) {
			if strings.TrimSpace(strings.TrimPrefix(trimmed, fenceMarker)) == "" {
				c.fence = fenceUntagged
				return lineSkip
			}
			c.fence = fenceTagged
			return lineProse
		}
		if strings.HasPrefix(text, codeIndent) {
			return lineCode
		}
		return lineProse
	case fenceUntagged:
		if trimmed == fenceMarker {
			c.fence = fenceNone
		}
		return lineSkip
	default:
		if trimmed == fenceMarker {
			c.fence = fenceNone
		}
		return lineProse
	}
}
