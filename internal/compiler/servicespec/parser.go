// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// block is the definition currently open between braces. A nil block means
// the parser is at document level.
type block interface {
	isBlock()
}

type enumBlock struct {
	info *idl.EnumInfo
}

type packetBlock struct {
	info *idl.PacketInfo
}

func (enumBlock) isBlock()   {}
func (packetBlock) isBlock() {}

var noteSections = map[string]bool{
	idl.NoteRegisters: true,
	idl.NoteCommands:  true,
	idl.NoteEvents:    true,
	idl.NoteExamples:  true,
}

type parser struct {
	ctx      context.Context
	info     *idl.ServiceSpec
	includes idl.Includes
	reporter exc.Reporter
	rand     *rand.Rand
	uri      string
	line     int32

	lines   classifier
	open    block
	noteID  string
	lastCmd *idl.PacketInfo
	// pipePacket is the most recent packet carrying a pipe field.
	pipePacket *idl.PacketInfo
	// describing receives prose until the next definition. Several packets
	// share a description when no prose separates them.
	describing  []*idl.PacketInfo
	nextRepeats bool
	classLine   int32
}

func (self *parser) location() exc.Location {
	return exc.Location{URI: self.uri, Location: idl.Location{Line: self.line}}
}

func (self *parser) report(code string, message string) {
	if message == "" {
		message = "syntax error"
	}
	_ = self.reporter.Report(exc.New(self.location(), code, message))
}

func (self *parser) warn(message string) {
	self.report(exc.CodeWarning, message)
}

func (self *parser) processLine(text string) {
	switch self.lines.classify(text) {
	case lineSkip:
	case lineProse:
		self.processProse(text)
	case lineCode:
		self.processCode(text)
	}
}

func (self *parser) processProse(text string) {
	if strings.HasPrefix(text, "#") {
		level := len(text) - len(strings.TrimLeft(text, "#"))
		heading := strings.TrimSpace(text[level:])
		section := strings.ToLower(heading)
		self.describing = nil
		switch {
		case level == 1 && self.info.Name == "":
			self.info.Name = heading
			text = ""
		case noteSections[section]:
			self.noteID = section
			text = ""
		case self.noteID == idl.NoteShort:
			self.noteID = idl.NoteLong
		}
	}

	if self.describing != nil {
		for _, p := range self.describing {
			p.Description += text + "\n"
		}
		return
	}
	if text != "" || self.info.Notes[self.noteID] != "" {
		self.info.Notes[self.noteID] += text + "\n"
	}
}

func (self *parser) processCode(text string) {
	if len(self.describing) > 0 && self.describing[0].Description != "" {
		self.describing = nil
	}
	ws := words(tokenize(text))
	if len(ws) == 0 {
		return
	}
	switch dispatchKey(ws) {
	case "enum", "flags":
		self.startEnum(ws)
	case "meta", "pipe", "report", "command", "const", "ro", "rw", "event":
		self.startPacket(ws)
	case "}":
		self.closeBlock()
	default:
		switch b := self.open.(type) {
		case packetBlock:
			self.packetField(b.info, ws)
		case enumBlock:
			self.enumMember(b.info, ws)
		default:
			self.metadataMember(ws)
		}
	}
}

func (self *parser) closeBlock() {
	switch b := self.open.(type) {
	case packetBlock:
		self.finishPacket(b.info)
	case enumBlock:
		self.open = nil
	default:
		self.report(exc.CodeStructural, "nothing to end here")
	}
}

// checkBraces rejects a definition that starts while another block is
// still open. The open packet is finalized so its layout stays valid.
func (self *parser) checkBraces() {
	if self.open != nil {
		self.report(exc.CodeStructural, "already in braces")
		if b, ok := self.open.(packetBlock); ok {
			self.finishPacket(b.info)
		}
	}
	self.open = nil
}

// finish closes the document after the last line.
func (self *parser) finish() {
	if self.open != nil {
		self.report(exc.CodeGrammar, "missing '}' at end of file")
		self.closeBlock()
	}
}
