// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"errors"
	"fmt"
	"math"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func (self *parser) normalizeName(n string) string {
	if !isName(n) {
		self.report(exc.CodeGrammar, "expecting name here")
	}
	return n
}

// packetKind consumes the kind keywords at the front of a packet statement.
func (self *parser) packetKind(ws *words) idl.PacketKind {
	switch keyword := ws.shift(); keyword {
	case "meta":
		w := ws.shift()
		if w == "pipe" {
			w = ws.shift()
		}
		switch w {
		case "report":
			return idl.PacketKindMetaPipeReport
		case "command":
			return idl.PacketKindMetaPipeCommand
		}
		self.report(exc.CodeGrammar, "invalid token after meta")
	case "pipe":
		switch ws.shift() {
		case "report":
			return idl.PacketKindPipeReport
		case "command":
			return idl.PacketKindPipeCommand
		}
		self.report(exc.CodeGrammar, "invalid token after pipe")
	default:
		if kind, ok := idl.ParsePacketKind(keyword); ok {
			return kind
		}
	}
	return idl.PacketKindCommand
}

func (self *parser) startPacket(ws words) {
	self.checkBraces()
	kind := self.packetKind(&ws)

	name := ws.shift()
	if kind == idl.PacketKindReport && self.lastCmd != nil && !isName(name) {
		ws.unshift(name)
		name = self.lastCmd.Name
	}
	packet := &idl.PacketInfo{
		Kind:   kind,
		Name:   self.normalizeName(name),
		Fields: []idl.Field{},
	}
	self.describing = append(self.describing, packet)

	if ws.peek() == "?" {
		ws.shift()
		packet.Optional = true
	}

	prev := self.info.PacketsNamed(packet.Name)
	reused := len(prev) == 1 && prev[0].Kind == idl.PacketKindCommand && kind == idl.PacketKindReport
	if len(prev) > 0 && !reused {
		self.report(exc.CodeStructural, "packet redefinition")
	}

	if kind.IsPipe() {
		if self.pipePacket == nil {
			self.report(exc.CodeStructural, "pipe definitions can only occur after the pipe-open packet")
		} else {
			packet.PipeType = self.pipePacket.PipeType
		}
	}

	self.assignIdentifier(packet, &ws)

	if self.info.Packet(kind, packet.Identifier) != nil {
		self.report(exc.CodeIdentifier, "packet identifier already used")
	}
	self.info.Packets = append(self.info.Packets, packet)
	self.open = packetBlock{info: packet}
	if kind == idl.PacketKindCommand {
		self.lastCmd = packet
	} else {
		self.lastCmd = nil
	}

	if isAssign(ws.peek()) {
		if ws.index("{") >= 0 {
			self.report(exc.CodeGrammar, "member need to use either block or inline syntax, not both")
		}
		ws.unshift("_")
		self.packetField(packet, ws)
		self.finishPacket(packet)
		return
	}

	switch last := ws.shift(); {
	case last == "{":
		if ws.peek() == "..." {
			ws.shift()
		}
		self.inlineFields(packet, ws)
	case last == "" && kind == idl.PacketKindEvent:
		self.finishPacket(packet)
	default:
		self.report(exc.CodeGrammar, "expecting '{'")
	}
}

// inlineFields handles members written on the opening line, optionally
// followed by the closing brace.
func (self *parser) inlineFields(packet *idl.PacketInfo, ws words) {
	body, closed := ws, false
	if i := ws.index("}"); i >= 0 {
		body, closed = ws[:i], true
		if rest := ws[i+1:]; len(rest) > 0 {
			self.report(exc.CodeGrammar, fmt.Sprintf("excessive tokens: %s...", rest[0]))
		}
	}
	for _, stmt := range splitStatements(self.ctx, body, fieldComplete) {
		self.packetField(packet, stmt)
	}
	if closed {
		self.finishPacket(packet)
	}
}

func (self *parser) assignIdentifier(packet *idl.PacketInfo, ws *words) {
	if packet.Kind == idl.PacketKindPipeCommand || packet.Kind == idl.PacketKindPipeReport {
		packet.Identifier = 0
		return
	}
	at := ws.index("@")
	if at < 0 {
		if packet.Kind == idl.PacketKindReport && self.lastCmd != nil {
			packet.Identifier = self.lastCmd.Identifier
			return
		}
		self.report(exc.CodeIdentifier, fmt.Sprintf("@ not found at %s", packet.Name))
		return
	}

	w := ws.at(at + 1)
	ws.remove(at, 2)
	v, err := parseIntLiteral(w)
	if errors.Is(err, errNotInteger) {
		v = self.resolveSymbolicIdentifier(packet, w)
	}
	if errors.Is(err, errIntRange) || v < 0 || v > math.MaxUint32 {
		self.report(exc.CodeIdentifier, fmt.Sprintf("packet identifier %s out of range", w))
		return
	}
	id := uint32(v)
	packet.Identifier = id

	r, tabled := classifyIdentifier(packet.Kind, id)
	switch r {
	case rangeUser:
	case rangeSystem:
		if packet.IdentifierName == "" {
			self.warn(fmt.Sprintf("%s @ %s should be expressed with a name from _base.md", packet.Kind, toHex(id)))
		}
	case rangeHigh:
		if !self.info.HighCommands {
			self.warn(fmt.Sprintf("%s @ %s is from the extended range but 'high: 1' missing", packet.Kind, toHex(id)))
		}
	default:
		if tabled {
			self.warn(fmt.Sprintf("%s @ %s is outside of all identifier ranges", packet.Kind, toHex(id)))
		}
	}
}

// resolveSymbolicIdentifier looks the name up among the packets of the
// system base document.
func (self *parser) resolveSymbolicIdentifier(packet *idl.PacketInfo, w string) int64 {
	base := self.includes.ResolveBase(BaseDocument)
	if !base.IsPresent() {
		self.report(exc.CodeReference, fmt.Sprintf("%s cannot be resolved, since _base is missing", w))
		return 0
	}
	named := base.Value().PacketsNamed(w)
	if len(named) == 0 {
		self.report(exc.CodeReference, fmt.Sprintf("%s not found in _base", w))
		return 0
	}
	target := named[0]
	packet.IdentifierName = w
	if target.Kind != packet.Kind {
		self.report(exc.CodeReference, fmt.Sprintf("kind mismatch on %s: %s vs %s", w, target.Kind, packet.Kind))
	}
	return int64(target.Identifier)
}

func (self *parser) packetField(packet *idl.PacketInfo, ws words) {
	if len(ws) == 2 && ws[0] == "repeats" {
		self.nextRepeats = true
		return
	}
	field := idl.Field{Name: self.normalizeName(ws.shift())}
	op := ws.shift()
	if op == "=" {
		v := self.parseIntCheck(ws.shift())
		field.DefaultValue = &v
		op = ws.shift()
	}
	if op != ":" {
		self.report(exc.CodeGrammar, "expecting ':'")
	}

	tp, err := ResolveType(ws.shift(), self.info.Enums)
	if err != nil {
		self.report(exc.CodeType, err.Error())
	}
	unit, err := ResolveUnit(ws.shift())
	if err != nil {
		self.report(exc.CodeUnit, err.Error())
	}
	if len(ws) > 0 {
		self.report(exc.CodeGrammar, fmt.Sprintf("excessive tokens at the end of member: %s...", ws[0]))
	}

	if tp.CarriesPipe() {
		packet.PipeType = packet.Name
		keep := self.pipePacket != nil && self.pipePacket.Name == packet.Name && packet.Kind == idl.PacketKindReport
		if !keep {
			self.pipePacket = packet
		}
	}

	field.Unit = unit
	field.Shift = tp.Shift
	field.Type = tp.Name
	field.Storage = tp.Storage
	field.IsSimpleType = tp.IsSimple()
	field.StartRepeats = self.nextRepeats
	packet.Fields = append(packet.Fields, field)
	self.nextRepeats = false
}

func (self *parser) finishPacket(packet *idl.PacketInfo) {
	packet.Packed = !HasNaturalAlignment(packet)
	self.open = nil
}

// HasNaturalAlignment reports whether every fixed-size field starts at an
// offset that is a multiple of its size. Variable length fields are
// skipped and u8[N] arrays never need alignment.
func HasNaturalAlignment(packet *idl.PacketInfo) bool {
	offset := 0
	for _, f := range packet.Fields {
		size := f.Storage.ByteSize()
		if size == 0 {
			continue
		}
		if !IsByteArrayType(f.Type) && offset%size != 0 {
			return false
		}
		offset += size
	}
	return true
}
