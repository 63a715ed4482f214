// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Reserved document keys.
const (
	// BaseDocument declares the system packets every service shares and
	// resolves symbolic packet identifiers.
	BaseDocument = "_base"
	// implicitBase is the key of extends targets that are never merged.
	implicitBase = "base"
	controlName  = "Control"
	controlKey   = "control"
)

func (self *parser) metadataMember(ws words) {
	if !isAssign(ws.at(1)) || len(ws) != 3 {
		self.report(exc.CodeGrammar, "expecting: FIELD_NAME = VALUE or FIELD_NAME : VALUE")
		return
	}
	value := ws[2]
	switch ws[0] {
	case "extends":
		self.processInclude(value)
	case "class", "identifier":
		self.classIdentifier(value)
	case "camel":
		self.info.CamelName = value
	case "short":
		self.info.ShortName = value
	case "high":
		self.info.HighCommands = self.parseIntCheck(value) != 0
	default:
		self.report(exc.CodeGrammar, fmt.Sprintf("unknown metadata field: %s", ws[0]))
	}
}

func (self *parser) classIdentifier(value string) {
	// One statement offers one replacement however many checks fail.
	suggested := ""
	suggest := func() string {
		if suggested == "" {
			suggested = self.suggestion()
		}
		return suggested
	}
	v := self.parseIntCheck(value)
	if v == 0 && self.info.Name != controlName {
		v = 1
	}
	self.classLine = self.line
	if v != 0 && (v < int64(MinClassIdentifier) || v > int64(MaxClassIdentifier)) {
		self.report(exc.CodeIdentifier, "class identifier out of range; "+suggest())
	}
	if v < 0 || v > 0xffff_ffff {
		self.info.ClassIdentifier = 0
		return
	}
	id := uint32(v)
	self.info.ClassIdentifier = id
	if !LooksRandom(id) {
		self.report(exc.CodeIdentifier, "class identifier doesn't look random; "+suggest())
	}
	if owner := self.includes.LookupClassIdentifier(id); owner.IsPresent() {
		self.report(exc.CodeIdentifier, fmt.Sprintf("class identifier %s already used in %s; %s",
			toHex(id), owner.Value().Name, suggest()))
	}
}

func (self *parser) suggestion() string {
	return "how about " + toHex(SuggestClassIdentifier(self.rand))
}

// processInclude merges a base document into the one being compiled. It must
// precede every local enum and packet.
func (self *parser) processInclude(name string) {
	if name == implicitBase {
		return
	}
	inner := self.includes.ResolveBase(name)
	if !inner.IsPresent() {
		self.report(exc.CodeReference, fmt.Sprintf("include file not found: %s", name))
		return
	}
	if len(self.info.Packets) > 0 || len(self.info.Enums) > 0 {
		self.report(exc.CodeStructural, "extends: only allowed on top of the .md file")
		return
	}
	base := inner.Value()
	for _, d := range base.Errors {
		self.reporter.Append(exc.FromDiagnostic(d))
	}
	self.info.Enums = idl.CloneEnums(base.Enums)
	self.info.Packets = idl.ClonePackets(base.Packets)
	for _, p := range self.info.Packets {
		p.Derived = true
	}
	if base.HighCommands {
		self.info.HighCommands = true
	}
	self.info.Notes = maps.Clone(base.Notes)
	if self.info.Notes == nil {
		self.info.Notes = map[string]string{}
	}
	self.info.Extends = append(self.info.Extends, name)
}

// parseIntCheck resolves an integer literal or an ENUM.MEMBER reference.
// Failures are reported and yield zero.
func (self *parser) parseIntCheck(w string) int64 {
	v, err := parseIntLiteral(w)
	switch {
	case err == nil:
		return v
	case errors.Is(err, errIntRange):
		self.report(exc.CodeInvalidNumber, fmt.Sprintf("integer %s out of range", w))
		return 0
	}
	parts := strings.Split(w, ".")
	if len(parts) != 2 {
		self.report(exc.CodeGrammar, "expecting int or enum member here")
		return 0
	}
	e, ok := self.info.Enums[parts[0]]
	if !ok {
		self.report(exc.CodeReference, fmt.Sprintf("%s is not an enum type", parts[0]))
		return 0
	}
	member, ok := e.Members[parts[1]]
	if !ok {
		self.report(exc.CodeReference, fmt.Sprintf("%s is not a member of %s", parts[1], parts[0]))
		return 0
	}
	return member
}
