package servicespec

import (
	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func (self *parser) startEnum(ws words) {
	self.checkBraces()
	if ws.at(2) != ":" || ws.at(4) != "{" {
		self.report(exc.CodeGrammar, "expecting: enum NAME : TYPE {")
	}
	tp, err := ResolveType(ws.at(3), self.info.Enums)
	if err != nil {
		self.report(exc.CodeType, err.Error())
	}
	e := &idl.EnumInfo{
		Name:    self.normalizeName(ws.at(1)),
		Storage: tp.Storage,
		IsFlags: ws.at(0) == "flags",
		Members: map[string]int64{},
	}
	if _, ok := self.info.Enums[e.Name]; ok {
		self.report(exc.CodeStructural, "enum redefinition")
	}
	self.info.Enums[e.Name] = e
	self.open = enumBlock{info: e}

	if len(ws) <= 5 {
		return
	}
	body, closed := ws[5:], false
	if i := body.index("}"); i >= 0 {
		body, closed = body[:i], true
	}
	for _, stmt := range splitStatements(self.ctx, body, memberComplete) {
		self.enumMember(e, stmt)
	}
	if closed {
		self.open = nil
	}
}

// enumMember accepts NAME = VALUE where the value is an integer or a member
// of an enum declared earlier.
func (self *parser) enumMember(e *idl.EnumInfo, ws words) {
	if ws.at(1) != "=" || len(ws) != 3 {
		self.report(exc.CodeGrammar, "expecting: FIELD_NAME = INTEGER")
		return
	}
	e.Members[self.normalizeName(ws[0])] = self.parseIntCheck(ws[2])
}
