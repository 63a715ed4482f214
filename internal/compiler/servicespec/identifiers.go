// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Class identifiers outside this range are rejected.
const (
	MinClassIdentifier uint32 = 0x1000_0001
	MaxClassIdentifier uint32 = 0x1fff_ff00
)

// Fixed class identifiers of the reserved abstract documents.
const (
	BaseClassIdentifier   uint32 = 0x1fff_fff1
	SensorClassIdentifier uint32 = 0x1fff_fff2
)

var unrandomRuns = []string{"f00d", "dead", "deaf", "beef"}

// LooksRandom rejects identifiers whose hex spelling repeats a digit three
// times in a row or spells a recognizable word.
func LooksRandom(n uint32) bool {
	s := strconv.FormatUint(uint64(n), 16)
	for _, d := range "0123456789abcdef" {
		if strings.Contains(s, strings.Repeat(string(d), 3)) {
			return false
		}
	}
	for _, w := range unrandomRuns {
		if strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// SuggestClassIdentifier draws identifiers until one looks random. Values
// with the top bits set always contain "fff" so every suggestion lands in
// the accepted range.
func SuggestClassIdentifier(r *rand.Rand) uint32 {
	for {
		m := uint32(r.Int64N(0x0fff_ffff)) | 0x1000_0000
		if LooksRandom(m) {
			return m
		}
	}
}

func toHex(n uint32) string {
	return "0x" + strconv.FormatUint(uint64(n), 16)
}

type identifierRange uint8

const (
	rangeNone identifierRange = iota
	rangeUser
	rangeSystem
	rangeHigh
)

func between(v, lo, hi uint32) bool {
	return lo <= v && v <= hi
}

// classifyIdentifier places a packet identifier within the ranges of its
// kind, user ranges first. The second result is false for kinds that have
// no range table.
func classifyIdentifier(kind idl.PacketKind, v uint32) (identifierRange, bool) {
	var user, system bool
	high := between(v, 0x200, 0xeff)
	tabled := true
	switch kind {
	case idl.PacketKindConst, idl.PacketKindRO:
		system = between(v, 0x100, 0x17f)
		user = between(v, 0x180, 0x1ff)
	case idl.PacketKindRW:
		system = between(v, 0x00, 0x7f)
		user = between(v, 0x80, 0xff)
	case idl.PacketKindCommand, idl.PacketKindReport:
		system = between(v, 0x00, 0x7f)
		user = between(v, 0x80, 0xff)
		high = between(v, 0x100, 0xeff)
	case idl.PacketKindEvent:
		user = between(v, 0x0000, 0xffff)
		high = v >= 0x1_0000
	default:
		tabled = false
	}
	switch {
	case user:
		return rangeUser, tabled
	case system:
		return rangeSystem, tabled
	case high:
		return rangeHigh, tabled
	default:
		return rangeNone, tabled
	}
}
