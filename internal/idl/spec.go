// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"fmt"
)

// Note sections a document's prose is collected into.
const (
	NoteShort     = "short"
	NoteLong      = "long"
	NoteRegisters = "registers"
	NoteCommands  = "commands"
	NoteEvents    = "events"
	NoteExamples  = "examples"
)

// ServiceSpec is the compiled form of one service specification document.
type ServiceSpec struct {
	Name            string               `json:"name" yaml:"name"`
	ShortID         string               `json:"shortId" yaml:"shortId"`
	CamelName       string               `json:"camelName" yaml:"camelName"`
	ShortName       string               `json:"shortName" yaml:"shortName"`
	Extends         []string             `json:"extends" yaml:"extends"`
	ClassIdentifier uint32               `json:"classIdentifier" yaml:"classIdentifier"`
	Notes           map[string]string    `json:"notes" yaml:"notes"`
	Enums           map[string]*EnumInfo `json:"enums" yaml:"enums"`
	Packets         []*PacketInfo        `json:"packets" yaml:"packets"`
	HighCommands    bool                 `json:"highCommands,omitempty" yaml:"highCommands,omitempty"`
	Errors          []Diagnostic         `json:"errors,omitempty" yaml:"errors,omitempty"`
	Source          string               `json:"source" yaml:"source"`
}

// NewServiceSpec returns an empty spec with every collection allocated.
func NewServiceSpec(shortID string, source string) *ServiceSpec {
	return &ServiceSpec{
		ShortID: shortID,
		Extends: []string{},
		Notes:   map[string]string{},
		Enums:   map[string]*EnumInfo{},
		Packets: []*PacketInfo{},
		Source:  source,
	}
}

// Failed reports whether the document carries any diagnostic.
func (s *ServiceSpec) Failed() bool {
	return len(s.Errors) > 0
}

// PacketsNamed returns every packet with the given name in declaration order.
func (s *ServiceSpec) PacketsNamed(name string) []*PacketInfo {
	var out []*PacketInfo
	for _, p := range s.Packets {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Packet finds the packet with the given kind and identifier.
func (s *ServiceSpec) Packet(kind PacketKind, identifier uint32) *PacketInfo {
	for _, p := range s.Packets {
		if p.Kind == kind && p.Identifier == identifier {
			return p
		}
	}
	return nil
}

type EnumInfo struct {
	Name    string           `json:"name" yaml:"name"`
	Storage StorageType      `json:"storage" yaml:"storage"`
	IsFlags bool             `json:"isFlags,omitempty" yaml:"isFlags,omitempty"`
	Members map[string]int64 `json:"members" yaml:"members"`
}

type PacketInfo struct {
	Kind           PacketKind `json:"kind" yaml:"kind"`
	Name           string     `json:"name" yaml:"name"`
	Identifier     uint32     `json:"identifier" yaml:"identifier"`
	IdentifierName string     `json:"identifierName,omitempty" yaml:"identifierName,omitempty"`
	Description    string     `json:"description" yaml:"description"`
	Fields         []Field    `json:"fields" yaml:"fields"`
	Optional       bool       `json:"optional,omitempty" yaml:"optional,omitempty"`
	PipeType       string     `json:"pipeType,omitempty" yaml:"pipeType,omitempty"`
	Derived        bool       `json:"derived,omitempty" yaml:"derived,omitempty"`
	Packed         bool       `json:"packed,omitempty" yaml:"packed,omitempty"`
}

type Field struct {
	Name         string      `json:"name" yaml:"name"`
	Unit         Unit        `json:"unit" yaml:"unit"`
	Shift        int         `json:"shift,omitempty" yaml:"shift,omitempty"`
	Type         string      `json:"type" yaml:"type"`
	Storage      StorageType `json:"storage" yaml:"storage"`
	IsSimpleType bool        `json:"isSimpleType,omitempty" yaml:"isSimpleType,omitempty"`
	DefaultValue *int64      `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	StartRepeats bool        `json:"startRepeats,omitempty" yaml:"startRepeats,omitempty"`
}

type Diagnostic struct {
	File    string `json:"file" yaml:"file"`
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s(%d): %s", d.File, d.Line, d.Message)
}

// StorageType encodes a wire width: 0 is variable length, a positive value is
// an unsigned width in bytes and a negative value a signed width in bytes.
type StorageType int

func (t StorageType) ByteSize() int {
	if t < 0 {
		return int(-t)
	}
	return int(t)
}

func (t StorageType) Signed() bool {
	return t < 0
}

// Canonical is the primitive spelling of the storage, such as u16 or i32.
func (t StorageType) Canonical() string {
	switch {
	case t == 0:
		return "bytes"
	case t < 0:
		return fmt.Sprintf("i%d", -t*8)
	default:
		return fmt.Sprintf("u%d", t*8)
	}
}

// CType is the C spelling of the storage.
func (t StorageType) CType() string {
	switch {
	case t == 0:
		return "bytes"
	case t < 0:
		return fmt.Sprintf("int%d_t", -t*8)
	default:
		return fmt.Sprintf("uint%d_t", t*8)
	}
}

type PacketKind uint8

const (
	PacketKindCommand PacketKind = iota
	PacketKindReport
	PacketKindConst
	PacketKindRO
	PacketKindRW
	PacketKindEvent
	PacketKindPipeCommand
	PacketKindPipeReport
	PacketKindMetaPipeCommand
	PacketKindMetaPipeReport
)

var packetKindNames = [...]string{
	PacketKindCommand:         "command",
	PacketKindReport:          "report",
	PacketKindConst:           "const",
	PacketKindRO:              "ro",
	PacketKindRW:              "rw",
	PacketKindEvent:           "event",
	PacketKindPipeCommand:     "pipe_command",
	PacketKindPipeReport:      "pipe_report",
	PacketKindMetaPipeCommand: "meta_pipe_command",
	PacketKindMetaPipeReport:  "meta_pipe_report",
}

func (k PacketKind) String() string {
	if int(k) < len(packetKindNames) {
		return packetKindNames[k]
	}
	return fmt.Sprintf("unknown-%d", k)
}

// ParsePacketKind maps the serialized spelling back to a kind.
func ParsePacketKind(s string) (PacketKind, bool) {
	for k, name := range packetKindNames {
		if name == s {
			return PacketKind(k), true
		}
	}
	return 0, false
}

func (k PacketKind) MarshalText() ([]byte, error) {
	if int(k) >= len(packetKindNames) {
		return nil, fmt.Errorf("invalid packet kind %d", k)
	}
	return []byte(k.String()), nil
}

func (k *PacketKind) UnmarshalText(b []byte) error {
	v, ok := ParsePacketKind(string(b))
	if !ok {
		return fmt.Errorf("invalid packet kind %q", string(b))
	}
	*k = v
	return nil
}

// IsRegister is true for const, ro and rw.
func (k PacketKind) IsRegister() bool {
	return k == PacketKindConst || k == PacketKindRO || k == PacketKindRW
}

// IsPipe is true for every pipe and meta-pipe packet.
func (k PacketKind) IsPipe() bool {
	switch k {
	case PacketKindPipeCommand, PacketKindPipeReport, PacketKindMetaPipeCommand, PacketKindMetaPipeReport:
		return true
	default:
		return false
	}
}

type Unit string

const (
	UnitNone        Unit = ""
	UnitFraction    Unit = "frac"
	UnitSecond      Unit = "s"
	UnitMillisecond Unit = "ms"
	UnitMicrosecond Unit = "us"
	UnitMillivolt   Unit = "mV"
	UnitMilliampere Unit = "mA"
	UnitMilliwattH  Unit = "mWh"
	UnitKelvin      Unit = "K"
	UnitCelsius     Unit = "C"
	UnitGram        Unit = "g"
	UnitRelHumidity Unit = "%RH"
	UnitBytes       Unit = "bytes"
)

var knownUnits = map[Unit]bool{
	UnitNone:        true,
	UnitFraction:    true,
	UnitSecond:      true,
	UnitMillisecond: true,
	UnitMicrosecond: true,
	UnitMillivolt:   true,
	UnitMilliampere: true,
	UnitMilliwattH:  true,
	UnitKelvin:      true,
	UnitCelsius:     true,
	UnitGram:        true,
	UnitRelHumidity: true,
	UnitBytes:       true,
}

func (u Unit) Known() bool {
	return knownUnits[u]
}

// Pretty is the display spelling used in generated comments.
func (u Unit) Pretty() string {
	switch u {
	case UnitMicrosecond:
		return "μs"
	case UnitCelsius:
		return "°C"
	case UnitFraction:
		return "fraction"
	default:
		return string(u)
	}
}
