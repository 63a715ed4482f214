// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// TypeClass is the closed set of storage shapes a type token can resolve to.
type TypeClass uint8

const (
	TypeClassUnknown TypeClass = iota
	TypeClassEnum
	TypeClassFixedPoint
	TypeClassInteger
	TypeClassBool
	TypeClassPipe
	TypeClassPipePort
	TypeClassVariable
	TypeClassByteArray
)

// placeholderStorage keeps parsing going after an unresolvable type.
const placeholderStorage idl.StorageType = 4

// ResolvedType is the canonical description of a field or enum type token.
type ResolvedType struct {
	Class   TypeClass
	Name    string
	Storage idl.StorageType
	Shift   int
}

// IsSimple is true when the canonical token is already the primitive
// spelling of its storage.
func (t ResolvedType) IsSimple() bool {
	return t.Storage.Canonical() == t.Name
}

// CarriesPipe is true for types that open a pipe.
func (t ResolvedType) CarriesPipe() bool {
	return t.Class == TypeClassPipe || t.Class == TypeClassPipePort
}

var (
	fixedPointPattern = regexp.MustCompile(`^([ui])(\d+)\.(\d+)$`)
	byteArrayPattern  = regexp.MustCompile(`^u8\[(\d+)\]$`)
)

var integerWidths = map[string]idl.StorageType{
	"u8":  1,
	"u16": 2,
	"u32": 4,
	"u64": 8,
	"i8":  -1,
	"i16": -2,
	"i32": -4,
	"i64": -8,
}

// ResolveType maps a type token to its storage. Enum names declared so far
// take precedence over every builtin. On error the returned type is still
// usable: unknown types fall back to a 4 byte placeholder.
func ResolveType(token string, enums map[string]*idl.EnumInfo) (ResolvedType, error) {
	if e, ok := enums[token]; ok && token != "" {
		return ResolvedType{Class: TypeClassEnum, Name: token, Storage: e.Storage}, nil
	}
	if token == "" {
		return ResolvedType{Class: TypeClassUnknown, Storage: placeholderStorage}, fmt.Errorf("expecting type here")
	}
	name := strings.ToLower(strings.TrimSuffix(token, "_t"))

	if m := fixedPointPattern.FindStringSubmatch(name); m != nil {
		a, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		sign := idl.StorageType(1)
		if m[1] == "i" {
			sign = -1
		}
		bits := a + b
		switch bits {
		case 8, 16, 32, 64:
			return ResolvedType{Class: TypeClassFixedPoint, Name: name, Storage: sign * idl.StorageType(bits/8), Shift: b}, nil
		default:
			return ResolvedType{Class: TypeClassFixedPoint, Name: name, Storage: sign * placeholderStorage, Shift: b},
				fmt.Errorf("fixed point %s can't be %d bits", token, bits)
		}
	}

	if w, ok := integerWidths[name]; ok {
		return ResolvedType{Class: TypeClassInteger, Name: name, Storage: w}, nil
	}

	switch name {
	case "bool":
		return ResolvedType{Class: TypeClassBool, Name: name, Storage: 1}, nil
	case "pipe":
		return ResolvedType{Class: TypeClassPipe, Name: name, Storage: 12}, nil
	case "pipe_port":
		return ResolvedType{Class: TypeClassPipePort, Name: name, Storage: 2}, nil
	case "bytes", "string", "i32[]":
		return ResolvedType{Class: TypeClassVariable, Name: name, Storage: 0}, nil
	}

	if m := byteArrayPattern.FindStringSubmatch(name); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return ResolvedType{Class: TypeClassByteArray, Name: name, Storage: placeholderStorage},
				fmt.Errorf("array length %s out of range", m[1])
		}
		return ResolvedType{Class: TypeClassByteArray, Name: name, Storage: idl.StorageType(n)}, nil
	}

	return ResolvedType{Class: TypeClassUnknown, Name: name, Storage: placeholderStorage}, fmt.Errorf("unknown type: %s", token)
}

// IsByteArrayType reports whether a canonical type token is a fixed u8[N]
// array, which never needs alignment.
func IsByteArrayType(name string) bool {
	return byteArrayPattern.MatchString(name)
}

// ResolveUnit validates a unit token. An empty token means no unit.
func ResolveUnit(token string) (idl.Unit, error) {
	u := idl.Unit(token)
	if !u.Known() {
		return idl.UnitNone, fmt.Errorf("expecting unit, got '%s'", token)
	}
	return u, nil
}
