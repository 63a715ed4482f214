package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TaffyWrinkle/jacdac/internal/compiler/servicespec"
	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/fs"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/target"
)

// SubCompiler produces the IR of one document. Document level problems are
// recorded in the IR. A returned error means the file could not be turned
// into an IR at all.
type SubCompiler interface {
	CompileFile(ctx context.Context, includes idl.Includes, file idl.File) (*idl.ServiceSpec, error)
}

func DefaultSubCompilers(sc *servicespec.Compiler) map[idl.FileKind]SubCompiler {
	return map[idl.FileKind]SubCompiler{
		idl.FileKindServiceSpec:     &SubCompilerServiceSpec{Compiler: sc},
		idl.FileKindServiceSpecJSON: &SubCompilerJSON{},
	}
}

// SubCompilerServiceSpec compiles markdown service specifications.
type SubCompilerServiceSpec struct {
	Compiler *servicespec.Compiler
}

func (self *SubCompilerServiceSpec) CompileFile(ctx context.Context, includes idl.Includes, file idl.File) (*idl.ServiceSpec, error) {
	return self.Compiler.CompileFile(ctx, includes, file)
}

// SubCompilerJSON loads a previously compiled ServiceSpec.
type SubCompilerJSON struct{}

func (self *SubCompilerJSON) CompileFile(ctx context.Context, includes idl.Includes, file idl.File) (*idl.ServiceSpec, error) {
	p := file.Path(ctx)
	loc := exc.Location{URI: p}
	content, err := fs.ReadAll(ctx, file)
	if err != nil {
		return nil, exc.WrapUnknown(loc, err)
	}
	key := target.Key(p)
	spec := idl.NewServiceSpec(key, "")
	if err := json.Unmarshal([]byte(content), spec); err != nil {
		return nil, exc.Wrap(loc, exc.CodeUnsupportedFileFormat, fmt.Errorf("decoding service spec: %w", err))
	}
	if err := checkEntries(spec); err != nil {
		return nil, exc.Wrap(loc, exc.CodeUnsupportedFileFormat, err)
	}
	fillDefaults(spec, key)
	if spec.ClassIdentifier != 0 {
		includes.RecordClassIdentifier(spec.ClassIdentifier, idl.ClassOwner{Key: key, Name: spec.Name})
	}
	return spec, nil
}

// checkEntries rejects null members of the enum table and packet list.
func checkEntries(spec *idl.ServiceSpec) error {
	for name, e := range spec.Enums {
		if e == nil {
			return fmt.Errorf("decoding service spec: enum %s is null", name)
		}
	}
	for n, p := range spec.Packets {
		if p == nil {
			return fmt.Errorf("decoding service spec: packet %d is null", n)
		}
	}
	return nil
}

// fillDefaults restores the collections that an encoder may have dropped.
func fillDefaults(spec *idl.ServiceSpec, key string) {
	if spec.ShortID == "" {
		spec.ShortID = key
	}
	if spec.Extends == nil {
		spec.Extends = []string{}
	}
	if spec.Notes == nil {
		spec.Notes = map[string]string{}
	}
	if spec.Enums == nil {
		spec.Enums = map[string]*idl.EnumInfo{}
	}
	for _, e := range spec.Enums {
		if e.Members == nil {
			e.Members = map[string]int64{}
		}
	}
	if spec.Packets == nil {
		spec.Packets = []*idl.PacketInfo{}
	}
	for _, p := range spec.Packets {
		if p.Fields == nil {
			p.Fields = []idl.Field{}
		}
	}
}
