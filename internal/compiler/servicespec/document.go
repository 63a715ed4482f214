// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package servicespec

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/fs"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/iter"
	"github.com/TaffyWrinkle/jacdac/internal/optional"
	"github.com/TaffyWrinkle/jacdac/internal/target"
)

// Compiler converts one service specification document at a time. It is
// safe for concurrent use; each document draws suggestions from its own
// generator seeded by the compiler seed and the document key.
type Compiler struct {
	seed uint64
}

type Option func(c *Compiler) error

// WithSeed fixes the seed behind suggested class identifiers.
func WithSeed(seed uint64) Option {
	return func(c *Compiler) error {
		c.seed = seed
		return nil
	}
}

func New(options ...Option) (*Compiler, error) {
	c := &Compiler{
		seed: uint64(time.Now().UnixNano()),
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (self *Compiler) randFor(key string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return rand.New(rand.NewPCG(self.seed, h.Sum64()))
}

// CompileFile reads and compiles a markdown document.
func (self *Compiler) CompileFile(ctx context.Context, includes idl.Includes, file idl.File) (*idl.ServiceSpec, error) {
	source, err := fs.ReadAll(ctx, file)
	if err != nil {
		return nil, err
	}
	return self.Compile(ctx, includes, file.Path(ctx), source), nil
}

// Compile runs the line pass over a document and returns its IR. Problems
// in the document never fail the call; they are recorded in the IR's
// error list. The class identifier of the document is recorded in the
// includes once compilation is complete.
func (self *Compiler) Compile(ctx context.Context, includes idl.Includes, p string, source string) *idl.ServiceSpec {
	if includes == nil {
		includes = noIncludes{}
	}
	key := target.Key(p)
	info := idl.NewServiceSpec(key, source)
	state := &parser{
		ctx:      ctx,
		info:     info,
		includes: includes,
		reporter: exc.NewReporter(nil, exc.WithSuppressedWarnings(key == BaseDocument)),
		rand:     self.randFor(key),
		uri:      path.Base(p),
		noteID:   idl.NoteShort,
	}

	state.run(ctx, fs.NewFileString(p, source, idl.FileKindServiceSpec))
	self.postProcess(state)

	if info.ClassIdentifier != 0 {
		includes.RecordClassIdentifier(info.ClassIdentifier, idl.ClassOwner{Key: key, Name: info.Name, Line: state.classLine})
	}
	for _, e := range state.reporter.Reported() {
		if info.CamelName == implicitBase && exc.IsWarning(e.Code()) {
			continue
		}
		info.Errors = append(info.Errors, exc.ToDiagnostic(e))
	}
	return info
}

// run feeds every line to the parser. An unexpected fault ends the pass and
// is recorded as one diagnostic.
func (self *parser) run(ctx context.Context, file idl.File) {
	defer func() {
		if r := recover(); r != nil {
			self.report(exc.CodeUnknownFatal, fmt.Sprintf("exception: %v", r))
		}
	}()
	body, err := file.Body(ctx)
	if err != nil {
		self.report(exc.CodeUnknownFatal, fmt.Sprintf("exception: %v", err))
		return
	}
	lines := iter.NewLineFileBodyCtx(ctx, body)
	defer lines.Close(ctx)
	for line := lines.Next(ctx); line.IsPresent(); line = lines.Next(ctx) {
		self.line = line.Value().Number
		self.processLine(line.Value().Text)
	}
	self.finish()
}

func (self *Compiler) postProcess(state *parser) {
	info := state.info
	for k, v := range info.Notes {
		info.Notes[k] = strings.TrimSpace(v)
	}
	for _, p := range info.Packets {
		p.Description = strings.TrimSpace(p.Description)
	}
	if info.CamelName == "" {
		info.CamelName = CamelName(info.Name)
	}
	if info.ShortName == "" {
		info.ShortName = info.CamelName
	}
	switch info.CamelName {
	case "base":
		info.ClassIdentifier = BaseClassIdentifier
	case "sensor":
		info.ClassIdentifier = SensorClassIdentifier
	}
	if info.ClassIdentifier == 0 && info.ShortName != controlKey && info.ShortID != controlKey {
		state.report(exc.CodeIdentifier, "identifier: not specified")
	}
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	wordBoundary  = regexp.MustCompile(`[ -](.)`)
	nonWordRun    = regexp.MustCompile(`[^\w]+`)
)

// CamelName derives the identifier form of a document title, so that
// "Rotary encoder" becomes "RotaryEncoder".
func CamelName(name string) string {
	s := whitespaceRun.ReplaceAllString(name, " ")
	s = wordBoundary.ReplaceAllStringFunc(s, func(m string) string {
		r := []rune(m[1:])
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		return string(r)
	})
	return nonWordRun.ReplaceAllString(s, "_")
}

// Dependency is one extends statement found by Dependencies.
type Dependency struct {
	Key  string
	Line int32
}

// Dependencies lists the extends targets of a document without compiling
// it, in declaration order.
func Dependencies(ctx context.Context, file idl.File) ([]Dependency, error) {
	body, err := file.Body(ctx)
	if err != nil {
		return nil, err
	}
	var c classifier
	code := iter.NewIteratorFilter(iter.NewLineFileBodyCtx(ctx, body), idl.Filter[idl.Line](iter.FilterFunc[idl.Line](func(ctx context.Context, line idl.Line) bool {
		return c.classify(line.Text) == lineCode
	})))
	lines, err := iter.Collect(ctx, code)
	if err != nil {
		return nil, err
	}
	var out []Dependency
	seen := map[string]bool{}
	for _, line := range lines {
		ws := tokenize(line.Text)
		if len(ws) == 3 && ws[0] == "extends" && isAssign(ws[1]) && ws[2] != implicitBase && !seen[ws[2]] {
			seen[ws[2]] = true
			out = append(out, Dependency{Key: ws[2], Line: line.Number})
		}
	}
	return out, nil
}

type noIncludes struct{}

func (noIncludes) ResolveBase(string) optional.Optional[*idl.ServiceSpec] {
	return optional.None[*idl.ServiceSpec]()
}

func (noIncludes) LookupClassIdentifier(uint32) optional.Optional[idl.ClassOwner] {
	return optional.None[idl.ClassOwner]()
}

func (noIncludes) RecordClassIdentifier(uint32, idl.ClassOwner) {}
