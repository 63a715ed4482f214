// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/TaffyWrinkle/jacdac/internal/compiler/servicespec"
	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/fs"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/target"
)

type Option func(c *compiler) error

// OptionWithFS sets the file system that request targets are opened from.
func OptionWithFS(fs idl.FileSystem) Option {
	return func(c *compiler) error {
		c.FS = fs
		return nil
	}
}

// OptionWithIncludeFS sets the include roots. Every root is searched for
// every include of a request. Calling it without roots disables the
// default roots.
func OptionWithIncludeFS(roots ...idl.FileSystem) Option {
	return func(c *compiler) error {
		if c.IncludeFS == nil {
			c.IncludeFS = fs.FileSystemMulti{}
		}
		c.IncludeFS = append(c.IncludeFS, roots...)
		return nil
	}
}

func OptionWithLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return func(c *compiler) error {
		c.LookupENV = lookupEnv
		return nil
	}
}

// OptionWithExcReporter collects corpus level exceptions of every request
// in the given reporter instead of a fresh one per request.
func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

func OptionWithMaxConcurrency(n int) Option {
	return func(c *compiler) error {
		if n < 1 {
			return fmt.Errorf("max concurrency must be positive, got %d", n)
		}
		c.MaxConcurrency = n
		return nil
	}
}

func OptionWithLogger(logger *slog.Logger) Option {
	return func(c *compiler) error {
		c.Logger = logger
		return nil
	}
}

// OptionWithSeed makes suggested class identifiers reproducible.
func OptionWithSeed(seed uint64) Option {
	return func(c *compiler) error {
		c.Seed = seed
		c.seeded = true
		return nil
	}
}

func OptionWithSubCompilers(scs map[idl.FileKind]SubCompiler) Option {
	return func(c *compiler) error {
		c.SubCompilers = scs
		return nil
	}
}

func New(opts ...Option) (idl.Compiler, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.LookupENV == nil {
		c.LookupENV = lookupNothing
	}
	if c.FS == nil {
		f, err := fs.NewFileSystemLocal(".")
		if err != nil {
			return nil, err
		}
		c.FS = f
	}
	if c.IncludeFS == nil {
		dfs, err := NewDefaultFS(c.LookupENV)
		if err != nil {
			return nil, err
		}
		c.IncludeFS = dfs
	}
	if c.MaxConcurrency == 0 {
		max := runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if max > cpus {
			max = cpus
		}
		c.MaxConcurrency = max
	}
	if c.Semaphore == nil {
		c.Semaphore = newSemaphore(c.MaxConcurrency)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !c.seeded {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.SubCompilers == nil {
		sc, err := servicespec.New(servicespec.WithSeed(c.Seed))
		if err != nil {
			return nil, err
		}
		c.SubCompilers = DefaultSubCompilers(sc)
	}
	return c, nil
}

func lookupNothing(string) (string, bool) {
	return "", false
}

type compiler struct {
	LookupENV      func(string) (string, bool)
	FS             idl.FileSystem
	IncludeFS      fs.FileSystemMulti
	MaxConcurrency int
	Semaphore      *semaphore
	Reporter       exc.Reporter
	SubCompilers   map[idl.FileKind]SubCompiler
	Logger         *slog.Logger
	Seed           uint64
	seeded         bool
}

// unit is one document of a request.
type unit struct {
	key    string
	path   string
	kind   idl.FileKind
	file   idl.File
	deps   []servicespec.Dependency
	target bool
}

type unitResult struct {
	unit *unit
	spec *idl.ServiceSpec
	err  error
}

// Compile builds every target and include of the request. Documents are
// compiled in waves so that each document sees all of its bases and only
// the class identifiers of earlier waves. The returned corpus is complete
// even when an error is returned; the error is a MultiException naming the
// files that could not be compiled at all.
func (self *compiler) Compile(ctx context.Context, req *idl.CompileRequest) (*idl.CompileResponse, error) {
	reporter := self.Reporter
	if reporter == nil {
		reporter = exc.NewReporter(nil)
	}
	units := make(map[string]*unit)
	for _, f := range req.Files {
		uri := target.Normalize(f)
		files, err := self.FS.Open(ctx, uri)
		if err != nil {
			_ = reporter.Report(asException(uri, err))
			continue
		}
		self.load(ctx, reporter, units, files, true)
	}
	for _, f := range req.Includes {
		uri := target.Normalize(f)
		for _, root := range self.IncludeFS {
			files, err := root.Open(ctx, uri)
			if err != nil {
				self.Logger.Debug("include root skipped", "uri", uri, "error", err)
				continue
			}
			self.load(ctx, reporter, units, files, false)
		}
	}

	waves, cyclic := plan(units)
	if len(cyclic) > 0 {
		waves = append(waves, cyclic)
	}
	table := newCorpusTable()
	all := make(map[string]*idl.ServiceSpec, len(units))
	for n, wave := range waves {
		done, err := self.compileWave(ctx, reporter, table, wave)
		if err != nil {
			return nil, err
		}
		for key, spec := range done {
			self.Logger.Debug("compiled document", "key", key, "wave", n, "diagnostics", len(spec.Errors))
			all[key] = spec
		}
		table.publish(done)
	}

	for _, u := range cyclic {
		if spec, ok := all[u.key]; ok {
			spec.Errors = append(spec.Errors, cycleDiagnostic(u, units))
		}
	}
	inheritDiagnostics(all, self.reportCollisions(table, units, all))

	corpus := &idl.Corpus{}
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	failed := 0
	for _, key := range keys {
		spec := all[key]
		if spec.Failed() {
			failed = failed + 1
		}
		if units[key].target {
			corpus.Specs = append(corpus.Specs, spec)
		} else {
			corpus.Included = append(corpus.Included, spec)
		}
	}
	self.Logger.Info("compiled corpus", "documents", len(keys), "waves", len(waves), "failed", failed)

	caught := reporter.Reported()
	if len(caught) > 0 {
		return &idl.CompileResponse{Corpus: corpus}, MultiException(caught)
	}
	return &idl.CompileResponse{Corpus: corpus}, nil
}

func (self *compiler) load(ctx context.Context, reporter exc.Reporter, units map[string]*unit, files []idl.File, isTarget bool) {
	for _, file := range files {
		kind := file.Kind(ctx)
		if kind == idl.FileKindNone {
			continue
		}
		p := file.Path(ctx)
		key := target.Key(p)
		if prev, ok := units[key]; ok {
			self.Logger.Debug("duplicate document key ignored", "key", key, "path", p, "kept", prev.path)
			continue
		}
		content, err := fs.ReadAll(ctx, file)
		if err != nil {
			_ = reporter.Report(asException(p, err))
			continue
		}
		u := &unit{
			key:    key,
			path:   p,
			kind:   kind,
			file:   fs.NewFileString(p, content, kind),
			target: isTarget,
		}
		if kind == idl.FileKindServiceSpec {
			deps, err := servicespec.Dependencies(ctx, u.file)
			if err != nil {
				_ = reporter.Report(asException(p, err))
				continue
			}
			u.deps = deps
		}
		units[key] = u
	}
}

func (self *compiler) compileWave(ctx context.Context, reporter exc.Reporter, table *corpusTable, wave []*unit) (map[string]*idl.ServiceSpec, error) {
	results := make(chan unitResult, len(wave))
	for _, u := range wave {
		go func(u *unit) {
			self.Semaphore.Lock()
			defer self.Semaphore.Unlock()
			results <- self.compileUnit(ctx, table, u)
		}(u)
	}
	done := make(map[string]*idl.ServiceSpec, len(wave))
	for x := 0; x < len(wave); x = x + 1 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			if result.err != nil {
				_ = reporter.Report(asException(result.unit.path, result.err))
				continue
			}
			done[result.unit.key] = result.spec
		}
	}
	return done, nil
}

// compileUnit turns a fault in a sub-compiler into an error for that file
// alone.
func (self *compiler) compileUnit(ctx context.Context, table *corpusTable, u *unit) (result unitResult) {
	result.unit = u
	defer func() {
		if r := recover(); r != nil {
			result.spec = nil
			result.err = exc.New(exc.Location{URI: u.path}, exc.CodeUnknownFatal, fmt.Sprintf("exception: %v", r))
		}
	}()
	result.spec, result.err = self.compileFile(ctx, table.view(u.key), u)
	return result
}

func (self *compiler) compileFile(ctx context.Context, includes idl.Includes, u *unit) (*idl.ServiceSpec, error) {
	sc := self.SubCompilers[u.kind]
	if sc == nil {
		return nil, exc.New(exc.Location{URI: u.path}, exc.CodeUnsupportedFileFormat, "Unsupported file format")
	}
	return sc.CompileFile(ctx, includes, u.file)
}

// plan orders documents into waves. A document joins the first wave after
// all of its bases, and every document other than the system base waits
// for it. Documents left over take part in an extends cycle or depend on
// one.
func plan(units map[string]*unit) ([][]*unit, []*unit) {
	deps := make(map[string][]string, len(units))
	for key, u := range units {
		seen := make(map[string]bool)
		if _, ok := units[servicespec.BaseDocument]; ok && key != servicespec.BaseDocument {
			deps[key] = append(deps[key], servicespec.BaseDocument)
			seen[servicespec.BaseDocument] = true
		}
		for _, d := range u.deps {
			if _, ok := units[d.Key]; ok && !seen[d.Key] && d.Key != key {
				deps[key] = append(deps[key], d.Key)
				seen[d.Key] = true
			}
		}
	}

	placed := make(map[string]bool, len(units))
	var waves [][]*unit
	for len(placed) < len(units) {
		var wave []*unit
		for key, u := range units {
			if placed[key] {
				continue
			}
			ready := true
			for _, d := range deps[key] {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, u)
			}
		}
		if len(wave) == 0 {
			break
		}
		sortUnits(wave)
		for _, u := range wave {
			placed[u.key] = true
		}
		waves = append(waves, wave)
	}

	var rest []*unit
	for key, u := range units {
		if !placed[key] {
			rest = append(rest, u)
		}
	}
	sortUnits(rest)
	return waves, rest
}

func sortUnits(us []*unit) {
	sort.Slice(us, func(i, j int) bool { return us[i].key < us[j].key })
}

// cycleDiagnostic follows the extends statements of a document that could
// not be placed until a document repeats.
func cycleDiagnostic(u *unit, units map[string]*unit) idl.Diagnostic {
	line := int32(0)
	for _, d := range u.deps {
		if _, ok := units[d.Key]; ok {
			line = d.Line
			break
		}
	}
	visited := map[string]int{u.key: 0}
	chain := []string{u.key}
	current := u
	for {
		var next *unit
		for _, d := range current.deps {
			if n, ok := units[d.Key]; ok {
				next = n
				break
			}
		}
		if next == nil {
			break
		}
		if at, ok := visited[next.key]; ok {
			chain = append(chain[at:], next.key)
			break
		}
		visited[next.key] = len(chain)
		chain = append(chain, next.key)
		current = next
	}
	return idl.Diagnostic{
		File:    path.Base(u.path),
		Line:    int(line),
		Message: fmt.Sprintf("extends cycle: %s", strings.Join(chain, " -> ")),
	}
}

// reportCollisions gives every document that shares a class identifier a
// diagnostic naming each other owner, unless the document pass already
// reported that owner. It returns the diagnostics it added by document key.
func (self *compiler) reportCollisions(table *corpusTable, units map[string]*unit, all map[string]*idl.ServiceSpec) map[string][]idl.Diagnostic {
	added := make(map[string][]idl.Diagnostic)
	collisions := table.collisions()
	ids := make([]uint32, 0, len(collisions))
	for id := range collisions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		owners := collisions[id]
		r := rand.New(rand.NewPCG(self.Seed, uint64(id)))
		for _, a := range owners {
			spec, ok := all[a.Key]
			if !ok {
				continue
			}
			for _, b := range owners {
				if b.Key == a.Key || table.wasReported(a.Key, b.Key) {
					continue
				}
				d := idl.Diagnostic{
					File: path.Base(units[a.Key].path),
					Line: int(a.Line),
					Message: fmt.Sprintf("class identifier 0x%x already used in %s; how about 0x%x",
						id, b.Name, servicespec.SuggestClassIdentifier(r)),
				}
				spec.Errors = append(spec.Errors, d)
				added[a.Key] = append(added[a.Key], d)
			}
		}
	}
	return added
}

// inheritDiagnostics hands diagnostics added after the waves down to every
// document that extends the affected one, directly or through other bases.
func inheritDiagnostics(all map[string]*idl.ServiceSpec, added map[string][]idl.Diagnostic) {
	if len(added) == 0 {
		return
	}
	memo := make(map[string][]idl.Diagnostic)
	visiting := make(map[string]bool)
	var inherited func(key string) []idl.Diagnostic
	inherited = func(key string) []idl.Diagnostic {
		if ds, ok := memo[key]; ok {
			return ds
		}
		spec, ok := all[key]
		if !ok || visiting[key] {
			return nil
		}
		visiting[key] = true
		var out []idl.Diagnostic
		for _, base := range spec.Extends {
			out = append(out, inherited(base)...)
		}
		out = append(out, added[key]...)
		visiting[key] = false
		memo[key] = out
		return out
	}

	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	extra := make(map[string][]idl.Diagnostic, len(keys))
	for _, key := range keys {
		for _, base := range all[key].Extends {
			extra[key] = append(extra[key], inherited(base)...)
		}
	}
	for _, key := range keys {
		all[key].Errors = append(all[key].Errors, extra[key]...)
	}
}

func asException(uri string, err error) exc.Exception {
	var e exc.Exception
	if errors.As(err, &e) {
		return e
	}
	return exc.WrapUnknown(exc.Location{URI: uri}, err)
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
