package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/TaffyWrinkle/jacdac/internal/compiler"
	"github.com/TaffyWrinkle/jacdac/internal/config"
	"github.com/TaffyWrinkle/jacdac/internal/fs"
	"github.com/TaffyWrinkle/jacdac/internal/gen"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// app compiles one input directory.
type app struct {
	Dir       string
	Config    *config.Config
	Logger    *slog.Logger
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	// Seed makes suggested class identifiers reproducible when set.
	Seed *uint64
}

func (self *app) outputDir() string {
	if filepath.IsAbs(self.Config.Output) {
		return self.Config.Output
	}
	return filepath.Join(self.Dir, self.Config.Output)
}

func (self *app) newCompiler() (idl.Compiler, error) {
	filter, err := fs.NewGlobFilter(self.Config.Include, self.Config.Exclude)
	if err != nil {
		return nil, err
	}
	targets, err := fs.NewFileSystemLocal(self.Dir, fs.WithOptionFileFilter(filter))
	if err != nil {
		return nil, err
	}
	roots := make([]idl.FileSystem, 0, len(self.Config.Roots))
	for _, root := range self.Config.Roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(self.Dir, root)
		}
		rf, err := fs.NewFileSystemLocal(root)
		if err != nil {
			return nil, err
		}
		roots = append(roots, rf)
	}
	defaults, err := compiler.NewDefaultFS(self.LookupEnv)
	if err != nil {
		return nil, err
	}
	options := []compiler.Option{
		compiler.OptionWithLookupEnv(self.LookupEnv),
		compiler.OptionWithFS(targets),
		compiler.OptionWithIncludeFS(roots...),
		compiler.OptionWithIncludeFS(defaults...),
		compiler.OptionWithLogger(self.Logger),
	}
	if self.Seed != nil {
		options = append(options, compiler.OptionWithSeed(*self.Seed))
	}
	return compiler.New(options...)
}

// run compiles the directory once and writes the output of every document
// without diagnostics. It reports whether the whole corpus was clean.
func (self *app) run(ctx context.Context) bool {
	c, err := self.newCompiler()
	if err != nil {
		printError(self.Stderr, err)
		return false
	}
	resp, err := c.Compile(ctx, &idl.CompileRequest{Files: []string{"/"}, Includes: []string{"/"}})
	clean := true
	if err != nil {
		var me compiler.MultiException
		if !errors.As(err, &me) {
			printError(self.Stderr, err)
			return false
		}
		for _, e := range me {
			printError(self.Stderr, e)
		}
		clean = false
	}

	converters, err := gen.New(self.Config.Formats)
	if err != nil {
		printError(self.Stderr, err)
		return false
	}
	out, err := fs.NewFileSystemLocal(self.outputDir())
	if err != nil {
		printError(self.Stderr, err)
		return false
	}

	var generated []*idl.ServiceSpec
	for _, spec := range resp.Corpus.Specs {
		if spec.Failed() {
			clean = false
			for _, d := range spec.Errors {
				printDiagnostic(self.Stderr, self.Dir, spec, d)
			}
			continue
		}
		if err := self.write(ctx, out, converters, spec); err != nil {
			printError(self.Stderr, err)
			clean = false
			continue
		}
		generated = append(generated, spec)
	}

	if clean {
		all, err := gen.Aggregate(resp.Corpus.Specs)
		if err == nil {
			err = out.Write(ctx, "/spec.json", string(all))
		}
		if err != nil {
			printError(self.Stderr, err)
			clean = false
		}
	}
	if self.Config.DescriptorSetOut != "" || self.Config.Plugin != "" {
		if err := self.descriptors(ctx, out, generated); err != nil {
			printError(self.Stderr, err)
			clean = false
		}
	}
	printSummary(self.Stdout, len(resp.Corpus.Specs), len(generated), clean)
	return clean
}

func (self *app) write(ctx context.Context, out idl.FileSystem, converters []gen.Converter, spec *idl.ServiceSpec) error {
	for _, cnv := range converters {
		content, err := cnv.Convert(spec)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", spec.ShortID, cnv.Name(), err)
		}
		uri := path.Join("/", cnv.Name(), spec.ShortID+"."+cnv.Ext())
		if err := out.Write(ctx, uri, string(content)); err != nil {
			return err
		}
		self.Logger.Debug("wrote output", "key", spec.ShortID, "format", cnv.Name())
	}
	return nil
}

func (self *app) descriptors(ctx context.Context, out idl.FileSystem, specs []*idl.ServiceSpec) error {
	fds, err := gen.DescriptorSet(specs)
	if err != nil {
		return err
	}
	if self.Config.DescriptorSetOut != "" {
		b, err := proto.Marshal(fds)
		if err != nil {
			return err
		}
		if err := os.WriteFile(self.Config.DescriptorSetOut, b, 0o644); err != nil {
			return err
		}
	}
	if self.Config.Plugin != "" {
		return self.runPlugin(ctx, out, fds)
	}
	return nil
}

// runPlugin feeds the schemas to a protoc plugin and writes the files it
// returns into the output directory.
func (self *app) runPlugin(ctx context.Context, out idl.FileSystem, fds *descriptorpb.FileDescriptorSet) error {
	names := make([]string, 0, len(fds.File))
	for _, f := range fds.File {
		names = append(names, f.GetName())
	}
	request := pluginpb.CodeGeneratorRequest{
		ProtoFile:       fds.File,
		FileToGenerate:  names,
		CompilerVersion: &pluginpb.Version{},
	}
	requestBytes, err := proto.Marshal(&request)
	if err != nil {
		return err
	}

	var pluginOut bytes.Buffer
	var pluginErr bytes.Buffer
	cmd := exec.CommandContext(ctx, self.Config.Plugin)
	cmd.Stdin = bytes.NewReader(requestBytes)
	cmd.Stdout = &pluginOut
	cmd.Stderr = &pluginErr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s%w", pluginErr.String(), err)
	}

	response := pluginpb.CodeGeneratorResponse{}
	if err := proto.Unmarshal(pluginOut.Bytes(), &response); err != nil {
		return err
	}
	if response.Error != nil {
		return fmt.Errorf("plugin %s: %s", self.Config.Plugin, response.GetError())
	}
	for _, responseFile := range response.File {
		if err := out.Write(ctx, path.Join("/", responseFile.GetName()), responseFile.GetContent()); err != nil {
			return err
		}
	}
	return nil
}
