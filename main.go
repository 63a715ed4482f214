package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/TaffyWrinkle/jacdac/internal/config"
)

type opts struct {
	Config           string
	Output           string
	Roots            []string
	Include          []string
	Exclude          []string
	Formats          []string
	DescriptorSetOut string
	Plugin           string
	Watch            bool
	LogLevel         string
	NoColor          bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	op := &opts{}
	flags := pflag.NewFlagSet("jdspectool", pflag.PanicOnError)
	flags.StringVar(&op.Config, "config", "", "Config file. Defaults to jdspectool.yaml or jdspectool.toml in DIRECTORY.")
	flags.StringVar(&op.Output, "output", "generated", "Output directory, relative to DIRECTORY.")
	flags.StringSliceVar(&op.Roots, "root", nil, "Extra directories of documents that can be extended.")
	flags.StringSliceVar(&op.Include, "include", nil, "Only compile documents matching these glob patterns.")
	flags.StringSliceVar(&op.Exclude, "exclude", nil, "Skip documents matching these glob patterns.")
	flags.StringSliceVar(&op.Formats, "format", []string{"c", "json"}, "Output formats: c, json, yaml, proto.")
	flags.StringVar(&op.DescriptorSetOut, "descriptor_set_out", "", "Writes a protobuf FileDescriptorSet of every generated schema to FILE")
	flags.StringVar(&op.Plugin, "plugin", "", "Specifies a protoc plugin executable to run over the generated schemas.")
	flags.BoolVar(&op.Watch, "watch", false, "Recompile whenever a document changes.")
	flags.StringVar(&op.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error.")
	flags.BoolVar(&op.NoColor, "no-color", false, "Disable colored output.")
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: jdspectool [flags] DIRECTORY")
		flags.PrintDefaults()
		os.Exit(1)
	}
	dir, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	cfg, err := config.NewLoader(slog.Default()).Load(dir, op.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	op.apply(flags, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if !cfg.Color {
		pterm.DisableColor()
	}

	a := &app{
		Dir:       dir,
		Config:    cfg,
		Logger:    logger,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
	}
	if cfg.Watch.Enabled {
		if err := a.watch(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}
	if !a.run(ctx) {
		os.Exit(1)
	}
}

// apply overrides config file values with the flags given on the command
// line.
func (op *opts) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("output") {
		cfg.Output = op.Output
	}
	if flags.Changed("root") {
		cfg.Roots = op.Roots
	}
	if flags.Changed("include") {
		cfg.Include = op.Include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = op.Exclude
	}
	if flags.Changed("format") {
		cfg.Formats = op.Formats
	}
	if flags.Changed("descriptor_set_out") {
		cfg.DescriptorSetOut = op.DescriptorSetOut
	}
	if flags.Changed("plugin") {
		cfg.Plugin = op.Plugin
	}
	if flags.Changed("watch") {
		cfg.Watch.Enabled = op.Watch
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = op.LogLevel
	}
	if op.NoColor {
		cfg.Color = false
	}
}
