package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/TaffyWrinkle/jacdac/internal/config"
)

func writeDoc(t *testing.T, dir string, name string, lines ...string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func newTestApp(t *testing.T, dir string, mutate func(c *config.Config)) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	empty := t.TempDir()
	seed := uint64(42)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &app{
		Dir:    dir,
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout: stdout,
		Stderr: stderr,
		LookupEnv: func(k string) (string, bool) {
			if k == "JACDAC_SPEC_PATH" {
				return empty, true
			}
			return "", false
		},
		Seed: &seed,
	}, stdout, stderr
}

var buttonDoc = []string{
	"# Button",
	"    identifier: 0x1473a263",
	"",
	"A push-button.",
	"",
	"    event down @ 0x01",
}

func TestRunClean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "button.md", buttonDoc...)
	a, stdout, stderr := newTestApp(t, dir, func(c *config.Config) {
		c.Formats = []string{"c", "json", "yaml", "proto"}
	})

	require.True(t, a.run(context.Background()))
	require.Empty(t, stderr.String())
	require.Contains(t, stdout.String(), "generated 1 of 1 documents")

	for _, p := range []string{"c/button.h", "json/button.json", "yaml/button.yaml", "proto/button.proto", "spec.json"} {
		require.FileExists(t, filepath.Join(dir, "generated", p))
	}
	header, err := os.ReadFile(filepath.Join(dir, "generated", "c", "button.h"))
	require.NoError(t, err)
	require.Contains(t, string(header), "#define JD_BUTTON_EV_DOWN 0x1\n")
	all, err := os.ReadFile(filepath.Join(dir, "generated", "spec.json"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(all), "[\n  {\n    \"name\": \"Button\""))
}

func TestRunDiagnostics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "button.md", buttonDoc...)
	writeDoc(t, dir, "broken.md", "# Broken", "    identifier: 0x16c810b8", "    }")
	a, stdout, stderr := newTestApp(t, dir, nil)

	require.False(t, a.run(context.Background()))
	require.Contains(t, stderr.String(), filepath.Join(dir, "broken.md")+"(3): nothing to end here")
	require.Contains(t, stdout.String(), "generated 1 of 2 documents")
	require.FileExists(t, filepath.Join(dir, "generated", "c", "button.h"))
	require.NoFileExists(t, filepath.Join(dir, "generated", "c", "broken.h"))
	require.NoFileExists(t, filepath.Join(dir, "generated", "spec.json"))
}

func TestRunIncludeRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "thermometer.md",
		"# Thermometer",
		"    identifier: 0x1421bac7",
		"    extends: _sensor",
	)
	writeDoc(t, dir, "shared/_sensor.md",
		"# Sensor",
		"    camel: sensor",
		"    rw streaming_interval @ 0x80 : u32 ms",
	)
	descriptors := filepath.Join(t.TempDir(), "out.pb")
	a, _, stderr := newTestApp(t, dir, func(c *config.Config) {
		c.Roots = []string{"shared"}
		c.DescriptorSetOut = descriptors
	})

	require.True(t, a.run(context.Background()), stderr.String())
	require.FileExists(t, filepath.Join(dir, "generated", "c", "thermometer.h"))
	require.NoFileExists(t, filepath.Join(dir, "generated", "c", "_sensor.h"))

	b, err := os.ReadFile(descriptors)
	require.NoError(t, err)
	fds := &descriptorpb.FileDescriptorSet{}
	require.NoError(t, proto.Unmarshal(b, fds))
	require.Len(t, fds.GetFile(), 1)
	require.Equal(t, "jacdac/thermometer.proto", fds.GetFile()[0].GetName())
}

func TestRunExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "button.md", buttonDoc...)
	writeDoc(t, dir, "draft.md", "# Draft", "    }")
	a, _, _ := newTestApp(t, dir, func(c *config.Config) {
		c.Exclude = []string{"draft.md"}
	})
	require.True(t, a.run(context.Background()))
}
