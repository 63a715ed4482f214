// Package config holds the driver configuration and its file formats.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/TaffyWrinkle/jacdac/internal/gen"
)

// Config is the driver configuration. Fields left out of a config file keep
// their default value.
type Config struct {
	// Output is the directory generated files are written to. A relative
	// path is relative to the input directory.
	Output string `yaml:"output"`
	// Roots are extra directories of documents that can be extended but are
	// not generated.
	Roots []string `yaml:"roots"`
	// Include and Exclude are doublestar patterns matched against document
	// paths relative to the input directory.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Formats names the converters to run.
	Formats []string `yaml:"formats"`
	// DescriptorSetOut, when set, receives a FileDescriptorSet of every
	// generated proto schema.
	DescriptorSetOut string `yaml:"descriptor_set_out"`
	// Plugin is a protoc plugin executable run over the descriptor set.
	Plugin   string      `yaml:"plugin"`
	Watch    WatchConfig `yaml:"watch"`
	LogLevel string      `yaml:"log_level"`
	Color    bool        `yaml:"color"`
}

type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce"`
}

func DefaultConfig() *Config {
	return &Config{
		Output:   "generated",
		Formats:  []string{"c", "json"},
		LogLevel: "warn",
		Color:    true,
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if _, err := gen.New(c.Formats); err != nil {
		return fmt.Errorf("formats: %w", err)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", d)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Debounce is the parsed watch debounce. Call Validate first.
func (c *Config) Debounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// LoadFromFile decodes a YAML or TOML file, chosen by extension, on top of
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".toml":
		err = decodeTOML(data, config)
	default:
		return nil, fmt.Errorf("unsupported config file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// decodeTOML goes through the generic form of the document so that absent
// keys keep their defaults like they do for YAML.
func decodeTOML(data []byte, config *Config) error {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return err
	}
	generic, err := yaml.Marshal(tree.ToMap())
	if err != nil {
		return err
	}
	return yaml.Unmarshal(generic, config)
}
