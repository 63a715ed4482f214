package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFiles are looked up in the input directory in this order.
var ProjectConfigFiles = []string{"jdspectool.yaml", "jdspectool.yml", "jdspectool.toml"}

// Loader finds and loads the configuration of an input directory.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load returns the defaults overlaid with the explicit config file, or with
// the first project config file found in dir when explicit is empty. The
// result is not validated so that flags can still be applied.
func (l *Loader) Load(dir string, explicit string) (*Config, error) {
	if explicit != "" {
		l.logger.Debug("Loading config", slog.String("path", explicit))
		return LoadFromFile(explicit)
	}
	for _, name := range ProjectConfigFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		l.logger.Debug("Loading project config", slog.String("path", p))
		return LoadFromFile(p)
	}
	l.logger.Debug("No project config found", slog.String("dir", dir))
	return DefaultConfig(), nil
}
