package config

import (
	"os"
	"path/filepath"

	"github.com/rshade/freightdash/internal/logging"
)

// ToLoggingConfig converts the YAML section into a logging.Config. A file
// output without a path logs to Dir()/logs/freightdash.log.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	cfg := logging.Config{
		Level:  l.Level,
		Format: l.Format,
		Output: l.Output,
		File:   l.File,
		Caller: l.Caller,
	}
	if cfg.Output == logging.OutputFile && cfg.File == "" {
		cfg.File = DefaultLogPath()
	}
	return cfg
}

// DefaultLogPath is the log file used when none is configured.
func DefaultLogPath() string {
	return filepath.Join(Dir(), "logs", "freightdash.log")
}

// EnsureLogDir creates the directory of the configured log file.
func (l LoggingConfig) EnsureLogDir() error {
	path := l.ToLoggingConfig().File
	if path == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o750)
}
