package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rshade/freightdash/internal/logging"
)

// ErrNoProject is returned when no project directory is found.
var ErrNoProject = errors.New("no .freightdash project directory found")

// ResolveProjectDir determines the project-local .freightdash directory.
// It checks, in order:
//  1. flagValue (--project-dir)
//  2. FREIGHTDASH_PROJECT_DIR
//  3. a .freightdash directory in startDir or any parent
//
// Returns an absolute path, or "" if no project is found. It never creates
// the directory.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}
	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	dir, err := FindProjectDir(startDir)
	if err != nil {
		if !errors.Is(err, ErrNoProject) {
			logger := logging.FromContext(ctx)
			logger.Warn().
				Str("component", "config").
				Err(err).
				Str("start_dir", startDir).
				Msg("unexpected error during project discovery")
		}
		return ""
	}
	return dir
}

// FindProjectDir walks up from startDir looking for a .freightdash directory,
// stopping before the user config directory itself.
func FindProjectDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	userDir, _ := filepath.Abs(Dir())

	for {
		candidate := filepath.Join(dir, dirName)
		if candidate != userDir {
			if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// NewWithProjectDir loads the user config, then shallow-merges
// projectDir/config.yaml on top. An empty projectDir behaves like New.
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()
	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, configFile)
	if _, err := os.Stat(overlayPath); err != nil {
		return cfg
	}

	merged := New()
	if err := ShallowMergeYAML(merged, overlayPath); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using user config")
		return cfg
	}
	merged.path = overlayPath
	merged.fillDefaults()
	merged.ApplyEnv()
	return merged
}

// toAbsProjectDir resolves dir and appends .freightdash unless already present.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}
	if filepath.Base(abs) == dirName {
		return abs
	}
	return filepath.Join(abs, dirName)
}
