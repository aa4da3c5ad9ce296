package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// ResolveProjectDir determines the project-local .carbonconsult directory.
// It checks (in order):
//  1. flagValue (--project-dir CLI flag)
//  2. CARBONCONSULT_PROJECT_DIR env var
//  3. the nearest ancestor of startDir holding a .carbonconsult directory
//
// The user configuration directory is never returned as a project. Returns
// an absolute path, or empty string if no project was found. Does not create
// the directory.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}

	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	if startDir == "" {
		return ""
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	userDir, _ := HomeDir()
	if userDir != "" {
		userDir, _ = filepath.Abs(userDir)
	}

	for {
		candidate := filepath.Join(dir, DirName)
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() && candidate != userDir {
			logging.FromContext(ctx).Debug().
				Str("component", "config").
				Str("project_dir", candidate).
				Msg("found project configuration directory")
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// toAbsProjectDir converts dir to an absolute path and appends
// ".carbonconsult" unless it already ends with it.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == DirName {
		return abs
	}

	return filepath.Join(abs, DirName)
}
