package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joel31000/CarbonConsult/internal/config"
)

// isolate points the user config directory somewhere harmless and clears
// the project override.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvHome, filepath.Join(t.TempDir(), "home"))
	t.Setenv(config.EnvProjectDir, "")
}

func TestResolveProjectDir_FlagOverride(t *testing.T) {
	isolate(t)
	flagDir := t.TempDir()

	got := config.ResolveProjectDir(context.Background(), flagDir, "/does/not/matter")

	assert.Equal(t, filepath.Join(flagDir, ".carbonconsult"), got)
	assert.True(t, filepath.IsAbs(got), "returned path must be absolute")
}

func TestResolveProjectDir_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	envDir := t.TempDir()
	flagDir := t.TempDir()
	t.Setenv(config.EnvProjectDir, envDir)

	got := config.ResolveProjectDir(context.Background(), flagDir, "")

	assert.Equal(t, filepath.Join(flagDir, ".carbonconsult"), got)
}

func TestResolveProjectDir_EnvVarOverride(t *testing.T) {
	isolate(t)
	envDir := filepath.Join(t.TempDir(), ".carbonconsult")
	t.Setenv(config.EnvProjectDir, envDir)

	got := config.ResolveProjectDir(context.Background(), "", "/does/not/matter")

	assert.Equal(t, envDir, got, "no double append")
}

func TestResolveProjectDir_WalkUp(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".carbonconsult"), 0o750))
	subDir := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(subDir, 0o750))

	got := config.ResolveProjectDir(context.Background(), "", subDir)

	assert.Equal(t, filepath.Join(root, ".carbonconsult"), got)
}

func TestResolveProjectDir_NoProject(t *testing.T) {
	isolate(t)

	got := config.ResolveProjectDir(context.Background(), "", t.TempDir())

	assert.Empty(t, got)
}

func TestResolveProjectDir_SkipsUserDir(t *testing.T) {
	root := t.TempDir()
	userDir := filepath.Join(root, ".carbonconsult")
	require.NoError(t, os.Mkdir(userDir, 0o750))
	t.Setenv(config.EnvHome, userDir)
	t.Setenv(config.EnvProjectDir, "")

	got := config.ResolveProjectDir(context.Background(), "", root)

	assert.Empty(t, got)
}

func TestResolveProjectDir_FileNamedLikeDirIsIgnored(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".carbonconsult"), nil, 0o600))

	got := config.ResolveProjectDir(context.Background(), "", root)

	assert.Empty(t, got)
}
