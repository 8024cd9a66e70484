package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/config"
)

func TestResolveProjectDir(t *testing.T) {
	ctx := context.Background()

	t.Run("flag wins over env", func(t *testing.T) {
		flagDir := t.TempDir()
		t.Setenv(config.EnvProjectDir, t.TempDir())

		got := config.ResolveProjectDir(ctx, flagDir, "/does/not/matter")
		assert.Equal(t, filepath.Join(flagDir, config.ProjectDirName), got)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("env", func(t *testing.T) {
		envDir := t.TempDir()
		t.Setenv(config.EnvProjectDir, envDir)

		got := config.ResolveProjectDir(ctx, "", "/does/not/matter")
		assert.Equal(t, filepath.Join(envDir, config.ProjectDirName), got)
	})

	t.Run("no double append", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		dir := filepath.Join(t.TempDir(), config.ProjectDirName)

		assert.Equal(t, dir, config.ResolveProjectDir(ctx, dir, ""))
	})

	t.Run("walks up to nearest project", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, config.ProjectDirName), 0o750))
		sub := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(sub, 0o750))

		got := config.ResolveProjectDir(ctx, "", sub)
		want, err := filepath.EvalSymlinks(filepath.Join(root, config.ProjectDirName))
		require.NoError(t, err)
		gotResolved, err := filepath.EvalSymlinks(got)
		require.NoError(t, err)
		assert.Equal(t, want, gotResolved)
	})

	t.Run("no project", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		assert.Empty(t, config.ResolveProjectDir(ctx, "", ""))
	})
}

func TestMergeProjectConfig(t *testing.T) {
	ctx := context.Background()
	base := config.Default()
	base.Catalog = config.CatalogConfig{Source: config.SourceFile, Path: "/global/catalog.yaml"}

	t.Run("overlay replaces section", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
catalog:
  source: sqlite
  path: materials.db
  table: materials
`), 0o600))

		merged := config.MergeProjectConfig(ctx, base, dir)
		assert.Equal(t, config.SourceSQLite, merged.Catalog.Source)
		assert.Equal(t, "materials.db", merged.Catalog.Path)
		assert.Equal(t, "/global/catalog.yaml", base.Catalog.Path, "base is not modified")
	})

	t.Run("missing overlay", func(t *testing.T) {
		assert.Same(t, base, config.MergeProjectConfig(ctx, base, t.TempDir()))
	})

	t.Run("broken overlay keeps base", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("catalog: [\n"), 0o600))
		assert.Same(t, base, config.MergeProjectConfig(ctx, base, dir))
	})
}

func TestResolvedProjectDir(t *testing.T) {
	config.SetResolvedProjectDir("/tmp/project/.boqlca")
	t.Cleanup(func() { config.SetResolvedProjectDir("") })
	assert.Equal(t, "/tmp/project/.boqlca", config.GetResolvedProjectDir())
}
