package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates files below root. Keys are slash-separated paths.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func gomod(path string) string {
	return "module " + path + "\n\ngo 1.22\n"
}

// workspaceTree is a go.work with two used modules and one stray module.
func workspaceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.work":         "go 1.22\n\nuse (\n\t./app\n\t./lib\n)\n",
		"app/go.mod":      gomod("example.com/app"),
		"app/cmd/main.go": "package main\n",
		"lib/go.mod":      gomod("example.com/lib"),
		"stray/go.mod":    gomod("example.com/stray"),
	})
	return root
}

func TestLocate_ProjectDir(t *testing.T) {
	t.Run("single module", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"go.mod":              gomod("example.com/single"),
			"internal/users/u.go": "package users\n",
		})

		layout, err := Locate(Locator{ProjectDir: filepath.Join(root, "internal", "users")})
		require.NoError(t, err)

		assert.Equal(t, root, layout.Root)
		assert.Empty(t, layout.WorkFile)
		assert.Equal(t, "example.com/single", layout.Main)
		assert.Equal(t, []Module{{Path: "example.com/single", Dir: root}}, layout.Modules)
	})

	t.Run("module used by a workspace", func(t *testing.T) {
		root := workspaceTree(t)

		layout, err := Locate(Locator{ProjectDir: filepath.Join(root, "lib")})
		require.NoError(t, err)

		assert.Equal(t, root, layout.Root)
		assert.Equal(t, filepath.Join(root, "go.work"), layout.WorkFile)
		assert.Equal(t, "example.com/lib", layout.Main)
		assert.Equal(t, []Module{
			{Path: "example.com/app", Dir: filepath.Join(root, "app")},
			{Path: "example.com/lib", Dir: filepath.Join(root, "lib")},
		}, layout.Modules)

		main, ok := layout.MainModule()
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "lib"), main.Dir)
	})

	t.Run("module outside the enclosing workspace", func(t *testing.T) {
		root := workspaceTree(t)

		layout, err := Locate(Locator{ProjectDir: filepath.Join(root, "stray")})
		require.NoError(t, err)

		assert.Empty(t, layout.WorkFile)
		assert.Equal(t, "example.com/stray", layout.Main)
		assert.Len(t, layout.Modules, 1)
	})

	t.Run("go.mod path", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"go.mod": gomod("example.com/file")})

		layout, err := Locate(Locator{ProjectDir: filepath.Join(root, "go.mod")})
		require.NoError(t, err)
		assert.Equal(t, "example.com/file", layout.Main)
	})

	t.Run("no go.mod", func(t *testing.T) {
		_, err := Locate(Locator{ProjectDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("go.mod without module path", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"go.mod": "go 1.22\n"})

		_, err := Locate(Locator{ProjectDir: root})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocate_WorkspaceDir(t *testing.T) {
	root := workspaceTree(t)

	tests := []struct {
		name     string
		dir      string
		main     string
		wantMain string
		wantErr  error
	}{
		{name: "defaults to first module", dir: root, wantMain: "example.com/app"},
		{name: "explicit main module", dir: root, main: "example.com/lib", wantMain: "example.com/lib"},
		{name: "directory below go.work", dir: filepath.Join(root, "app", "cmd"), wantMain: "example.com/app"},
		{name: "unknown main module", dir: root, main: "example.com/stray", wantErr: ErrNoMainModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := Locate(Locator{WorkspaceDir: tt.dir, MainModule: tt.main})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMain, layout.Main)
			assert.Len(t, layout.Modules, 2)
		})
	}

	t.Run("single module without go.work", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"go.mod": gomod("example.com/alone")})

		layout, err := Locate(Locator{WorkspaceDir: dir})
		require.NoError(t, err)
		assert.Equal(t, "example.com/alone", layout.Main)
	})

	t.Run("go.work using no modules", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"go.work": "go 1.22\n"})

		_, err := Locate(Locator{WorkspaceDir: dir})
		assert.ErrorIs(t, err, ErrNoMainModule)
	})

	t.Run("go.work using a missing module", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"go.work": "go 1.22\n\nuse ./gone\n"})

		_, err := Locate(Locator{WorkspaceDir: dir})
		assert.Error(t, err)
	})
}

func TestLocate_ProjectType(t *testing.T) {
	t.Run("type of this module", func(t *testing.T) {
		layout, err := Locate(Locator{ProjectType: &Layout{}})
		require.NoError(t, err)
		assert.Equal(t, "github.com/wvanhemert/DI-Validator", layout.Main)
	})

	t.Run("predeclared type", func(t *testing.T) {
		_, err := Locate(Locator{ProjectType: 42})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("type from another module", func(t *testing.T) {
		_, err := Locate(Locator{ProjectType: assert.Comparison(nil)})
		assert.ErrorIs(t, err, ErrNoMainModule)
	})
}

func TestLocate_NoLocator(t *testing.T) {
	_, err := Locate(Locator{MainModule: "example.com/app"})
	assert.ErrorIs(t, err, ErrNoLocator)
}

func TestSeekUp(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod":     gomod("example.com/seek"),
		"a/b/c/x.go": "package c\n",
	})
	want := filepath.Join(root, "go.mod")

	for _, start := range []string{
		root,
		filepath.Join(root, "a", "b", "c"),
		filepath.Join(root, "a", "b", "c", "x.go"),
		want,
	} {
		got, err := seekUp(start, "go.mod")
		require.NoError(t, err, start)
		assert.Equal(t, want, got, start)
	}
}

func TestLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod":            gomod("example.com/tiny"),
		"tiny.go":           "package tiny\n\ntype Service struct{}\n\nfunc NewService() *Service { return nil }\n",
		"internal/db/db.go": "package db\n\ntype DB struct{}\n",
	})

	layout, err := Locate(Locator{ProjectDir: root})
	require.NoError(t, err)

	units, err := Load(context.Background(), layout, nil)
	require.NoError(t, err)
	require.Len(t, units, 1)

	unit := units[0]
	assert.Equal(t, "example.com/tiny", unit.ID)
	assert.Equal(t, root, unit.Dir)
	assert.NotNil(t, unit.Fset)
	assert.ElementsMatch(t, []string{"example.com/tiny", "example.com/tiny/internal/db"}, unit.PackagePaths())

	t.Run("module without packages", func(t *testing.T) {
		empty := t.TempDir()
		writeFiles(t, empty, map[string]string{"go.mod": gomod("example.com/empty")})

		layout, err := Locate(Locator{ProjectDir: empty})
		require.NoError(t, err)

		_, err = Load(context.Background(), layout, nil)
		assert.ErrorIs(t, err, ErrLoad)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Load(ctx, layout, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
