// Package workspace locates and loads the Go modules of an analyzed program.
//
// Each module is loaded with its own go/packages call so that the types of a
// shared dependency are distinct objects in every unit, the same way separately
// compiled units see them.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"golang.org/x/mod/modfile"
)

var (
	// ErrNoLocator is returned when no locator field is set.
	ErrNoLocator = errors.New("no workspace locator configured")

	// ErrNotFound is returned when no go.mod or go.work can be found.
	ErrNotFound = errors.New("no go.mod or go.work found")

	// ErrNoMainModule is returned when the main module is not part of the layout.
	ErrNoMainModule = errors.New("main module not found in workspace")
)

// Locator identifies the program to analyze. At least one field must be set.
type Locator struct {
	// ProjectDir is any directory inside the main module.
	ProjectDir string

	// ProjectType is a value whose type is declared in the main module.
	// The workspace is searched upward from the working directory.
	ProjectType any

	// WorkspaceDir is a directory containing go.work or go.mod (or below one).
	WorkspaceDir string

	// MainModule selects the main module by path when WorkspaceDir names a
	// multi-module workspace. Defaults to the first module in go.work.
	MainModule string
}

// Module is one module of the layout.
type Module struct {
	Path string
	Dir  string
}

// Layout is a located program.
type Layout struct {
	Root     string // directory of go.work, or of the main module
	WorkFile string // empty for single-module programs
	Modules  []Module
	Main     string // module path of the main module
}

// MainModule returns the main module entry.
func (l *Layout) MainModule() (Module, bool) {
	for _, m := range l.Modules {
		if m.Path == l.Main {
			return m, true
		}
	}
	return Module{}, false
}

// Locate resolves a locator to a concrete layout.
func Locate(loc Locator) (*Layout, error) {
	switch {
	case loc.ProjectDir != "":
		return locateProject(loc.ProjectDir)
	case loc.ProjectType != nil:
		return locateType(loc.ProjectType)
	case loc.WorkspaceDir != "":
		return locateWorkspace(loc.WorkspaceDir, loc.MainModule)
	default:
		return nil, ErrNoLocator
	}
}

func locateProject(dir string) (*Layout, error) {
	modPath, err := seekUp(dir, "go.mod")
	if err != nil {
		return nil, err
	}

	main, err := readModule(modPath)
	if err != nil {
		return nil, err
	}

	workPath, err := seekUp(main.Dir, "go.work")
	if err != nil {
		return &Layout{Root: main.Dir, Modules: []Module{main}, Main: main.Path}, nil
	}

	layout, err := readWork(workPath)
	if err != nil {
		return nil, err
	}
	layout.Main = main.Path
	if _, ok := layout.MainModule(); !ok {
		// The module is not used by the enclosing workspace.
		return &Layout{Root: main.Dir, Modules: []Module{main}, Main: main.Path}, nil
	}
	return layout, nil
}

func locateType(v any) (*Layout, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	pkgPath := t.PkgPath()
	if pkgPath == "" {
		return nil, fmt.Errorf("type %s has no package path: %w", t, ErrNotFound)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	layout, err := locateWorkspace(wd, "")
	if err != nil {
		return nil, err
	}

	// The main module is the longest module path prefix of the package.
	layout.Main = ""
	for _, m := range layout.Modules {
		if (pkgPath == m.Path || strings.HasPrefix(pkgPath, m.Path+"/")) && len(m.Path) > len(layout.Main) {
			layout.Main = m.Path
		}
	}
	if layout.Main == "" {
		return nil, fmt.Errorf("package %s: %w", pkgPath, ErrNoMainModule)
	}
	return layout, nil
}

func locateWorkspace(dir, mainModule string) (*Layout, error) {
	if workPath, err := seekUp(dir, "go.work"); err == nil {
		layout, err := readWork(workPath)
		if err != nil {
			return nil, err
		}
		if len(layout.Modules) == 0 {
			return nil, fmt.Errorf("%s uses no modules: %w", workPath, ErrNoMainModule)
		}

		layout.Main = mainModule
		if layout.Main == "" {
			layout.Main = layout.Modules[0].Path
		}
		if _, ok := layout.MainModule(); !ok {
			return nil, fmt.Errorf("%s: %w", layout.Main, ErrNoMainModule)
		}
		return layout, nil
	}

	return locateProject(dir)
}

// seekUp walks from dir to the filesystem root looking for name. dir may
// also name the file itself.
func seekUp(dir, name string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		if filepath.Base(abs) == name {
			return abs, nil
		}
		abs = filepath.Dir(abs)
	}

	for {
		candidate := filepath.Join(abs, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%s above %s: %w", name, dir, ErrNotFound)
		}
		abs = parent
	}
}

func readModule(goMod string) (Module, error) {
	data, err := os.ReadFile(goMod)
	if err != nil {
		return Module{}, err
	}

	path := modfile.ModulePath(data)
	if path == "" {
		return Module{}, fmt.Errorf("%s declares no module path: %w", goMod, ErrNotFound)
	}
	return Module{Path: path, Dir: filepath.Dir(goMod)}, nil
}

func readWork(goWork string) (*Layout, error) {
	data, err := os.ReadFile(goWork)
	if err != nil {
		return nil, err
	}

	wf, err := modfile.ParseWork(goWork, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", goWork, err)
	}

	root := filepath.Dir(goWork)
	layout := &Layout{Root: root, WorkFile: goWork}
	for _, use := range wf.Use {
		dir := use.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}

		mod, err := readModule(filepath.Join(dir, "go.mod"))
		if err != nil {
			return nil, err
		}
		layout.Modules = append(layout.Modules, mod)
	}

	return layout, nil
}
