package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// App holds every script found in a directory, keyed by file name without extension.
type App struct {
	Builder *Builder
	Scripts map[string]*Script
	loaders []ScriptLoader
}

func NewApp(scriptsDir string, builder *Builder, loaders ...ScriptLoader) (*App, error) {
	if builder == nil {
		builder = NewBuilder(nil)
	}
	app := App{
		Builder: builder,
		Scripts: make(map[string]*Script),
		loaders: loaders,
	}

	for _, loader := range loaders {
		for _, pattern := range loader.Extensions() {
			files, err := filepath.Glob(filepath.Join(scriptsDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("error reading directory: %w", err)
			}
			for _, file := range files {
				script, err := app.load(loader, file)
				if err != nil {
					return nil, err
				}
				if _, exists := app.Scripts[script.Name]; exists {
					return nil, fmt.Errorf("script %q is defined by more than one file in %s", script.Name, scriptsDir)
				}
				app.RegisterScript(script)
			}
		}
	}

	return &app, nil
}

func (a *App) RegisterScript(script *Script) {
	a.Scripts[script.Name] = script
}

// ScriptNames returns the registered names, sorted.
func (a *App) ScriptNames() []string {
	names := make([]string, 0, len(a.Scripts))
	for name := range a.Scripts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadScript picks the loader whose extension pattern matches path.
func (a *App) LoadScript(path string) (*Script, error) {
	return LoadScript(path, a.Builder, a.loaders...)
}

func (a *App) load(loader ScriptLoader, file string) (*Script, error) {
	node, err := loader.Load(file)
	if err != nil {
		return nil, fmt.Errorf("error loading script %s: %w", file, err)
	}
	script, err := a.Builder.Build(ScriptName(file), node)
	if err != nil {
		return nil, fmt.Errorf("error building script %s: %w", file, err)
	}
	return script, nil
}

// LoadScript loads and builds a single script file.
func LoadScript(path string, builder *Builder, loaders ...ScriptLoader) (*Script, error) {
	if builder == nil {
		builder = NewBuilder(nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	base := filepath.Base(path)
	for _, loader := range loaders {
		for _, pattern := range loader.Extensions() {
			if ok, _ := filepath.Match(pattern, base); !ok {
				continue
			}
			app := App{Builder: builder}
			return app.load(loader, path)
		}
	}
	return nil, fmt.Errorf("no loader registered for %s", base)
}

// ScriptName derives a script name from its file path.
func ScriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
