package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BDNK1/netflow/cli/internal/config"
	"github.com/BDNK1/netflow/cli/internal/security"
	"github.com/BDNK1/netflow/plugins/browser"
	httpaccessor "github.com/BDNK1/netflow/plugins/http"
	"github.com/BDNK1/netflow/runtime"
	"github.com/BDNK1/netflow/runtime/engine/json"
	"github.com/BDNK1/netflow/runtime/engine/xml"
	"github.com/BDNK1/netflow/runtime/engine/yaml"
	"github.com/google/uuid"
)

// Workspace is a loaded project: its scripts, the accessor they run against
// and the executor that runs them.
type Workspace struct {
	ID         string
	Config     *config.Config
	ScriptsDir string
	App        *runtime.App
	Accessor   runtime.WebAccessor
	Executor   *runtime.Executor

	l *slog.Logger
}

// Loaders returns a loader for every supported script format.
func Loaders() []runtime.ScriptLoader {
	return []runtime.ScriptLoader{
		yaml.NewScriptLoader(),
		json.NewScriptLoader(),
		xml.NewScriptLoader(),
	}
}

// NewAccessor builds the named accessor from its config section.
func NewAccessor(cfg *config.Config, name string, l *slog.Logger) (runtime.WebAccessor, error) {
	switch name {
	case "", "http":
		raw, err := config.ResolveValues(cfg.HTTP)
		if err != nil {
			return nil, fmt.Errorf("http config: %w", err)
		}
		return httpaccessor.NewFromValues(httpaccessor.Config{}, raw, l)
	case "browser":
		raw, err := config.ResolveValues(cfg.Browser)
		if err != nil {
			return nil, fmt.Errorf("browser config: %w", err)
		}
		return browser.NewFromValues(browser.Config{}, raw, l)
	default:
		return nil, fmt.Errorf("unknown accessor %q, expected http or browser", name)
	}
}

// Open loads every script in the configured scripts directory and wires the
// accessor. accessor overrides the configured one when not empty.
func Open(cfg *config.Config, accessor string, l *slog.Logger) (*Workspace, error) {
	if l == nil {
		l = slog.Default()
	}
	if accessor == "" {
		accessor = cfg.Accessor
	}

	scriptsDir := cfg.ScriptsDirPath()
	if !filepath.IsAbs(cfg.ScriptsDir) {
		// Security: Validate scriptsDir is within project boundaries
		if err := security.ValidatePathWithinBoundary(cfg.ProjectDir, scriptsDir); err != nil {
			return nil, fmt.Errorf("invalid scripts directory path: %w", err)
		}
	}

	app, err := runtime.NewApp(scriptsDir, runtime.NewBuilder(nil), Loaders()...)
	if err != nil {
		return nil, err
	}

	web, err := NewAccessor(cfg, accessor, l)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		ID:         uuid.New().String()[:8],
		Config:     cfg,
		ScriptsDir: scriptsDir,
		App:        app,
		Accessor:   web,
		Executor:   runtime.NewExecutor(l, web, runtime.WithMaxJumpDepth(cfg.MaxJumpDepth)),
		l:          l,
	}
	l.Debug("Workspace opened",
		"workspace", w.ID,
		"scripts_dir", scriptsDir,
		"scripts", len(app.Scripts),
		"accessor", accessor)
	return w, nil
}

// Script finds a script by name, by path, or by file name inside the
// scripts directory, in that order. Absolute paths are loaded as given; a
// relative path must stay inside the project or the scripts directory.
func (w *Workspace) Script(ref string) (*runtime.Script, error) {
	if script, ok := w.App.Scripts[ref]; ok {
		return script, nil
	}

	if filepath.IsAbs(ref) {
		return w.App.LoadScript(ref)
	}

	if strings.ContainsRune(ref, '/') || strings.ContainsRune(ref, filepath.Separator) {
		if _, err := os.Stat(ref); err == nil {
			if !w.contains(ref) {
				return nil, fmt.Errorf("invalid script path: %q is outside %s", ref, w.Config.ProjectDir)
			}
			return w.App.LoadScript(ref)
		}
	}

	path, err := security.JoinWithinBoundary(w.ScriptsDir, ref)
	if err != nil {
		return nil, fmt.Errorf("invalid script path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("script %q not found in %s", ref, w.ScriptsDir)
	}
	return w.App.LoadScript(path)
}

func (w *Workspace) contains(path string) bool {
	return security.ValidatePathWithinBoundary(w.Config.ProjectDir, path) == nil ||
		security.ValidatePathWithinBoundary(w.ScriptsDir, path) == nil
}

// Close releases the accessor's resources, if it holds any.
func (w *Workspace) Close(ctx context.Context) error {
	lc, ok := w.Accessor.(runtime.Lifecycle)
	if !ok {
		return nil
	}
	if err := lc.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down accessor: %w", err)
	}
	return nil
}
