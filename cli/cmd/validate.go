package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BDNK1/netflow/cli/internal/graph"
	"github.com/BDNK1/netflow/cli/internal/workspace"
	"github.com/BDNK1/netflow/runtime"
	"github.com/spf13/cobra"
)

func newValidateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [script...]",
		Short: "Check scripts without running them",
		Long: `Validate builds every script in the scripts directory, or the named
scripts, and checks their jumps. A jump to an undeclared target is an error.
Jump cycles and targets unreachable from the default target are reported as
warnings, since a branch may end a cycle and any target can be run directly.

Example:
  netflow validate
  netflow validate login scripts/shop.xml
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScripts(cmd, s, args)
		},
	}
}

func validateScripts(cmd *cobra.Command, s *session, refs []string) error {
	w, err := workspace.Open(s.cfg, "", s.logger)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	defer w.Close(cmd.Context())

	var scripts []*runtime.Script
	if len(refs) == 0 {
		for _, name := range w.App.ScriptNames() {
			scripts = append(scripts, w.App.Scripts[name])
		}
	}
	for _, ref := range refs {
		script, err := w.Script(ref)
		if err != nil {
			return &exitError{code: ExitError, err: err}
		}
		scripts = append(scripts, script)
	}

	out := cmd.OutOrStdout()
	if len(scripts) == 0 {
		fmt.Fprintf(out, "no scripts found in %s\n", w.ScriptsDir)
		return nil
	}

	failed := 0
	for _, script := range scripts {
		g, err := graph.BuildGraph(script)
		if err != nil {
			failed++
			var graphErr *graph.GraphError
			if errors.As(err, &graphErr) {
				fmt.Fprintf(out, "error   %s: %s: %s\n", script.Name, graphErr.Type, graphErr.Message)
			} else {
				fmt.Fprintf(out, "error   %s: %v\n", script.Name, err)
			}
			continue
		}

		if cycle := g.FindCycle(); cycle != nil {
			fmt.Fprintf(out, "warning %s: jump cycle %s\n", script.Name, strings.Join(cycle, " -> "))
		}
		if script.DefaultTarget != "" {
			if unreachable := g.Unreachable(script.DefaultTarget); len(unreachable) > 0 {
				fmt.Fprintf(out, "warning %s: not reachable from %s: %s\n", script.Name, script.DefaultTarget, strings.Join(unreachable, ", "))
			}
		}
		fmt.Fprintf(out, "ok      %s (%d targets)\n", script.Name, len(script.Targets))
	}

	if failed > 0 {
		return &exitError{code: ExitError, err: fmt.Errorf("%d of %d scripts failed validation", failed, len(scripts))}
	}
	return nil
}
