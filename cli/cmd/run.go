package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BDNK1/netflow/cli/internal/config"
	"github.com/BDNK1/netflow/cli/internal/workspace"
	"github.com/BDNK1/netflow/runtime"
	"github.com/Jeffail/gabs/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type runOptions struct {
	target     string
	inputs     []string
	inputsFile string
	accessor   string
	jsonOutput bool
}

func newRunCmd(s *session) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script and print its outputs",
		Long: `Run executes a script from its default target, or from --target, and
prints the result and every extracted output.

The script is a name from the scripts directory, a file name inside it, or a
path. Inputs referenced as $(name) in the script come from --inputs-file and
--input flags; a value may refer to the environment as ${VAR} or ${VAR:default}.

Exit status is 0 when the script succeeds, 1 when a step fails and 2 when
the script cannot run.

Example:
  netflow run login --input username=testuser --input password=${SHOP_PASSWORD}
  netflow run scripts/shop.xml --target checkout --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, s, opts, args[0])
		},
	}

	runCmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target to start from (default: the script's default target)")
	runCmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "Input as name=value; repeatable")
	runCmd.Flags().StringVar(&opts.inputsFile, "inputs-file", "", "JSON or YAML file of inputs; --input flags override it")
	runCmd.Flags().StringVar(&opts.accessor, "accessor", "", "Accessor to use: http or browser (default from config)")
	runCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	return runCmd
}

func runScript(cmd *cobra.Command, s *session, opts *runOptions, ref string) error {
	inputs, err := collectInputs(opts)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	w, err := workspace.Open(s.cfg, opts.accessor, s.logger)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	defer w.Close(cmd.Context())

	script, err := w.Script(ref)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	result, err := w.Executor.Run(cmd.Context(), script, runtime.ToStringValueMap(inputs), opts.target)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	if opts.jsonOutput {
		err = writeResultJSON(cmd.OutOrStdout(), result)
	} else {
		err = writeResultText(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}

	if !result.Ok {
		return &exitError{code: ExitFailed, err: fmt.Errorf("script %s failed: %s", script.Name, result.Message)}
	}
	return nil
}

func collectInputs(opts *runOptions) (map[string]any, error) {
	inputs := map[string]any{}
	if opts.inputsFile != "" {
		fromFile, err := readInputsFile(opts.inputsFile)
		if err != nil {
			return nil, err
		}
		inputs, err = config.ResolveValues(fromFile)
		if err != nil {
			return nil, fmt.Errorf("inputs file %s: %w", opts.inputsFile, err)
		}
	}

	fromFlags, err := config.ParseInputs(opts.inputs)
	if err != nil {
		return nil, err
	}
	maps.Copy(inputs, fromFlags)
	return inputs, nil
}

func readInputsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parsed, err := gabs.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", path, err)
		}
		m, ok := parsed.Data().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("inputs file %s must hold an object", path)
		}
		return m, nil
	default:
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", path, err)
		}
		return m, nil
	}
}

func writeResultJSON(w io.Writer, result *runtime.Result) error {
	out := gabs.New()
	if _, err := out.Set(result.Ok, "ok"); err != nil {
		return err
	}
	if result.Message != "" {
		if _, err := out.Set(result.Message, "message"); err != nil {
			return err
		}
	}
	if _, err := out.Object("outputs"); err != nil {
		return err
	}
	for name, value := range result.Outputs {
		if _, err := out.Set(value, "outputs", name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, out.StringIndent("", "  "))
	return err
}

func writeResultText(w io.Writer, result *runtime.Result) error {
	status := "OK"
	if !result.Ok {
		status = "FAILED: " + result.Message
	}
	if _, err := fmt.Fprintln(w, status); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(result.Outputs)) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", name, result.Outputs[name]); err != nil {
			return err
		}
	}
	return nil
}
