package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/anvil/internal/app"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/registry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	configFile string
	defines    []string
	watch      bool
	dump       bool
}

// NewRootCommand builds the anvil command tree. Build output goes to outW,
// logs and diagnostics to errW. modules replaces the core module set when
// given.
func NewRootCommand(outW, errW io.Writer, modules ...registry.Module) *cobra.Command {
	v := viper.New()
	opts := &options{}

	root := &cobra.Command{
		Use:   "anvil",
		Short: "Declarative HCL build runner",
		Long: `anvil runs the targets of a declarative build file.

A build file holds one project block with targets; each target lists the
tasks to run. Without a path, the single *.anvil.hcl file in the current
directory is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Path to an anvil.yaml config file.")
	pf.StringP("buildfile", "f", ".", "Build file, or a directory holding exactly one *.anvil.hcl file.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("output-level", "Info", "Lowest build output level shown. Options: Debug, Verbose, Info, Warning, Error.")
	pf.Bool("no-color", false, "Disable coloured build output.")
	pf.String("settings", "", "Framework settings file (.yaml or .toml).")
	pf.String("framework", "", "Target framework to select from the settings file.")
	pf.StringArrayVarP(&opts.defines, "define", "D", nil, "Set a read-only property, as name=value. Repeatable.")

	for key, flag := range map[string]string{
		"buildfile":    "buildfile",
		"log_format":   "log-format",
		"log_level":    "log-level",
		"output_level": "output-level",
		"no_color":     "no-color",
		"settings":     "settings",
		"framework":    "framework",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	newApp := func(cmd *cobra.Command, targets []string) (*app.App, *app.Config, error) {
		cfg, err := app.LoadConfig(v, opts.configFile)
		if err != nil {
			return nil, nil, &ExitError{Code: 2, Message: err.Error()}
		}
		defines, err := parseDefines(opts.defines)
		if err != nil {
			return nil, nil, &ExitError{Code: 2, Message: err.Error()}
		}
		if cfg.Properties == nil {
			cfg.Properties = map[string]string{}
		}
		for k, val := range defines {
			cfg.Properties[k] = val
		}
		if len(targets) > 0 {
			cfg.Targets = targets
		}
		slog.Debug("CLI configuration resolved.", "config", cfg)

		a, err := app.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, modules...)
		if err != nil {
			return nil, nil, err
		}
		return a, cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run targets of the build file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := newApp(cmd, args)
			if err != nil {
				return err
			}
			report := func(err error) { _ = diag.Render(cmd.ErrOrStderr(), a.Files(), err, !cfg.NoColor) }

			if opts.watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return a.Watch(ctx, report)
			}
			if err := a.Run(cmd.Context()); err != nil {
				report(err)
				return &ExitError{Code: 1, Message: "build failed"}
			}
			return nil
		},
	}
	runCmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Run again whenever the build file changes.")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the build file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			var dump io.Writer
			if opts.dump {
				dump = cmd.OutOrStdout()
			}
			if err := a.Validate(cmd.Context(), dump); err != nil {
				_ = diag.Render(cmd.ErrOrStderr(), a.Files(), err, !cfg.NoColor)
				return &ExitError{Code: 1, Message: "validation failed"}
			}
			return nil
		},
	}
	validateCmd.Flags().BoolVar(&opts.dump, "dump", false, "Print the bound project.")

	root.AddCommand(runCmd, validateCmd)
	return root
}

// Execute runs the command line in args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, modules ...registry.Module) error {
	root := NewRootCommand(outW, errW, modules...)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return nil
}

func parseDefines(defines []string) (map[string]string, error) {
	out := make(map[string]string, len(defines))
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid property definition %q: expected name=value", d)
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}
