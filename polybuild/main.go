package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oclaw/polybuild/common"
	"github.com/oclaw/polybuild/config"
	"github.com/oclaw/polybuild/core"
	"github.com/oclaw/polybuild/types"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// builderFactory is swapped in tests to avoid touching the real toolchain.
type builderFactory func(cfg *config.BuildConfig, out, errOut io.Writer) (core.Builder, error)

func newBuilder(cfg *config.BuildConfig, out, errOut io.Writer) (core.Builder, error) {
	return core.NewBuilder(cfg, &common.DefaultClock{}, core.UUIDInvocationGen, out, core.WithErrOutput(errOut))
}

func loadConfig(flags *rootFlags) (*config.BuildConfig, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	return cfg, nil
}

// requestFromArgs takes the last two positional args as source path and target.
func requestFromArgs(args []string) *types.InvocationRequest {
	return &types.InvocationRequest{
		SourcePath: args[len(args)-2],
		Target:     args[len(args)-1],
	}
}

func buildInitConfigCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "write the default configuration file (to --config or the user config directory)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultBuildConfig()
			loc := flags.configPath
			var err error
			if loc == "" {
				loc, err = config.SaveConfigToDefaultLoc(cfg)
			} else {
				err = cfg.Save(loc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", loc)
			return nil
		},
	}
}

func setupRootCommand(newBuilder builderFactory) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "polybuild [flags] <source-path> <target>",
		Short:         "Validate a source file and hand it to the toolchain for a release build of the given target",
		Long:          `Validate a source file and hand it to the toolchain for a release build of the given target.

The last two positional arguments are the source path and the target. The
target reaches the toolchain as a single argument, it is never run through a
shell.

Notes:
  - a source path literally named "init-config" or "help" selects that
    subcommand, use "./init-config" to build such a file
  - a target starting with "-" is parsed as a flag, put it after "--":
      polybuild main.rs -- -weird-target`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			logger := common.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			ctx := common.WithLogger(cmd.Context(), logger)

			builder, err := newBuilder(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			_, err = builder.Build(ctx, requestFromArgs(args))
			return err
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the yaml config (default: user config dir)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(buildInitConfigCommand(flags))
	return root
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := setupRootCommand(newBuilder)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}

	// the build output was already reported, only the status is left
	var exitErr *core.ExitError
	if errors.As(err, &exitErr) {
		cancel()
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "failed to run polybuild: %v\n", err)
	cancel()
	os.Exit(1)
}
