// Package cli provides the Cobra command structure for yamlfix.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	debug      bool
	logLevel   string
	configPath string
	color      string
}

// NewRootCommand creates the root yamlfix command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	global := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "yamlfix",
		Short: "Check YAML files against a schema and fix what it can",
		Long: `yamlfix reconciles YAML files with a schema of beans, maps, lists and
atomic types. It reports unknown, deprecated, missing and mistyped
properties and applies quick fixes that rename, create or delete
properties while preserving the layout and comments of the file.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := global.logLevel
			if global.debug {
				level = "debug"
			}
			if level != "" {
				logging.SetLevel(level)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logging.WithLogger(ctx, logging.Default()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&global.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "",
		"log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&global.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&global.color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExit(ExitInvalidUsage, err)
	})

	rootCmd.AddCommand(newCheckCommand(global, false))
	rootCmd.AddCommand(newCheckCommand(global, true))
	rootCmd.AddCommand(newPathCommand(global))
	rootCmd.AddCommand(newProblemsCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRestoreCommand(global))
	rootCmd.AddCommand(newVersionCommand(info))

	NewHelpFormatter(&global.color).ApplyToCommand(rootCmd)

	return rootCmd
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExit(ExitInvalidUsage, validate(cmd, args))
	}
}
