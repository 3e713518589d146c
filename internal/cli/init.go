package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
)

type initFlags struct {
	force  bool
	full   bool
	format string
	output string
	schema string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .yamlfix.yml configuration file",
		Long: `Create a .yamlfix.yml configuration file in the current directory.

Examples:
  yamlfix init                          # Minimal .yamlfix.yml
  yamlfix init --schema app.schema.yml  # Point at an existing schema
  yamlfix init --full                   # Document every problem code
  yamlfix init --format json            # Write .yamlfix.json instead`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&flags.full, "full", false, "list every problem code with its defaults")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "file format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path (default .yamlfix.yml or .yamlfix.json)")
	cmd.Flags().StringVarP(&flags.schema, "schema", "s", "", "schema path to record in the file")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.NewInteractive()
	logger.SetOutput(cmd.ErrOrStderr())

	if flags.format != "yaml" && flags.format != "json" {
		return usageErrorf("invalid format %q: must be yaml or json", flags.format)
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = ".yamlfix.yml"
		if flags.format == "json" {
			outputPath = ".yamlfix.json"
		}
	}
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return withExit(ExitIOError, fmt.Errorf("resolve path: %w", err))
	}

	_, statErr := os.Stat(absPath)
	switch {
	case statErr == nil && !flags.force:
		return usageErrorf("file %q already exists; use --force to overwrite", outputPath)
	case statErr == nil:
		logger.Warn("overwriting existing file", logging.FieldPath, outputPath)
	case !errors.Is(statErr, fs.ErrNotExist):
		return withExit(ExitIOError, fmt.Errorf("stat %s: %w", outputPath, statErr))
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{
		Full:   flags.full,
		Format: flags.format,
		Schema: flags.schema,
	})
	if err != nil {
		return withExit(ExitInternalError, fmt.Errorf("generate template: %w", err))
	}

	if err := fsutil.WriteAtomic(commandContext(cmd), absPath, content, fsutil.DefaultFileMode); err != nil {
		return withExit(ExitIOError, fmt.Errorf("write %s: %w", outputPath, err))
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	if flags.schema == "" {
		logger.Info("set \"schema\" to the path of your schema definition")
	}
	logger.Info("run 'yamlfix problems' to see every problem code")
	return nil
}
