package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/configloader"
	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/engine"
	"github.com/yaklabco/yamlfix/pkg/reporter"
	"github.com/yaklabco/yamlfix/pkg/runner"
	"github.com/yaklabco/yamlfix/pkg/schema"
)

type checkFlags struct {
	format         string
	include        []string
	ignore         []string
	fixCodes       []string
	detectLanguage bool
	includeVendor  bool
	noContext      bool
	compact        bool
}

const checkLongDescription = `Check YAML files against a schema.

By default, checks all .yml and .yaml files below the current directory.
The schema comes from --schema or the "schema" key of .yamlfix.yml.

Examples:
  yamlfix check --schema app.schema.yml          # Check the current directory
  yamlfix check config/ --schema app.schema.yml  # Check one directory
  yamlfix check --format json                    # Output JSON for CI
  yamlfix check --strict                         # Fail on warnings too`

const fixLongDescription = `Check YAML files and apply the available quick fixes.

Fixes run in passes until no fixable problem remains. Overlapping fixes
wait for the next pass. Each rewritten file is backed up first unless
--no-backups is set.

Examples:
  yamlfix fix --schema app.schema.yml            # Fix in place
  yamlfix fix --dry-run                          # Show a diff, write nothing
  yamlfix fix --fix-codes UNKNOWN_PROPERTY       # Fix only unknown properties`

func newCheckCommand(global *globalFlags, fix bool) *cobra.Command {
	var cfg config.Config
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check YAML files against a schema",
		Long:  checkLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Fix = fix
			return runCheck(cmd, args, global, &cfg, flags)
		},
	}
	if fix {
		cmd.Use = "fix [paths...]"
		cmd.Short = "Apply quick fixes to YAML files"
		cmd.Long = fixLongDescription
	}

	cmd.Flags().StringVarP(&cfg.Schema, "schema", "s", "", "schema definition file")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: text, table, json, diff, summary")
	cmd.Flags().IntVarP(&cfg.Jobs, "jobs", "j", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "only process files matching these globs")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().BoolVar(&flags.detectLanguage, "detect", false, "also check files recognized as YAML by name")
	cmd.Flags().BoolVar(&flags.includeVendor, "include-vendor", false, "descend into vendored directories")
	cmd.Flags().BoolVar(&cfg.Strict, "strict", false, "treat warnings as errors for exit code")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact JSON output")

	if fix {
		cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "show fixes as a diff without writing")
		cmd.Flags().BoolVar(&cfg.NoBackups, "no-backups", false, "disable backup creation")
		cmd.Flags().StringSliceVar(&flags.fixCodes, "fix-codes", nil, "limit fixing to these problem codes")
		cmd.Flags().IntVar(&cfg.MaxFixPasses, "max-passes", 0, "upper bound on fix passes per file")
	}

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, global *globalFlags, cliCfg *config.Config, flags *checkFlags) error {
	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)

	cliCfg.Format = config.OutputFormat(flags.format)
	cliCfg.Ignore = flags.ignore
	cliCfg.FixCodes = flags.fixCodes

	workDir, err := os.Getwd()
	if err != nil {
		return withExit(ExitIOError, fmt.Errorf("get working directory: %w", err))
	}

	cfg, err := loadConfig(ctx, workDir, global, cliCfg)
	if err != nil {
		return err
	}

	// A dry run without an explicit format shows the pending changes.
	if cfg.DryRun && !cmd.Flags().Changed("format") && cfg.Format == config.FormatText {
		cfg.Format = config.FormatDiff
	}
	format, err := reporter.ParseFormat(string(cfg.Format))
	if err != nil {
		return withExit(ExitInvalidUsage, err)
	}

	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}

	run := runner.New(engine.NewPipeline(engine.New(sch)))
	runOpts := runner.Options{
		Paths:          args,
		WorkingDir:     workDir,
		Extensions:     cfg.Extensions,
		DetectLanguage: flags.detectLanguage,
		IncludeGlobs:   flags.include,
		ExcludeGlobs:   cfg.Ignore,
		IncludeVendor:  flags.includeVendor,
		Jobs:           cfg.Jobs,
		Config:         cfg,
	}

	logger.Debug("starting run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
		logging.FieldSchema, cfg.Schema,
		logging.FieldFix, cfg.Fix,
		logging.FieldDryRun, cfg.DryRun,
		logging.FieldJobs, runOpts.Jobs,
	)

	result, err := run.Run(ctx, runOpts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return withExit(ExitInternalError, err)
		}
		return withExit(ExitIOError, fmt.Errorf("run: %w", err))
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      format,
		Color:       global.color,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: true,
		Compact:     flags.compact,
		WorkingDir:  workDir,
	})
	if err != nil {
		return withExit(ExitInvalidUsage, fmt.Errorf("create reporter: %w", err))
	}
	if _, err := rep.Report(ctx, result); err != nil {
		return withExit(ExitIOError, fmt.Errorf("report results: %w", err))
	}

	logger.Debug("run finished",
		logging.FieldFilesProcessed, result.Stats.FilesProcessed,
		logging.FieldFilesWithIssues, result.Stats.FilesWithIssues,
		logging.FieldFilesModified, result.Stats.FilesModified,
		logging.FieldDiagnostics, result.Stats.DiagnosticsTotal,
	)

	if code := ExitCodeFromResult(result, cfg.Strict); code != ExitSuccess {
		return withExit(code, ErrIssuesFound)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig resolves the configuration and logs its warnings.
func loadConfig(ctx context.Context, workDir string, global *globalFlags, cliCfg *config.Config) (*config.Config, error) {
	logger := logging.FromContext(ctx)

	loaded, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: global.configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, withExit(ExitConfigError, fmt.Errorf("load configuration: %w", err))
	}
	for _, warning := range loaded.Warnings {
		logger.Warn(warning)
	}
	if len(loaded.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldPaths, loaded.LoadedFrom)
	}
	return loaded.Config, nil
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return nil, usageErrorf("no schema: pass --schema or set \"schema\" in .yamlfix.yml")
	}
	sch, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, withExit(ExitConfigError, err)
	}
	return sch, nil
}
