package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
)

func newRestoreCommand(global *globalFlags) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "restore FILE...",
		Short: "Restore files from their fix backups",
		Long: `Copy the backup written by "yamlfix fix" back over each FILE.

Backups hold the content from before the first fix, so restoring undoes
every fix run since.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logger := logging.NewInteractive()
			logger.SetOutput(cmd.ErrOrStderr())

			workDir, err := os.Getwd()
			if err != nil {
				return withExit(ExitIOError, fmt.Errorf("get working directory: %w", err))
			}
			cfg, err := loadConfig(ctx, workDir, global, &config.Config{})
			if err != nil {
				return err
			}
			mode := fsutil.BackupMode(cfg.Backups.Mode)

			missing := 0
			for _, file := range args {
				path, err := filepath.Abs(file)
				if err != nil {
					return withExit(ExitIOError, fmt.Errorf("resolve %s: %w", file, err))
				}

				restored, err := fsutil.Restore(ctx, path, mode)
				if err != nil {
					return withExit(ExitIOError, err)
				}
				if !restored {
					logger.Warn("no backup found", logging.FieldPath, file)
					missing++
					continue
				}
				logger.Info("restored", logging.FieldPath, file)

				if remove {
					if err := os.Remove(fsutil.BackupPath(path, mode)); err != nil {
						return withExit(ExitIOError, fmt.Errorf("remove backup: %w", err))
					}
				}
			}

			if missing > 0 {
				return withExit(ExitIOError, fmt.Errorf("%d of %d files had no backup", missing, len(args)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "delete each backup after restoring it")

	return cmd
}
