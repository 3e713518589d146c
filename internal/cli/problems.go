package cli

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
)

const formatJSON = "json"

// problemInfo is one problem type in JSON output.
type problemInfo struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Enabled     bool   `json:"enabled"`
	Fixable     bool   `json:"fixable"`
	AutoFix     bool   `json:"autoFix"`
}

func newProblemsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List problem codes",
		Long: `List every problem code with its default severity and whether its
diagnostics carry a quick fix. Codes are the keys of the "problems" section
of .yamlfix.yml.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := reconcile.DefaultRegistry.Types()

			switch format {
			case formatJSON:
				return outputProblemsJSON(cmd.OutOrStdout(), types)
			case "", "text":
			default:
				return usageErrorf("invalid format %q: must be text or json", format)
			}

			logger := logging.NewInteractive()
			logger.SetOutput(cmd.OutOrStdout())
			for _, pt := range types {
				fixable := "-"
				switch {
				case pt.DefaultAutoFix:
					fixable = "auto"
				case pt.CanFix:
					fixable = "yes"
				}
				logger.Info(pt.Code,
					logging.FieldSeverity, pt.DefaultSeverity,
					logging.FieldFixable, fixable,
					logging.FieldDescription, pt.Description,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")

	return cmd
}

func outputProblemsJSON(w io.Writer, types []reconcile.ProblemType) error {
	infos := make([]problemInfo, 0, len(types))
	for _, pt := range types {
		infos = append(infos, problemInfo{
			Code:        pt.Code,
			Description: pt.Description,
			Severity:    string(pt.DefaultSeverity),
			Enabled:     pt.DefaultEnabled,
			Fixable:     pt.CanFix,
			AutoFix:     pt.DefaultAutoFix,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(infos); err != nil {
		return withExit(ExitIOError, fmt.Errorf("encode problems: %w", err))
	}
	return nil
}
