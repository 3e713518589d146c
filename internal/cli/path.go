package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/engine"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
	"github.com/yaklabco/yamlfix/pkg/lsp"
	"github.com/yaklabco/yamlfix/pkg/pathedit"
	"github.com/yaklabco/yamlfix/pkg/quickfix"
	"github.com/yaklabco/yamlfix/pkg/structure"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

type pathFlags struct {
	document  int
	write     bool
	lsp       bool
	noBackups bool
}

// lspEdit is the --lsp output of a path command.
type lspEdit struct {
	Edit         protocol.WorkspaceEdit       `json:"edit"`
	ShowDocument *protocol.ShowDocumentParams `json:"showDocument,omitempty"`
}

// pathOp records one path edit against the editor.
type pathOp func(editor *pathedit.Editor, docNode *structure.Node) error

func newPathCommand(global *globalFlags) *cobra.Command {
	flags := &pathFlags{}

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Edit property paths in a YAML file",
		Long: `Rename, create or delete property paths while keeping the rest of the
file untouched.

Paths use dots between keys and brackets for list indexes or keys that
contain dots, for example server.ports[0] or labels["app.kubernetes.io/name"].

By default the edit is printed as JSON. Use --write to apply it.`,
	}

	cmd.PersistentFlags().IntVarP(&flags.document, "document", "d", 0, "zero-based index of the YAML document to edit")
	cmd.PersistentFlags().BoolVarP(&flags.write, "write", "w", false, "apply the edit to the file")
	cmd.PersistentFlags().BoolVar(&flags.lsp, "lsp", false, "print the edit as an LSP workspace edit")
	cmd.PersistentFlags().BoolVar(&flags.noBackups, "no-backups", false, "disable backup creation with --write")

	cmd.AddCommand(&cobra.Command{
		Use:   "rename FILE OLD NEW",
		Short: "Move the value at OLD to NEW",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := decodePaths(args[1], args[2])
			if err != nil {
				return err
			}
			return runPathEdit(cmd, global, flags, args[0], func(editor *pathedit.Editor, docNode *structure.Node) error {
				return editor.RenamePath(docNode, paths[0], paths[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create FILE PATH [VALUE]",
		Short: "Create PATH, optionally with a scalar VALUE",
		Args:  usageArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := decodePaths(args[1])
			if err != nil {
				return err
			}
			value := ""
			if len(args) == 3 && args[2] != "" {
				value = " " + args[2]
			}
			return runPathEdit(cmd, global, flags, args[0], func(editor *pathedit.Editor, docNode *structure.Node) error {
				return editor.CreatePath(docNode, target[0], value)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete FILE PATH",
		Short: "Delete PATH and any parents it leaves empty",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := decodePaths(args[1])
			if err != nil {
				return err
			}
			return runPathEdit(cmd, global, flags, args[0], func(editor *pathedit.Editor, docNode *structure.Node) error {
				node, found := yamlpath.Traverse(target[0], docNode)
				if !found {
					return fmt.Errorf("%w: %s does not exist", pathedit.ErrNoEdit, target[0])
				}
				return editor.DeletePathSpine(node, target[0], 0)
			})
		},
	})

	return cmd
}

func decodePaths(texts ...string) ([]yamlpath.Path, error) {
	paths := make([]yamlpath.Path, 0, len(texts))
	for _, text := range texts {
		p, err := yamlpath.Decode(text)
		if err != nil {
			return nil, withExit(ExitInvalidUsage, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func runPathEdit(cmd *cobra.Command, global *globalFlags, flags *pathFlags, file string, op pathOp) error {
	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)

	workDir, err := os.Getwd()
	if err != nil {
		return withExit(ExitIOError, fmt.Errorf("get working directory: %w", err))
	}
	cfg, err := loadConfig(ctx, workDir, global, &config.Config{NoBackups: flags.noBackups})
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		return withExit(ExitIOError, fmt.Errorf("resolve %s: %w", file, err))
	}
	snap, err := fsutil.Read(ctx, absPath)
	if err != nil {
		return withExit(ExitIOError, err)
	}

	doc := document.New(absPath, snap.Content)
	q, err := computePathEdit(doc, flags.document, cfg.EffectiveIndentWidth(), op)
	if err != nil {
		return err
	}

	if flags.write {
		if err := applyPathEdit(ctx, snap, q, cfg); err != nil {
			return err
		}
		logger.Info("path edit applied", logging.FieldPath, file)
		return nil
	}

	return writePathEdit(cmd.OutOrStdout(), doc, q, flags.lsp)
}

// computePathEdit runs op against document index of doc.
func computePathEdit(doc *document.Document, index, indentWidth int, op pathOp) (*quickfix.QuickfixEdit, error) {
	tree := structure.Parse(doc)
	docNode, ok := tree.Doc(index)
	if !ok {
		return nil, usageErrorf("document %d does not exist (file has %d)", index, len(tree.Documents()))
	}

	builder := fix.NewEditBuilder(doc.Bytes())
	editor := pathedit.New(tree, builder, pathedit.Options{IndentWidth: indentWidth})
	if err := op(editor, docNode); err != nil {
		return nil, withExit(ExitIssuesErrors, err)
	}

	q, err := quickfix.FromBuilder(doc, builder)
	if errors.Is(err, quickfix.ErrNoEdit) {
		return nil, withExit(ExitIssuesErrors, fmt.Errorf("%w: nothing to change", err))
	}
	if err != nil {
		return nil, withExit(ExitInternalError, err)
	}
	return q, nil
}

func applyPathEdit(ctx context.Context, snap *fsutil.Snapshot, q *quickfix.QuickfixEdit, cfg *config.Config) error {
	logger := logging.FromContext(ctx)

	edits, err := fix.PrepareEdits([]fix.TextEdit{q.Replacement.Edit()}, len(snap.Content))
	if err != nil {
		return withExit(ExitInternalError, err)
	}

	backup, err := snap.Backup(ctx, engine.BackupConfigFromConfig(cfg))
	if err != nil {
		return withExit(ExitIOError, err)
	}
	if backup != "" {
		logger.Debug("backup created", logging.FieldBackup, backup)
	}

	if err := snap.Commit(ctx, fix.ApplyEdits(snap.Content, edits), false); err != nil {
		return withExit(ExitIOError, err)
	}
	return nil
}

func writePathEdit(w io.Writer, doc *document.Document, q *quickfix.QuickfixEdit, asLSP bool) error {
	var payload any = q
	if asLSP {
		payload = lspEdit{
			Edit:         lsp.WorkspaceEdit(doc, q),
			ShowDocument: lsp.ShowDocument(doc, q),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return withExit(ExitIOError, fmt.Errorf("encode edit: %w", err))
	}
	return nil
}
