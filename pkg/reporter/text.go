package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/yamlfix/internal/ui/pretty"
	"github.com/yaklabco/yamlfix/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No files to check."))
		}
		return 0, nil
	}

	var total int
	for _, file := range result.Files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if file.Error != nil {
			r.writeFileError(file)
			continue
		}

		items := entries(file, r.opts)
		if r.opts.GroupByFile && len(items) > 0 {
			fmt.Fprintln(r.bw, r.styles.FormatFileHeader(displayPath(file.Path, r.opts.WorkingDir), len(items)))
		}
		for _, e := range items {
			fmt.Fprint(r.bw, r.styles.FormatEntry(e))
		}
		if r.opts.GroupByFile && len(items) > 0 {
			fmt.Fprintln(r.bw)
		}
		total += len(items)
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
	}
	return total, nil
}

func (r *TextReporter) writeFileError(file runner.FileOutcome) {
	fmt.Fprintf(r.bw, "%s: %s\n",
		r.styles.FilePath.Render(displayPath(file.Path, r.opts.WorkingDir)),
		r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)),
	)
}
