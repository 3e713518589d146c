package reporter

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/yaklabco/yamlfix/internal/ui/pretty"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/runner"
)

const (
	tableWidth        = 80
	codeColWidth      = 28
	fileColWidth      = 50
	numColWidth       = 7
	warnColWidth      = 9
	fixableColWidth   = 8
	maxFilePathLength = 48
)

// tally counts the diagnostics of one problem code or one file.
type tally struct {
	Name     string
	Issues   int
	Errors   int
	Warnings int
	Fixable  int
}

func (t *tally) add(sev config.Severity, fixable bool) {
	t.Issues++
	switch sev {
	case config.SeverityError:
		t.Errors++
	case config.SeverityWarning:
		t.Warnings++
	}
	if fixable {
		t.Fixable++
	}
}

// tallies aggregates the remaining diagnostics by code and by file, both
// sorted by descending count.
func tallies(result *runner.Result, workingDir string) (byCode, byFile []tally) {
	codes := make(map[string]*tally)
	for _, file := range result.Files {
		if file.Result == nil || file.Result.FileResult == nil || len(file.Result.Diagnostics) == 0 {
			continue
		}
		ft := tally{Name: displayPath(file.Path, workingDir)}
		for _, d := range file.Result.Diagnostics {
			ct, ok := codes[d.Code]
			if !ok {
				ct = &tally{Name: d.Code}
				codes[d.Code] = ct
			}
			ct.add(d.Severity, d.HasFix())
			ft.add(d.Severity, d.HasFix())
		}
		byFile = append(byFile, ft)
	}
	for _, ct := range codes {
		byCode = append(byCode, *ct)
	}

	order := func(a, b tally) int {
		if c := cmp.Compare(b.Issues, a.Issues); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	}
	slices.SortFunc(byCode, order)
	slices.SortFunc(byFile, order)
	return byCode, byFile
}

// SummaryReporter prints per-code and per-file tables followed by totals.
type SummaryReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewSummaryReporter creates a new summary reporter.
func NewSummaryReporter(opts Options) *SummaryReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &SummaryReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *SummaryReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || result.Stats.DiagnosticsTotal == 0 {
		fmt.Fprintln(r.bw, r.styles.Success.Render("No issues found"))
		return 0, nil
	}

	byCode, byFile := tallies(result, r.opts.WorkingDir)
	r.renderCodeTable(byCode)
	fmt.Fprintln(r.bw)
	r.renderFileTable(byFile)
	fmt.Fprint(r.bw, r.styles.FormatSummary(result.Stats))
	return result.Stats.DiagnosticsTotal, nil
}

func (r *SummaryReporter) rule() {
	fmt.Fprintln(r.bw, r.styles.TableSeparator.Render(strings.Repeat("─", tableWidth)))
}

func (r *SummaryReporter) styledName(t tally, width int) string {
	padded := padRight(t.Name, width)
	switch {
	case t.Errors > 0:
		return r.styles.TableErrorRow.Render(padded)
	case t.Warnings > 0:
		return r.styles.TableWarnRow.Render(padded)
	default:
		return padded
	}
}

func (r *SummaryReporter) renderCodeTable(rows []tally) {
	fmt.Fprintln(r.bw, r.styles.Bold.Render("Problems Summary"))
	r.rule()
	fmt.Fprintf(r.bw, "%s %s %s %s %s\n",
		r.styles.TableHeader.Render(padRight("Code", codeColWidth)),
		r.styles.TableHeader.Render(padLeft("Count", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Errors", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Warnings", warnColWidth)),
		r.styles.TableHeader.Render(padLeft("Fixable", fixableColWidth)),
	)
	r.rule()
	for _, row := range rows {
		fmt.Fprintf(r.bw, "%s %s %s %s %s\n",
			r.styledName(row, codeColWidth),
			padLeft(strconv.Itoa(row.Issues), numColWidth),
			padLeft(strconv.Itoa(row.Errors), numColWidth),
			padLeft(strconv.Itoa(row.Warnings), warnColWidth),
			r.styles.TableFixable.Render(padLeft(strconv.Itoa(row.Fixable), fixableColWidth)),
		)
	}
}

func (r *SummaryReporter) renderFileTable(rows []tally) {
	fmt.Fprintln(r.bw, r.styles.Bold.Render("Files Summary"))
	r.rule()
	fmt.Fprintf(r.bw, "%s %s %s %s\n",
		r.styles.TableHeader.Render(padRight("File", fileColWidth)),
		r.styles.TableHeader.Render(padLeft("Count", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Errors", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Warnings", warnColWidth)),
	)
	r.rule()
	for _, row := range rows {
		if len(row.Name) > maxFilePathLength {
			row.Name = "…" + row.Name[len(row.Name)-(maxFilePathLength-1):]
		}
		fmt.Fprintf(r.bw, "%s %s %s %s\n",
			r.styledName(row, fileColWidth),
			padLeft(strconv.Itoa(row.Issues), numColWidth),
			padLeft(strconv.Itoa(row.Errors), numColWidth),
			padLeft(strconv.Itoa(row.Warnings), warnColWidth),
		)
	}
}

// padRight pads before styling so ANSI codes do not count toward width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
