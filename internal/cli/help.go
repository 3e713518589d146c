package cli

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yaklabco/yamlfix/internal/ui/pretty"
)

// HelpStyles are the styles used in command help.
type HelpStyles struct {
	Command    lipgloss.Style
	Heading    lipgloss.Style
	Subcommand lipgloss.Style
	Flag       lipgloss.Style
	Argument   lipgloss.Style
	Dim        lipgloss.Style
}

// NewHelpStyles derives help styles from the diagnostic palette so help and
// reports share colors.
func NewHelpStyles(colorEnabled bool) *HelpStyles {
	s := pretty.NewStyles(colorEnabled)
	return &HelpStyles{
		Command:    s.Bold,
		Heading:    s.SummaryTitle,
		Subcommand: s.Code,
		Flag:       s.Info,
		Argument:   s.Hint,
		Dim:        s.Dim,
	}
}

// HelpFormatter renders styled help for a command tree. The color mode is
// read when help is rendered, after flags have been parsed.
type HelpFormatter struct {
	colorMode *string
}

// NewHelpFormatter creates a help formatter reading the color mode from
// colorMode.
func NewHelpFormatter(colorMode *string) *HelpFormatter {
	return &HelpFormatter{colorMode: colorMode}
}

func (h *HelpFormatter) styles(w io.Writer) *HelpStyles {
	mode := "auto"
	if h.colorMode != nil && *h.colorMode != "" {
		mode = *h.colorMode
	}
	return NewHelpStyles(pretty.IsColorEnabled(mode, w))
}

func (h *HelpFormatter) funcs(styles *HelpStyles) template.FuncMap {
	return template.FuncMap{
		"command":    styles.Command.Render,
		"heading":    styles.Heading.Render,
		"subcommand": styles.Subcommand.Render,
		"dim":        styles.Dim.Render,
		"useLine":    func(line string) string { return styleUseLine(styles, line) },
		"flags":      func(usages string) string { return styleFlagUsages(styles, usages) },
		"rpad":       rpad,
		"trim":       trimTrailingWhitespaces,
	}
}

const usageTemplate = `{{ heading "Usage:" }}
{{- if .Runnable}}
  {{ useLine .UseLine }}{{end}}
{{- if .HasAvailableSubCommands}}
  {{ command .CommandPath }} [command]{{end}}

{{- if .HasAvailableSubCommands}}

{{ heading "Commands:" }}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{ subcommand (rpad .Name .NamePadding) }} {{ .Short }}{{end}}{{end}}
{{- end}}

{{- if .HasAvailableLocalFlags}}

{{ heading "Flags:" }}
{{ flags .LocalFlags.FlagUsages }}
{{- end}}

{{- if .HasAvailableInheritedFlags}}

{{ heading "Global Flags:" }}
{{ flags .InheritedFlags.FlagUsages }}
{{- end}}

{{- if .HasAvailableSubCommands}}

{{ dim (print "Use \"" .CommandPath " [command] --help\" for more information about a command.") }}
{{- end}}
`

const helpTemplate = `{{with (or .Long .Short)}}{{ trim . }}

{{end}}{{ template "usage" . }}`

// styleUseLine highlights the command path and dims the placeholders of a
// usage line such as "yamlfix path rename FILE OLD NEW".
func styleUseLine(styles *HelpStyles, line string) string {
	fields := strings.Fields(line)
	for i, field := range fields {
		switch {
		case strings.HasPrefix(field, "["):
			fields[i] = styles.Dim.Render(field)
		case field == strings.ToUpper(field) && strings.ContainsAny(field, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
			fields[i] = styles.Argument.Render(field)
		default:
			fields[i] = styles.Command.Render(field)
		}
	}
	return strings.Join(fields, " ")
}

// styleFlagUsages styles pflag usage lines of the form
// "  -j, --jobs int   number of parallel workers".
func styleFlagUsages(styles *HelpStyles, usages string) string {
	lines := strings.Split(strings.TrimSuffix(usages, "\n"), "\n")
	for i, line := range lines {
		lines[i] = styleFlagLine(styles, line)
	}
	return strings.Join(lines, "\n")
}

func styleFlagLine(styles *HelpStyles, line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if trimmed == "" {
		return line
	}
	indent := line[:len(line)-len(trimmed)]

	// Columns are separated by at least two spaces.
	split := strings.Index(trimmed, "   ")
	if split < 0 {
		return line
	}
	gap := len(trimmed[split:]) - len(strings.TrimLeft(trimmed[split:], " "))
	names, desc := trimmed[:split], trimmed[split+gap:]

	tokens := strings.Fields(names)
	for i, token := range tokens {
		if strings.HasPrefix(token, "-") {
			name := strings.TrimSuffix(token, ",")
			tokens[i] = styles.Flag.Render(name) + token[len(name):]
		} else {
			tokens[i] = styles.Dim.Render(token)
		}
	}
	styledNames := strings.Join(tokens, " ")

	// Keep the description column aligned on the unstyled width.
	return indent + styledNames + strings.Repeat(" ", split+gap-len(names)) + desc
}

// ApplyToCommand installs the styled usage and help functions on cmd. Cobra
// inherits them in every subcommand.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	render := func(command *cobra.Command, name string) error {
		w := command.OutOrStdout()
		tmpl := template.New("yamlfix").Funcs(h.funcs(h.styles(w)))
		if _, err := tmpl.New("usage").Parse(usageTemplate); err != nil {
			return fmt.Errorf("parse usage template: %w", err)
		}
		if _, err := tmpl.New("help").Parse(helpTemplate); err != nil {
			return fmt.Errorf("parse help template: %w", err)
		}
		if err := tmpl.ExecuteTemplate(w, name, command); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		return nil
	}

	cmd.SetUsageFunc(func(command *cobra.Command) error {
		return render(command, "usage")
	})
	cmd.SetHelpFunc(func(command *cobra.Command, _ []string) {
		if err := render(command, "help"); err != nil {
			command.PrintErrln(err)
		}
	})
}

func rpad(str string, padding int) string {
	if len(str) >= padding {
		return str
	}
	return str + strings.Repeat(" ", padding-len(str))
}

func trimTrailingWhitespaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
