// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cobra.AddTemplateFunc("termWidth", func(cmd *cobra.Command) int {
		return TerminalWidth(cmd.OutOrStdout())
	})
	cobra.AddTemplateFunc("wrap", Wrap)
	cobra.AddTemplateFunc("wrapIndent", WrapIndent)
	cobra.AddTemplateFunc("add", func(args ...int) int {
		ret := 0
		for _, arg := range args {
			ret += arg
		}
		return ret
	})
	cobra.AddTemplateFunc("hasEnv", func(cmd *cobra.Command) bool {
		vars, _ := envHelp(cmd)
		return len(vars) > 0
	})
	cobra.AddTemplateFunc("envUsages", envUsages)
}

// EnvVar documents an environment variable that a command reads.
type EnvVar struct {
	Name  string
	Usage string
}

const (
	annotationEnv     = "cliutil.golana/env"
	annotationEnvNote = "cliutil.golana/env-note"
)

// SetEnvHelp lists vars in the "Environment:" section of the help for cmd and every command
// under it.  The note, if any, is printed after the list; golana uses it to say how the
// environment ranks against flags and the profile file.
func SetEnvHelp(cmd *cobra.Command, note string, vars ...EnvVar) {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		lines = append(lines, v.Name+"="+v.Usage)
	}
	cmd.Annotations[annotationEnv] = strings.Join(lines, "\n")
	cmd.Annotations[annotationEnvNote] = note
}

// envHelp returns the environment help of the nearest command, starting at cmd and walking up,
// that has any.
func envHelp(cmd *cobra.Command) (vars []EnvVar, note string) {
	for c := cmd; c != nil; c = c.Parent() {
		list, ok := c.Annotations[annotationEnv]
		if !ok {
			continue
		}
		if list != "" {
			for _, line := range strings.Split(list, "\n") {
				name, usage, _ := strings.Cut(line, "=")
				vars = append(vars, EnvVar{Name: name, Usage: usage})
			}
		}
		return vars, c.Annotations[annotationEnvNote]
	}
	return nil, ""
}

func envUsages(cmd *cobra.Command) string {
	vars, note := envHelp(cmd)
	width := TerminalWidth(cmd.OutOrStdout())
	pad := 0
	for _, v := range vars {
		if len(v.Name) > pad {
			pad = len(v.Name)
		}
	}
	var ret strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&ret, "  %-*s   %s\n", pad, v.Name, WrapIndent(pad+5, width, v.Usage))
	}
	if note != "" {
		ret.WriteString("\n" + Wrap(width, note) + "\n")
	}
	return ret.String()
}

// HelpTemplate is the help template for golana commands: usage line first, text wrapped to the
// terminal, and an Environment section for the variables set with SetEnvHelp.
const HelpTemplate = `Usage: {{ .UseLine }}

{{- /* Short help text ---------------------------------------------------- */}}
{{- if .Short }}
{{ .Short }}
{{- end }}

{{- /* Long help text ----------------------------------------------------- */}}
{{- if .Long }}

{{ .Long | wrap (termWidth $) | trimTrailingWhitespaces }}
{{- end }}

{{- /* Aliases ------------------------------------------------------------ */}}
{{- if .Aliases }}

Aliases:
  {{ .NameAndAliases }}
{{- end }}

{{- /* Examples ----------------------------------------------------------- */}}
{{- if .HasExample }}

Examples:
{{ .Example }}
{{- end }}

{{- /* Subcommands -------------------------------------------------------- */}}
{{- if .HasAvailableSubCommands }}

Available Commands:
{{- range .Commands}}
  {{- if (or .IsAvailableCommand (eq .Name "help")) }}
    {{- "\n" }}  {{ rpad .Name .NamePadding }}   {{ .Short | wrapIndent (add .NamePadding 5) (termWidth $) }}
  {{- end }}
{{- end }}
{{- end }}

{{- /* Local Flags -------------------------------------------------------- */}}
{{- if .HasAvailableLocalFlags }}

Flags:
{{ termWidth $ | .LocalFlags.FlagUsagesWrapped | trimTrailingWhitespaces }}
{{- end }}

{{- /* Global flags ------------------------------------------------------- */}}
{{- if .HasAvailableInheritedFlags }}

Global Flags:
{{ termWidth $ | .InheritedFlags.FlagUsagesWrapped | trimTrailingWhitespaces }}
{{- end }}

{{- /* Environment -------------------------------------------------------- */}}
{{- if hasEnv $ }}

Environment:
{{ envUsages $ | trimTrailingWhitespaces }}
{{- end }}

{{- /* Help topics -------------------------------------------------------- */}}
{{- if .HasHelpSubCommands }}

Additional help topics:
{{- range .Commands }}
  {{- if .IsAdditionalHelpTopicCommand }}
    {{- "\n" }}  {{ rpad .CommandPath .CommandPathPadding }}   {{ .Short | wrapIndent (add .NamePadding 5) (termWidth $) }}
  {{- end }}
{{- end }}
{{- end }}

{{- /* Help footer -------------------------------------------------------- */}}
{{- if .HasAvailableSubCommands }}

Use "{{ .CommandPath }} [command] --help" for more information about a command.
{{- end}}
`
