// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package cliutil_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanalabs/golana/pkg/cliutil"
)

func noopRunE(_ *cobra.Command, _ []string) error {
	return nil
}

// newGolanaTree is a cut-down golana command tree.
func newGolanaTree() (root, logs *cobra.Command) {
	root = &cobra.Command{
		Use:   "golana {[flags]|SUBCOMMAND...}",
		Short: "Manage event logs in LANA Process Mining",
		Long: "golana talks to the REST API of a LANA Process Mining backend.  The backend " +
			"and credentials come from a connection profile, which the environment and " +
			"flags override.",
		Args: cliutil.OnlySubcommands,
		RunE: cliutil.RunSubcommands,
	}
	root.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	root.SetHelpTemplate(cliutil.HelpTemplate)
	root.PersistentFlags().String("host", "", "Hostname of the backend")
	root.PersistentFlags().String("token", "", "Authenticate with API `TOKEN`, which is sent "+
		"with every request to the backend and never logged")
	cliutil.SetEnvHelp(root,
		"Flags override the environment, and the environment overrides the profile read "+
			"from --config.",
		cliutil.EnvVar{Name: "LANA_HOST", Usage: "Like --host"},
		cliutil.EnvVar{Name: "LANA_TOKEN", Usage: "Like --token; keeps the token out of the " +
			"process list and out of shell history"},
	)

	logs = &cobra.Command{
		Use:   "logs {[flags]|SUBCOMMAND...}",
		Short: "Manage the event logs that are stored on the backend, and upload new ones",
		Args:  cliutil.OnlySubcommands,
		RunE:  cliutil.RunSubcommands,
	}
	root.AddCommand(logs)
	logs.AddCommand(&cobra.Command{
		Use:   "list [flags]",
		Short: "List event logs",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE:  noopRunE,
	})
	logs.AddCommand(&cobra.Command{
		Use:   "delete [flags] LOG_ID...",
		Short: "Delete event logs",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE:  noopRunE,
	})
	return root, logs
}

//nolint:paralleltest // can't use .Parallel() with .Setenv()
func TestHelpTemplate(t *testing.T) {
	t.Setenv("COLUMNS", "80")
	type testcase struct {
		InputCmd     func() *cobra.Command
		ExpectedHelp string
	}
	testcases := map[string]testcase{
		"root": {
			InputCmd: func() *cobra.Command {
				root, _ := newGolanaTree()
				return root
			},
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				"Usage: golana {[flags]|SUBCOMMAND...}\n" +
				"Manage event logs in LANA Process Mining\n" +
				"\n" +
				"golana talks to the REST API of a LANA Process Mining backend.  The\n" +
				"backend and credentials come from a connection profile, which the\n" +
				"environment and flags override.\n" +
				"\n" +
				"Available Commands:\n" +
				"  logs          Manage the event logs that are stored on the backend, and\n" +
				"                upload new ones\n" +
				"\n" +
				"Flags:\n" +
				"      --host string   Hostname of the backend\n" +
				"      --token TOKEN   Authenticate with API TOKEN, which is sent with\n" +
				"                      every request to the backend and never logged\n" +
				"\n" +
				"Environment:\n" +
				"  LANA_HOST    Like --host\n" +
				"  LANA_TOKEN   Like --token; keeps the token out of the process list and\n" +
				"               out of shell history\n" +
				"\n" +
				"Flags override the environment, and the environment overrides the profile\n" +
				"read from --config.\n" +
				"\n" +
				"Use \"golana [command] --help\" for more information about a command.\n",
		},
		"subcommand-inherits-environment": {
			InputCmd: func() *cobra.Command {
				_, logs := newGolanaTree()
				return logs
			},
			ExpectedHelp: "" +
				"Usage: golana logs {[flags]|SUBCOMMAND...}\n" +
				"Manage the event logs that are stored on the backend, and upload new ones\n" +
				"\n" +
				"Available Commands:\n" +
				"  delete        Delete event logs\n" +
				"  list          List event logs\n" +
				"\n" +
				"Global Flags:\n" +
				"      --host string   Hostname of the backend\n" +
				"      --token TOKEN   Authenticate with API TOKEN, which is sent with\n" +
				"                      every request to the backend and never logged\n" +
				"\n" +
				"Environment:\n" +
				"  LANA_HOST    Like --host\n" +
				"  LANA_TOKEN   Like --token; keeps the token out of the process list and\n" +
				"               out of shell history\n" +
				"\n" +
				"Flags override the environment, and the environment overrides the profile\n" +
				"read from --config.\n" +
				"\n" +
				"Use \"golana logs [command] --help\" for more information about a command.\n",
		},
		"no-environment": {
			InputCmd: func() *cobra.Command {
				cmd := &cobra.Command{
					Use:   "upload [flags] --events=FILE.csv",
					Short: "Upload an event log",
					RunE:  noopRunE,
				}
				cmd.Flags().StringP("events", "e", "", "Read events from CSV `FILE`, which "+
					"needs a Case_ID column, an Action column, and a Start or Complete column")
				cmd.Flags().Bool("dry-run", false, "Check the semantics only")
				return cmd
			},
			ExpectedHelp: "" +
				"Usage: upload [flags] --events=FILE.csv\n" +
				"Upload an event log\n" +
				"\n" +
				"Flags:\n" +
				"      --dry-run       Check the semantics only\n" +
				"  -e, --events FILE   Read events from CSV FILE, which needs a Case_ID\n" +
				"                      column, an Action column, and a Start or Complete column\n",
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			cmd := tcData.InputCmd()
			cmd.SetHelpTemplate(cliutil.HelpTemplate)

			var out strings.Builder
			cmd.SetOut(&out)
			cmd.HelpFunc()(cmd, []string{"--help"})

			assert.Equal(t, tcData.ExpectedHelp, out.String())
		})
	}
}

//nolint:paralleltest // can't use .Parallel() with .Setenv()
func TestTerminalWidth(t *testing.T) {
	t.Setenv("COLUMNS", "")
	assert.Equal(t, 0, cliutil.TerminalWidth(&bytes.Buffer{}))
	t.Setenv("COLUMNS", "100")
	assert.Equal(t, 100, cliutil.TerminalWidth(&bytes.Buffer{}))
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()
	run := func(args ...string) (string, error) {
		root, _ := newGolanaTree()
		var stdout, stderr strings.Builder
		root.SetOut(&stdout)
		root.SetErr(&stderr)
		root.SetArgs(args)
		root.SilenceErrors = true
		root.SilenceUsage = true
		err := root.Execute()
		return stderr.String(), err
	}

	_, err := run("logs", "lst")
	var usageErr *cliutil.UsageError
	require.ErrorAs(t, err, &usageErr)
	assert.Equal(t, "golana logs", usageErr.CommandPath)
	assert.Equal(t, cliutil.ExitUsage, cliutil.ExitCode(err))
	assert.Equal(t, ""+
		"golana logs: invalid subcommand \"lst\"\n"+
		"Did you mean one of these?\n"+
		"\tlist\n"+
		"\n"+
		"See 'golana logs --help' for more information.", err.Error())

	_, err = run("logs", "delete")
	assert.Equal(t, cliutil.ExitUsage, cliutil.ExitCode(err))
	assert.ErrorContains(t, err, "golana logs delete: requires at least 1 arg(s)")

	_, err = run("logs", "list", "--bogus")
	assert.Equal(t, cliutil.ExitUsage, cliutil.ExitCode(err))
	assert.ErrorContains(t, err, "unknown flag: --bogus")

	stderr, err := run("logs")
	assert.ErrorIs(t, err, cliutil.ErrMissingSubcommand)
	assert.Equal(t, cliutil.ExitUsage, cliutil.ExitCode(err))
	assert.Contains(t, stderr, "Available Commands:")

	_, err = run("logs", "list")
	assert.NoError(t, err)
	assert.Equal(t, cliutil.ExitOK, cliutil.ExitCode(err))

	assert.Equal(t, cliutil.ExitError, cliutil.ExitCode(errors.New("HTTP 500")))
}
