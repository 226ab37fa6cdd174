// Copyright (C) 2020  Ambassador Labs (for Telepresence)
// Copyright (C) 2021-2022  Ambassador Labs (for ocibuild)
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0
//
// Contains code from
// https://github.com/telepresenceio/telepresence/blob/3b63073ceafae6b548c664a83f7ac90497eab2ae/pkg/client/cli/command.go

package cliutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes, as returned by ExitCode.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ErrMissingSubcommand is returned when a command that only groups subcommands is run on its own.
var ErrMissingSubcommand = errors.New("a subcommand is required")

// UsageError is an invalid invocation: a bad flag, the wrong number of arguments, or flags that
// don't make sense together.  Its message points the user at --help.
type UsageError struct {
	CommandPath string
	Err         error
}

func (e *UsageError) Error() string {
	// If the error is multiple lines, include an extra blank line before the "See --help" line.
	errStr := strings.TrimRight(e.Err.Error(), "\n")
	if strings.Contains(errStr, "\n") {
		errStr += "\n"
	}
	return fmt.Sprintf("%s: %s\nSee '%s --help' for more information.",
		e.CommandPath, errStr, e.CommandPath)
}

func (e *UsageError) Unwrap() error { return e.Err }

// ExitCode is the process exit code for an error returned from (*cobra.Command).Execute.
func ExitCode(err error) int {
	var usageErr *UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usageErr):
		return ExitUsage
	default:
		return ExitError
	}
}

// OnlySubcommands is a cobra.PositionalArgs that is similar to cobra.NoArgs, but suggests the
// subcommand that the user probably meant.
func OnlySubcommands(cmd *cobra.Command, args []string) error {
	// Copyright note: This code was originally written by LukeShu for Telepresence.
	if len(args) != 0 {
		err := fmt.Errorf("invalid subcommand %q", args[0])

		if cmd.SuggestionsMinimumDistance <= 0 {
			cmd.SuggestionsMinimumDistance = 2
		}
		if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
			err = fmt.Errorf("%w\nDid you mean one of these?\n\t%s", err, strings.Join(suggestions, "\n\t"))
		}

		return cmd.FlagErrorFunc()(cmd, err)
	}
	return nil
}

// WrapPositionalArgs wraps a cobra.PositionalArgs so that its errors are usage errors.
func WrapPositionalArgs(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return FlagErrorFunc(cmd, inner(cmd, args))
	}
}

// RunSubcommands is the RunE for commands like "golana logs" that only group subcommands.  It
// prints the help to stderr and fails, so that a bare "golana logs" in a script is not mistaken
// for success.
func RunSubcommands(cmd *cobra.Command, args []string) error {
	// Copyright note: This code was originally written by LukeShu for Telepresence.
	cmd.SetOut(cmd.ErrOrStderr())
	cmd.HelpFunc()(cmd, args)
	return FlagErrorFunc(cmd, ErrMissingSubcommand)
}

// FlagErrorFunc is for (*cobra.Command).SetFlagErrorFunc, and for commands to report invalid
// combinations of flags.  It wraps err in a *UsageError, so that main can tell usage errors
// (ExitUsage) from execution errors (ExitError).
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return err
	}
	return &UsageError{CommandPath: cmd.CommandPath(), Err: err}
}
