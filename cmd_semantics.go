// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/semantics"
)

var argparserSemantics = &cobra.Command{
	Use:   "semantics {[flags]|SUBCOMMAND...}",
	Short: "Work with log semantics offline",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserSemantics)

	var flags struct {
		Events     bool
		Cases      bool
		TimeFormat string
	}
	cmd := &cobra.Command{
		Use:   "infer [flags] {--events|--cases} FILE.csv >FILE.json",
		Short: "Print the semantics that upload-table would infer for a CSV file",
		Long: "Infer the semantics of the columns of an event CSV file (--events) or of a " +
			"case-attribute CSV file (--cases), without contacting the backend." +
			"\n\n" +
			"The column Case_ID is the case id, and is required.  In event files, the " +
			"column Action is the activity and is required, and the columns Start and " +
			"Complete are timestamps in --time-format, at least one of which is " +
			"required.  Any other column whose non-empty cells are all numbers is a " +
			"numeric attribute; everything else is a categorical attribute.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Events == flags.Cases {
				return cliutil.FlagErrorFunc(cmd, errors.New("exactly one of --events or --cases is required"))
			}
			table, err := readTable(cmd, args[0])
			if err != nil {
				return err
			}
			var sems []semantics.Semantic
			if flags.Events {
				sems, err = semantics.InferEventSemantics(table, flags.TimeFormat)
			} else {
				sems, err = semantics.InferCaseSemantics(table)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			// The text form is what the upload endpoints take.
			return printResult(cmd, sems, func(w io.Writer) error {
				bs, err := json.Marshal(sems)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\n", bs)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&flags.Events, "events", false,
		"The file holds events")
	cmd.Flags().BoolVar(&flags.Cases, "cases", false,
		"The file holds case attributes")
	cmd.Flags().StringVar(&flags.TimeFormat, "time-format", "",
		"Timestamp `FORMAT` of the Start and Complete columns")

	argparserSemantics.AddCommand(cmd)
}
