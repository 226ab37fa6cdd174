// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/datawire/dlib/derror"
	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/lana"
)

var argparserLogs = &cobra.Command{
	Use:   "logs {[flags]|SUBCOMMAND...}",
	Short: "List, upload, export, and delete event logs",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func printLogs(cmd *cobra.Command, logs []lana.Log) error {
	if logs == nil {
		logs = []lana.Log{}
	}
	return printResult(cmd, logs, func(w io.Writer) error {
		rows := make([][]string, 0, len(logs))
		for _, log := range logs {
			rows = append(rows, []string{log.ID.String(), log.Name})
		}
		return cliutil.PrintTable(w, []string{"ID", "NAME"}, rows)
	})
}

func init() {
	argparser.AddCommand(argparserLogs)

	// list ////////////////////////////////////////////////////////////////
	var listFlags struct {
		Mine  bool
		Match string
	}
	listCmd := &cobra.Command{
		Use:   "list [flags]",
		Short: "List event logs",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var re *regexp.Regexp
			if listFlags.Match != "" {
				var err error
				re, err = regexp.Compile(listFlags.Match)
				if err != nil {
					return cliutil.FlagErrorFunc(cmd, fmt.Errorf("--match: %w", err))
				}
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			var logs []lana.Log
			if listFlags.Mine {
				logs, err = client.ListUserLogs(cmd.Context())
			} else {
				logs, err = client.ListLogs(cmd.Context())
			}
			if err != nil {
				return err
			}
			if re != nil {
				filtered := logs[:0]
				for _, log := range logs {
					if re.MatchString(log.Name) {
						filtered = append(filtered, log)
					}
				}
				logs = filtered
			}
			return printLogs(cmd, logs)
		},
	}
	listCmd.Flags().BoolVar(&listFlags.Mine, "mine", false,
		"Only list logs that the user owns, rather than all logs the user can see")
	listCmd.Flags().StringVar(&listFlags.Match, "match", "",
		"Only list logs whose name matches the regular expression `REGEX`")
	argparserLogs.AddCommand(listCmd)

	// id //////////////////////////////////////////////////////////////////
	var idExact bool
	idCmd := &cobra.Command{
		Use:   "id [flags] NAME",
		Short: "Look up the id of a log by name",
		Long: "Look up the id of a log by name.  By default NAME is a regular expression, " +
			"and it is an error unless exactly one log matches it.  With --exact, NAME " +
			"must equal the log name, only the user's own logs are considered, and the " +
			"newest such log wins.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			var id lana.ID
			if idExact {
				id, err = client.ChooseLog(cmd.Context(), args[0])
			} else {
				id, err = client.GetLogID(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printResult(cmd, map[string]string{"id": id.String()}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, id)
				return err
			})
		},
	}
	idCmd.Flags().BoolVar(&idExact, "exact", false,
		"Match the name exactly, and pick the newest of the user's logs with that name")
	argparserLogs.AddCommand(idCmd)

	// delete //////////////////////////////////////////////////////////////
	argparserLogs.AddCommand(&cobra.Command{
		Use:   "delete [flags] LOG_ID...",
		Short: "Delete logs by id",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			var errs derror.MultiError
			for _, arg := range args {
				if _, err := client.DeleteLog(cmd.Context(), lana.ID(arg)); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "deleted log %s\n", arg)
			}
			if len(errs) > 0 {
				return errs
			}
			return nil
		},
	})

	// delete-matching /////////////////////////////////////////////////////
	var deleteYes bool
	deleteMatchingCmd := &cobra.Command{
		Use:   "delete-matching [flags] REGEX",
		Short: "Delete every log whose name matches a regular expression",
		Long: "Delete every log whose name matches the regular expression REGEX.  " +
			"Without --yes, only print the ids that would be deleted.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := regexp.Compile(args[0]); err != nil {
				return cliutil.FlagErrorFunc(cmd, err)
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			if !deleteYes {
				ids, err := client.GetLogIDs(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ids == nil {
					ids = []lana.ID{}
				}
				return printResult(cmd, map[string][]lana.ID{"wouldDelete": ids}, func(w io.Writer) error {
					for _, id := range ids {
						if _, err := fmt.Fprintf(w, "would delete log %s\n", id); err != nil {
							return err
						}
					}
					return nil
				})
			}

			results, err := client.DeleteLogs(cmd.Context(), args[0])
			var multi derror.MultiError
			if err != nil && !errors.As(err, &multi) {
				return err
			}
			type row struct {
				LogID string `json:"logId"`
				Error string `json:"error,omitempty"`
			}
			rows := make([]row, 0, len(results))
			for _, result := range results {
				r := row{LogID: result.LogID.String()}
				if result.Err != nil {
					r.Error = result.Err.Error()
				}
				rows = append(rows, r)
			}
			if perr := printResult(cmd, rows, func(w io.Writer) error {
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					status := "deleted"
					if r.Error != "" {
						status = "failed"
					}
					table = append(table, []string{r.LogID, status})
				}
				return cliutil.PrintTable(w, []string{"ID", "STATUS"}, table)
			}); perr != nil {
				return perr
			}
			return err
		},
	}
	deleteMatchingCmd.Flags().BoolVar(&deleteYes, "yes", false,
		"Actually delete the logs")
	argparserLogs.AddCommand(deleteMatchingCmd)

	// export //////////////////////////////////////////////////////////////
	var exportFlags struct {
		Name string
		ID   string
	}
	exportCmd := &cobra.Command{
		Use:   "export [flags] {--name=NAME|--id=LOG_ID} >FILE.csv",
		Short: "Download the enriched event log as CSV",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (exportFlags.Name == "") == (exportFlags.ID == "") {
				return cliutil.FlagErrorFunc(cmd, errors.New("exactly one of --name or --id is required"))
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			table, err := client.GetEventLog(cmd.Context(), exportFlags.Name, lana.ID(exportFlags.ID))
			if err != nil {
				return err
			}
			return printResult(cmd, table, table.WriteCSV)
		},
	}
	exportCmd.Flags().StringVar(&exportFlags.Name, "name", "",
		"Export the log whose name matches the regular expression `NAME`")
	exportCmd.Flags().StringVar(&exportFlags.ID, "id", "",
		"Export the log with id `LOG_ID`")
	argparserLogs.AddCommand(exportCmd)
}
