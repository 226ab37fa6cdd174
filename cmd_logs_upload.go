// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/lana"
	"github.com/lanalabs/golana/pkg/semantics"
)

func init() {
	// upload //////////////////////////////////////////////////////////////
	var uploadFlags struct {
		Name           string
		Prefix         string
		Events         string
		EventSemantics string
		Cases          string
		CaseSemantics  string
	}
	uploadCmd := &cobra.Command{
		Use:   "upload [flags] --events=FILE.csv --event-semantics=FILE.json",
		Short: "Upload an event log with prepared semantics",
		Long: "Upload an event log from a CSV file and a JSON semantics file, optionally " +
			"with a case-attribute CSV file and its JSON semantics file." +
			"\n\n" +
			"If --name is not given, the log is named --prefix followed by a random UUID.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uploadFlags.Events == "" || uploadFlags.EventSemantics == "" {
				return cliutil.FlagErrorFunc(cmd, errors.New("--events and --event-semantics are required"))
			}
			if (uploadFlags.Cases == "") != (uploadFlags.CaseSemantics == "") {
				return cliutil.FlagErrorFunc(cmd, errors.New("--cases and --case-semantics must be given together"))
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			var resp *lana.Response
			if uploadFlags.Name != "" {
				resp, err = client.UploadEventLogFiles(cmd.Context(), lana.LogFiles{
					Events:         uploadFlags.Events,
					EventSemantics: uploadFlags.EventSemantics,
					CaseAttributes: uploadFlags.Cases,
					CaseSemantics:  uploadFlags.CaseSemantics,
					LogName:        uploadFlags.Name,
				})
			} else {
				resp, err = uploadStream(cmd, client, uploadFlags.Events, uploadFlags.EventSemantics,
					uploadFlags.Cases, uploadFlags.CaseSemantics, uploadFlags.Prefix)
			}
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	uploadCmd.Flags().StringVar(&uploadFlags.Name, "name", "",
		"Name the log `NAME`")
	uploadCmd.Flags().StringVar(&uploadFlags.Prefix, "prefix", lana.DefaultStreamPrefix,
		"Name prefix for logs uploaded without --name")
	uploadCmd.Flags().StringVar(&uploadFlags.Events, "events", "",
		"Read events from CSV `FILE`")
	uploadCmd.Flags().StringVar(&uploadFlags.EventSemantics, "event-semantics", "",
		"Read the event semantics from JSON `FILE`")
	uploadCmd.Flags().StringVar(&uploadFlags.Cases, "cases", "",
		"Read case attributes from CSV `FILE`")
	uploadCmd.Flags().StringVar(&uploadFlags.CaseSemantics, "case-semantics", "",
		"Read the case-attribute semantics from JSON `FILE`")
	argparserLogs.AddCommand(uploadCmd)

	// upload-table ////////////////////////////////////////////////////////
	var tableFlags struct {
		Name       string
		Events     string
		Cases      string
		TimeFormat string
	}
	uploadTableCmd := &cobra.Command{
		Use:   "upload-table [flags] --name=NAME --events=FILE.csv",
		Short: "Upload an event log, inferring its semantics from the columns",
		Long: "Upload an event log from a CSV file, and optionally a case-attribute CSV " +
			"file, inferring the semantics from the column names and contents.  See " +
			"`golana semantics infer --help` for the rules.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tableFlags.Name == "" || tableFlags.Events == "" {
				return cliutil.FlagErrorFunc(cmd, errors.New("--name and --events are required"))
			}
			events, err := readTable(cmd, tableFlags.Events)
			if err != nil {
				return err
			}
			var cases *semantics.Table
			if tableFlags.Cases != "" {
				if cases, err = readTable(cmd, tableFlags.Cases); err != nil {
					return err
				}
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.UploadEventLogTable(cmd.Context(), tableFlags.Name, events, cases, tableFlags.TimeFormat)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	uploadTableCmd.Flags().StringVar(&tableFlags.Name, "name", "",
		"Name the log `NAME`")
	uploadTableCmd.Flags().StringVar(&tableFlags.Events, "events", "",
		"Read events from CSV `FILE` (\"-\" for stdin)")
	uploadTableCmd.Flags().StringVar(&tableFlags.Cases, "cases", "",
		"Read case attributes from CSV `FILE`")
	uploadTableCmd.Flags().StringVar(&tableFlags.TimeFormat, "time-format", "",
		"Timestamp `FORMAT` of the Start and Complete columns, e.g. yyyy-MM-dd HH:mm:ss")
	argparserLogs.AddCommand(uploadTableCmd)

	// append //////////////////////////////////////////////////////////////
	var appendFlags struct {
		Events         string
		EventSemantics string
		TimeFormat     string
	}
	appendCmd := &cobra.Command{
		Use:   "append [flags] LOG_ID --events=FILE.csv",
		Short: "Append events to an existing log",
		Long: "Append events to an existing log.  The event semantics are read from " +
			"--event-semantics if given, and otherwise inferred from the columns.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if appendFlags.Events == "" {
				return cliutil.FlagErrorFunc(cmd, errors.New("--events is required"))
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			logID := lana.ID(args[0])

			var resp *lana.Response
			if appendFlags.EventSemantics != "" {
				sems, err := os.ReadFile(appendFlags.EventSemantics)
				if err != nil {
					return err
				}
				events, err := openInput(cmd, appendFlags.Events)
				if err != nil {
					return err
				}
				defer events.Close()
				resp, err = client.AppendEvents(cmd.Context(), logID, events, sems)
				if err != nil {
					return err
				}
			} else {
				events, err := readTable(cmd, appendFlags.Events)
				if err != nil {
					return err
				}
				resp, err = client.AppendEventsTable(cmd.Context(), logID, events, appendFlags.TimeFormat)
				if err != nil {
					return err
				}
			}
			return printResponse(cmd, resp)
		},
	}
	appendCmd.Flags().StringVar(&appendFlags.Events, "events", "",
		"Read events from CSV `FILE` (\"-\" for stdin)")
	appendCmd.Flags().StringVar(&appendFlags.EventSemantics, "event-semantics", "",
		"Read the event semantics from JSON `FILE`")
	appendCmd.Flags().StringVar(&appendFlags.TimeFormat, "time-format", "",
		"Timestamp `FORMAT`, when inferring the semantics")
	argparserLogs.AddCommand(appendCmd)

	// append-attributes ///////////////////////////////////////////////////
	var attrFlags struct {
		Cases         string
		CaseSemantics string
	}
	appendAttrsCmd := &cobra.Command{
		Use:   "append-attributes [flags] LOG_ID --cases=FILE.csv --case-semantics=FILE.json",
		Short: "Add case attributes to an existing log",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if attrFlags.Cases == "" || attrFlags.CaseSemantics == "" {
				return cliutil.FlagErrorFunc(cmd, errors.New("--cases and --case-semantics are required"))
			}
			sems, err := os.ReadFile(attrFlags.CaseSemantics)
			if err != nil {
				return err
			}
			cases, err := openInput(cmd, attrFlags.Cases)
			if err != nil {
				return err
			}
			defer cases.Close()
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.AppendAttributes(cmd.Context(), lana.ID(args[0]), cases, sems)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	appendAttrsCmd.Flags().StringVar(&attrFlags.Cases, "cases", "",
		"Read case attributes from CSV `FILE` (\"-\" for stdin)")
	appendAttrsCmd.Flags().StringVar(&attrFlags.CaseSemantics, "case-semantics", "",
		"Read the case-attribute semantics from JSON `FILE`")
	argparserLogs.AddCommand(appendAttrsCmd)
}

// uploadStream uploads files under a generated name.
func uploadStream(cmd *cobra.Command, client *lana.Client,
	eventsFile, eventSemsFile, casesFile, caseSemsFile, prefix string,
) (*lana.Response, error) {
	eventSems, err := os.ReadFile(eventSemsFile)
	if err != nil {
		return nil, err
	}
	events, err := openInput(cmd, eventsFile)
	if err != nil {
		return nil, err
	}
	defer events.Close()

	if casesFile == "" {
		return client.UploadEventLogStream(cmd.Context(), events, eventSems, nil, nil, prefix)
	}
	caseSems, err := os.ReadFile(caseSemsFile)
	if err != nil {
		return nil, err
	}
	cases, err := openInput(cmd, casesFile)
	if err != nil {
		return nil, err
	}
	defer cases.Close()
	return client.UploadEventLogStream(cmd.Context(), events, eventSems, cases, caseSems, prefix)
}
