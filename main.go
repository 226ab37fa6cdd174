// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Command golana is a command-line client for the LANA Process Mining API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/config"
)

var argparser = &cobra.Command{
	Use:   "golana {[flags]|SUBCOMMAND...}",
	Short: "Manage event logs in LANA Process Mining",
	Long: "golana talks to the REST API of a LANA Process Mining backend.  The backend " +
		"and credentials come from a connection profile (--config), which may be " +
		"overridden by the LANA_* environment variables, which may in turn be " +
		"overridden by flags.",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	PersistentPreRunE: setupLogging,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

//nolint:gochecknoglobals // set up once by main, read by the subcommands
var (
	logger   = logrus.New()
	registry = prometheus.NewRegistry()

	globalFlags struct {
		ConfigFile string

		Scheme             string
		Host               string
		Port               int
		URL                string
		Token              string
		APIKey             string
		Compatibility      bool
		InsecureSkipVerify bool

		LogLevel    string
		Output      cliutil.OutputFormat
		MetricsFile string
	}
)

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	cliutil.SetEnvHelp(argparser,
		"Flags override the environment, and the environment overrides the profile "+
			"read from --config.",
		cliutil.EnvVar{Name: config.EnvScheme, Usage: "Like --scheme"},
		cliutil.EnvVar{Name: config.EnvHost, Usage: "Like --host"},
		cliutil.EnvVar{Name: config.EnvPort, Usage: "Like --port"},
		cliutil.EnvVar{Name: config.EnvURL, Usage: "Like --url"},
		cliutil.EnvVar{Name: config.EnvToken, Usage: "Like --token; keeps the token out of the process list"},
		cliutil.EnvVar{Name: config.EnvAPIKey, Usage: "Like --api-key"},
	)

	flags := argparser.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "",
		"Read the connection profile from `FILE` (YAML or JSON)")
	flags.StringVar(&globalFlags.Scheme, "scheme", "",
		"Talk to the backend over `SCHEME` (http or https)")
	flags.StringVar(&globalFlags.Host, "host", "",
		"Hostname of the backend")
	flags.IntVar(&globalFlags.Port, "port", 0,
		"Port of the backend (default: the scheme's port)")
	flags.StringVar(&globalFlags.URL, "url", "",
		"Base URL of the backend, for use with --compat")
	flags.StringVar(&globalFlags.Token, "token", "",
		"Authenticate with API `TOKEN`")
	flags.StringVar(&globalFlags.APIKey, "api-key", "",
		"Authenticate with legacy API `KEY` (with --compat)")
	flags.BoolVar(&globalFlags.Compatibility, "compat", false,
		"Use the legacy (v1) flavor of the API")
	flags.BoolVar(&globalFlags.InsecureSkipVerify, "insecure-skip-verify", false,
		"Do not verify the backend's TLS certificate")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "info",
		"Log at `LEVEL` (error, warning, info, debug, or trace)")
	flags.Var(&globalFlags.Output, "output",
		"Print results as `FORMAT` (text, json, or yaml)")
	flags.StringVar(&globalFlags.MetricsFile, "metrics-file", "",
		"On exit, write client metrics to `FILE` in Prometheus text format")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logrus.ParseLevel(globalFlags.LogLevel)
	if err != nil {
		return cliutil.FlagErrorFunc(cmd, err)
	}
	logger.SetLevel(level)
	return nil
}

func main() {
	logger.SetOutput(os.Stderr)
	ctx := dlog.WithLogger(context.Background(), dlog.WrapLogrus(logger))

	err := argparser.ExecuteContext(ctx)
	if globalFlags.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(globalFlags.MetricsFile, registry); err != nil {
			dlog.Errorf(ctx, "write metrics: %v", err)
		}
	}
	switch cliutil.ExitCode(err) {
	case cliutil.ExitOK:
	case cliutil.ExitUsage:
		fmt.Fprintln(argparser.ErrOrStderr(), err)
		os.Exit(cliutil.ExitUsage)
	default:
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(cliutil.ExitError)
	}
}
