// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/lana"
	"github.com/lanalabs/golana/pkg/pep440"
	"github.com/lanalabs/golana/pkg/pyindex"
)

var argparserIndex = &cobra.Command{
	Use:   "index {[flags]|SUBCOMMAND...}",
	Short: "Verify that PyLana installs from the Python package indexes",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

type indexFlags struct {
	IndexURL      string
	ExtraIndexURL []string
	Timeout       time.Duration
}

func (f *indexFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.IndexURL, "index-url", pyindex.TestPyPIBaseURL,
		"Base `URL` of the primary package index (like pip's --index-url)")
	cmd.Flags().StringArrayVar(&f.ExtraIndexURL, "extra-index-url", []string{pyindex.PyPIBaseURL},
		"Base `URL` of an additional package index (like pip's --extra-index-url); may be repeated")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", pyindex.DefaultTimeout,
		"Give up on a request to an index after this long")
}

func (f *indexFlags) multiIndex() pyindex.MultiIndex {
	userAgent := "golana/" + lana.Version
	httpClient := pyindex.NewHTTPClient(f.Timeout)
	ret := pyindex.MultiIndex{
		Index: pyindex.Client{BaseURL: f.IndexURL, HTTPClient: httpClient, UserAgent: userAgent},
	}
	for _, u := range f.ExtraIndexURL {
		ret.ExtraIndexes = append(ret.ExtraIndexes,
			pyindex.Client{BaseURL: u, HTTPClient: httpClient, UserAgent: userAgent})
	}
	return ret
}

func init() {
	argparser.AddCommand(argparserIndex)

	// check ///////////////////////////////////////////////////////////////
	var checkFlags indexFlags
	var checkNoDeps bool
	var checkPython string
	checkCmd := &cobra.Command{
		Use:   "check [flags] REQUIREMENT...",
		Short: "Check that packages and their dependencies resolve from the package indexes",
		Long: "Check that each requirement (a name, optionally with extras and a version " +
			"specifier, e.g. 'pylana' or 'pandas>=1.2') can be installed with\n" +
			"\n" +
			"    pip install -i INDEX_URL --extra-index-url EXTRA_INDEX_URL... REQUIREMENT\n" +
			"\n" +
			"and report the version pip would pick and which index serves it.  Like pip, " +
			"the files from all of the indexes are considered together, and the highest " +
			"version that satisfies the requirement wins, wherever it comes from.  The " +
			"dependencies (Requires-Dist) of each chosen wheel are then checked the same " +
			"way, transitively, unless --no-deps is given.  The defaults are the indexes " +
			"from the PyLana installation instructions, so `golana index check pylana` " +
			"checks that pylana comes from TestPyPI while its dependencies come from PyPI.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := checkFlags.multiIndex()
			index.NoDeps = checkNoDeps
			if checkPython != "" {
				ver, err := pep440.ParseVersion(checkPython)
				if err != nil {
					return cliutil.FlagErrorFunc(cmd, fmt.Errorf("invalid --python-version: %w", err))
				}
				index.PythonVersion = ver
			}
			resolutions, err := index.Check(cmd.Context(), args...)
			if resolutions == nil {
				resolutions = []pyindex.Resolution{}
			}
			if perr := printResult(cmd, resolutions, func(w io.Writer) error {
				rows := make([][]string, 0, len(resolutions))
				for _, res := range resolutions {
					requiredBy := res.RequiredBy
					if requiredBy == "" {
						requiredBy = "-"
					}
					rows = append(rows, []string{res.Name, res.Version, res.Index, requiredBy})
				}
				return cliutil.PrintTable(w, []string{"NAME", "VERSION", "INDEX", "REQUIRED-BY"}, rows)
			}); perr != nil {
				return perr
			}
			return err
		},
	}
	checkFlags.register(checkCmd)
	checkCmd.Flags().BoolVar(&checkNoDeps, "no-deps", false,
		"Only check the named requirements, not their dependencies")
	checkCmd.Flags().StringVar(&checkPython, "python-version", "",
		"Skip files whose Requires-Python excludes this Python `VERSION` (e.g. 3.9); by default nothing is skipped")
	argparserIndex.AddCommand(checkCmd)

	// download ////////////////////////////////////////////////////////////
	var downloadFlags indexFlags
	downloadCmd := &cobra.Command{
		Use:   "download [flags] FILENAME >FILENAME",
		Short: "Download a distribution file from the package indexes",
		Long: "Given a wheel or sdist filename, download it from the first package index " +
			"that has it, writing the file contents to stdout." +
			"\n\n" +
			"LIMITATION: While checksums are verified, signatures are not.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filename := args[0]
			info, err := pyindex.ParseFilename(filename)
			if err != nil {
				return err
			}
			candidates, err := downloadFlags.multiIndex().Locate(ctx, info.Distribution)
			if err != nil {
				return err
			}
			for _, cand := range candidates {
				if cand.File.Text != filename {
					continue
				}
				content, err := cand.File.Get(ctx)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			return fmt.Errorf("%s: %w", filename, pyindex.ErrUnresolvable)
		},
	}
	downloadFlags.register(downloadCmd)
	argparserIndex.AddCommand(downloadCmd)
}
