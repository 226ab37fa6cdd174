// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/config"
	"github.com/lanalabs/golana/pkg/lana"
	"github.com/lanalabs/golana/pkg/semantics"
)

// loadProfile builds the connection profile: the --config file, then the environment, then any
// flags that were given explicitly.
func loadProfile(flags *pflag.FlagSet, getenv func(string) string) (config.Profile, error) {
	var profile config.Profile
	if globalFlags.ConfigFile != "" {
		var err error
		profile, err = config.Load(globalFlags.ConfigFile)
		if err != nil {
			return profile, err
		}
	}
	if err := profile.ApplyEnv(getenv); err != nil {
		return profile, err
	}

	for name, override := range map[string]func(){
		"scheme":               func() { profile.Scheme = globalFlags.Scheme },
		"host":                 func() { profile.Host = globalFlags.Host },
		"port":                 func() { profile.Port = globalFlags.Port },
		"url":                  func() { profile.URL = globalFlags.URL },
		"token":                func() { profile.Token = globalFlags.Token },
		"api-key":              func() { profile.APIKey = globalFlags.APIKey },
		"compat":               func() { profile.Compatibility = globalFlags.Compatibility },
		"insecure-skip-verify": func() { profile.InsecureSkipVerify = globalFlags.InsecureSkipVerify },
	} {
		if flags.Changed(name) {
			override()
		}
	}
	return profile, nil
}

func newClient(cmd *cobra.Command) (*lana.Client, error) {
	profile, err := loadProfile(cmd.Flags(), os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg := profile.ClientConfig()
	cfg.Registerer = registry
	return lana.New(cfg)
}

// openInput opens a file for reading; "-" is stdin.
func openInput(cmd *cobra.Command, filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(filename)
}

func readTable(cmd *cobra.Command, filename string) (*semantics.Table, error) {
	file, err := openInput(cmd, filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	table, err := semantics.ReadCSV(file)
	if err != nil {
		return nil, &fs.PathError{
			Op:   "read table",
			Path: filename,
			Err:  err,
		}
	}
	return table, nil
}

func printResult(cmd *cobra.Command, v interface{}, text func(io.Writer) error) error {
	return cliutil.Print(cmd.OutOrStdout(), globalFlags.Output, v, text)
}

// printResponse prints the backend's reply to a write operation.
func printResponse(cmd *cobra.Command, resp *lana.Response) error {
	var body interface{}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		body = string(resp.Body)
	}
	return printResult(cmd, body, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d %s\n", resp.StatusCode, bytes.TrimSpace(resp.Body))
		return err
	})
}
