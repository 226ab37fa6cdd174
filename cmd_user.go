// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanalabs/golana/pkg/cliutil"
)

var argparserUser = &cobra.Command{
	Use:   "user {[flags]|SUBCOMMAND...}",
	Short: "Inspect the user that the credentials belong to",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserUser)

	argparserUser.AddCommand(&cobra.Command{
		Use:   "info [flags]",
		Short: "Show the user that the token belongs to",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			user, err := client.GetUserInformation(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, user, func(w io.Writer) error {
				// The API key is a credential; leave it out of the human-readable form.
				return cliutil.PrintTable(w, nil, [][]string{
					{"ID:", user.ID.String()},
					{"Organization:", user.OrganizationID.String()},
					{"Email:", user.Email},
					{"Role:", user.Role},
					{"API key status:", user.APIKeyStatus},
					{"Backend instance:", user.BackendInstanceID},
					{"Fields:", strings.Join(user.Fields(), ", ")},
				})
			})
		},
	})
}
