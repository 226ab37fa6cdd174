// Copyright (C) 2020  Ambassador Labs (for Telepresence)
// Copyright (C) 2021  Ambassador Labs (for ocibuild)
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0
//
// Based on
// https://github.com/telepresenceio/telepresence/blob/b6dfa04ff014915b47386191cc3d8b1352522fea/pkg/client/cli/command_group.go#L35-L63

package cliutil

import (
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// MaxHelpWidth caps the wrap width on very wide terminals; long lines of help text are hard to
// read.
const MaxHelpWidth = 120

type fder interface {
	Fd() uintptr
}

// TerminalWidth returns the width to wrap text written to w to, or 0 for "don't wrap".
//
// COLUMNS wins if it is set.  Otherwise, w is measured if it is a terminal (80 columns if its
// size is unknown); anything else, like a pipe or a buffer, is not wrapped.
func TerminalWidth(w io.Writer) int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}

	file, ok := w.(fder)
	if !ok {
		return 0
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
		if cols > MaxHelpWidth {
			return MaxHelpWidth
		}
		return cols
	}
	return 80
}
