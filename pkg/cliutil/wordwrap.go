// Copyright (C) 2012  Alex Ogier.  All rights reserved.
// Copyright (C) 2012  The Go Authors.  All rights reserved.
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: BSD-3-Clause
//
// The wrapping algorithm is the one that github.com/spf13/pflag uses for FlagUsagesWrapped, so
// that command tables and flag tables wrap identically.

package cliutil

import (
	"strings"
)

const (
	wrapSlop     = 5
	wrapMinWidth = 24
	wrapFallback = 16
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

// splitLine splits s on whitespace into a first line of at most n bytes and the remainder.  It
// goes up to `slop` over n if that takes the entire string.
func splitLine(n, slop int, s string) (line, rest string) {
	if n+slop > len(s) {
		return s, ""
	}
	sp := strings.LastIndexAny(s[:n], " \t\n")
	if sp <= 0 {
		return s, ""
	}
	if nl := strings.LastIndex(s[:n], "\n"); nl > 0 && nl < sp {
		return s[:nl], s[nl+1:]
	}
	return s[:sp], s[sp+1:]
}

func wrap(indent, width int, s string) string {
	if width == 0 {
		return strings.ReplaceAll(s, "\n", "\n"+strings.Repeat(" ", indent))
	}

	var ret strings.Builder

	avail := width - indent
	if avail < wrapMinWidth {
		// Too narrow; start a new line at a fixed indent instead.
		indent = wrapFallback
		avail = width - indent
		ret.WriteString("\n" + strings.Repeat(" ", indent))
	}
	if avail < wrapMinWidth {
		return ret.String() + s
	}
	avail -= wrapSlop

	prefix := "\n" + strings.Repeat(" ", indent)
	line, rest := splitLine(avail, wrapSlop, s)
	ret.WriteString(strings.ReplaceAll(line, "\n", prefix))
	for rest != "" {
		line, rest = splitLine(avail, wrapSlop, rest)
		ret.WriteString(prefix)
		ret.WriteString(strings.ReplaceAll(line, "\n", prefix))
	}
	return ret.String()
}
