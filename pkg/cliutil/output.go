// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

// OutputFormat is a pflag.Value selecting how commands print their results.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

func (f OutputFormat) String() string {
	if f == "" {
		return string(OutputText)
	}
	return string(f)
}

func (f *OutputFormat) Set(str string) error {
	switch OutputFormat(str) {
	case OutputText, OutputJSON, OutputYAML:
		*f = OutputFormat(str)
		return nil
	default:
		return fmt.Errorf("invalid output format %q (must be one of %q, %q, or %q)",
			str, OutputText, OutputJSON, OutputYAML)
	}
}

func (*OutputFormat) Type() string {
	return "FORMAT"
}

// Print writes v to w.  In text mode it calls text (which may be nil, in which case v is printed
// with fmt's %v); otherwise v is serialized.
//
// YAML output goes through v's JSON encoding, so that types with custom MarshalJSON methods (and
// `json:` tags) look the same in both formats.
func Print(w io.Writer, format OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		bs, err := json.Marshal(v)
		if err != nil {
			return err
		}
		// JSON is YAML.  Mapping keys come out sorted.
		var doc interface{}
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return err
		}
		bs, err = yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	default:
		if text == nil {
			_, err := fmt.Fprintln(w, v)
			return err
		}
		return text(w)
	}
}

// PrintTable writes an aligned table with a header row.
func PrintTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if len(header) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
