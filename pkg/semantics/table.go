// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package semantics deals with the tabular event and case data that LANA ingests, and with the
// column "semantics" that tell the backend how to interpret each column.
package semantics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// A Table is a CSV file held in memory.  Every cell is kept as a string; the backend does its own
// typing based on the semantics that accompany the table.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV reads a complete CSV file whose first record is the header.  Every record must have the
// same number of fields as the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // the header sets the width
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: %w", ErrEmptyTable)
	}
	return &Table{
		Header: records[0],
		Rows:   records[1:],
	}, nil
}

// Validate checks that the table has a header and that every row is as wide as it.  ReadCSV only
// returns valid tables, but a Table built by hand may not be.
func (t *Table) Validate() error {
	if t == nil || len(t.Header) == 0 {
		return ErrEmptyTable
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d fields, header has %d",
				ErrRaggedRow, i+1, len(row), len(t.Header))
		}
	}
	return nil
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values in the named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	ret := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		ret = append(ret, row[idx])
	}
	return ret, true
}

// WriteCSV writes the table, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// CSV returns the table serialized as CSV.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
