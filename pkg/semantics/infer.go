// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package semantics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names that carry a fixed meaning.
const (
	ColumnCaseID   = "Case_ID"
	ColumnAction   = "Action"
	ColumnStart    = "Start"
	ColumnComplete = "Complete"
)

// Semantic kinds understood by the backend.
const (
	KindCaseID      = "Case ID"
	KindAction      = "Action"
	KindStart       = "Start"
	KindComplete    = "Complete"
	KindNumeric     = "NumericAttribute"
	KindCategorical = "CategorialAttribute"
)

var (
	ErrEmptyTable    = errors.New("table has no header")
	ErrMissingColumn = errors.New("missing required column")
	ErrRaggedRow     = errors.New("row width does not match header")
)

// Semantic describes how the backend should interpret one column of an uploaded CSV file.
type Semantic struct {
	Name     string `json:"name"`
	Semantic string `json:"semantic"`
	Format   string `json:"format,omitempty"`
	Idx      int    `json:"idx"`
}

// InferEventSemantics derives the semantics of an event table from its column names and contents.
//
// The table must have Case_ID and Action columns and at least one of Start or Complete.  The
// timestamp columns are annotated with timeFormat, which is passed to the backend verbatim (it uses
// Java SimpleDateFormat patterns, e.g. "yyyy-MM-dd HH:mm:ss").
func InferEventSemantics(t *Table, timeFormat string) ([]Semantic, error) {
	if err := requireColumns(t, ColumnCaseID, ColumnAction); err != nil {
		return nil, err
	}
	if t.ColumnIndex(ColumnStart) < 0 && t.ColumnIndex(ColumnComplete) < 0 {
		return nil, fmt.Errorf("%w: %s or %s", ErrMissingColumn, ColumnStart, ColumnComplete)
	}

	ret := make([]Semantic, 0, len(t.Header))
	for idx, name := range t.Header {
		sem := Semantic{Name: name, Idx: idx}
		switch name {
		case ColumnCaseID:
			sem.Semantic = KindCaseID
		case ColumnAction:
			sem.Semantic = KindAction
		case ColumnStart:
			sem.Semantic = KindStart
			sem.Format = timeFormat
		case ColumnComplete:
			sem.Semantic = KindComplete
			sem.Format = timeFormat
		default:
			sem.Semantic = attributeKind(t, idx)
		}
		ret = append(ret, sem)
	}
	return ret, nil
}

// InferCaseSemantics derives the semantics of a case-attribute table.  The table must have a
// Case_ID column; every other column is an attribute.
func InferCaseSemantics(t *Table) ([]Semantic, error) {
	if err := requireColumns(t, ColumnCaseID); err != nil {
		return nil, err
	}
	ret := make([]Semantic, 0, len(t.Header))
	for idx, name := range t.Header {
		sem := Semantic{Name: name, Idx: idx}
		if name == ColumnCaseID {
			sem.Semantic = KindCaseID
		} else {
			sem.Semantic = attributeKind(t, idx)
		}
		ret = append(ret, sem)
	}
	return ret, nil
}

func requireColumns(t *Table, names ...string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	var missing []string
	for _, name := range names {
		if t.ColumnIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func attributeKind(t *Table, idx int) string {
	if isNumericColumn(t, idx) {
		return KindNumeric
	}
	return KindCategorical
}

// isNumericColumn reports whether every non-empty cell of the column is a number, and there is at
// least one such cell.
func isNumericColumn(t *Table, idx int) bool {
	seen := false
	for _, row := range t.Rows {
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		if !IsNumber(cell) {
			return false
		}
		seen = true
	}
	return seen
}

// IsNumber reports whether s is a finite decimal number.
func IsNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	// ParseFloat accepts "NaN" and "Inf"; pandas reads those as strings.
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
