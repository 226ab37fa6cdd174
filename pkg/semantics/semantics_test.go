// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package semantics_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanalabs/golana/pkg/semantics"
	"github.com/lanalabs/golana/pkg/testutil"
)

const eventsCSV = `Case_ID,Action,Start,Complete,Cost,Resource
1,Register,2021-01-01 10:00:00,2021-01-01 10:05:00,12.5,Alice
1,Approve,2021-01-01 11:00:00,2021-01-01 11:30:00,,Bob
2,Register,2021-01-02 09:00:00,2021-01-02 09:10:00,7,Alice
`

func mustRead(t *testing.T, str string) *semantics.Table {
	t.Helper()
	table, err := semantics.ReadCSV(strings.NewReader(str))
	require.NoError(t, err)
	return table
}

func TestInferEventSemantics(t *testing.T) {
	t.Parallel()
	table := mustRead(t, eventsCSV)

	sems, err := semantics.InferEventSemantics(table, "yyyy-MM-dd HH:mm:ss")
	require.NoError(t, err)

	exp := []semantics.Semantic{
		{Name: "Case_ID", Semantic: semantics.KindCaseID, Idx: 0},
		{Name: "Action", Semantic: semantics.KindAction, Idx: 1},
		{Name: "Start", Semantic: semantics.KindStart, Format: "yyyy-MM-dd HH:mm:ss", Idx: 2},
		{Name: "Complete", Semantic: semantics.KindComplete, Format: "yyyy-MM-dd HH:mm:ss", Idx: 3},
		{Name: "Cost", Semantic: semantics.KindNumeric, Idx: 4},
		{Name: "Resource", Semantic: semantics.KindCategorical, Idx: 5},
	}
	if diff := cmp.Diff(exp, sems); diff != "" {
		t.Errorf("semantics mismatch (-want +got):\n%s", diff)
	}
}

func TestInferEventSemanticsMissingColumns(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"no-case-id":    "Action,Start\nA,2021\n",
		"no-action":     "Case_ID,Start\n1,2021\n",
		"no-timestamps": "Case_ID,Action\n1,A\n",
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			_, err := semantics.InferEventSemantics(mustRead(t, tcData), "yyyy")
			assert.ErrorIs(t, err, semantics.ErrMissingColumn)
		})
	}
}

func TestInferCaseSemantics(t *testing.T) {
	t.Parallel()
	table := mustRead(t, "Case_ID,Amount,Region\n1,100,North\n2,,South\n")

	sems, err := semantics.InferCaseSemantics(table)
	require.NoError(t, err)
	assert.Equal(t, []semantics.Semantic{
		{Name: "Case_ID", Semantic: semantics.KindCaseID, Idx: 0},
		{Name: "Amount", Semantic: semantics.KindNumeric, Idx: 1},
		{Name: "Region", Semantic: semantics.KindCategorical, Idx: 2},
	}, sems)

	_, err = semantics.InferCaseSemantics(mustRead(t, "Amount\n1\n"))
	assert.ErrorIs(t, err, semantics.ErrMissingColumn)
}

func TestEmptyColumnIsCategorical(t *testing.T) {
	t.Parallel()
	table := mustRead(t, "Case_ID,Note\n1,\n2,\n")
	sems, err := semantics.InferCaseSemantics(table)
	require.NoError(t, err)
	assert.Equal(t, semantics.KindCategorical, sems[1].Semantic)
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()
	_, err := semantics.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, semantics.ErrEmptyTable)

	_, err = semantics.ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestRaggedTable(t *testing.T) {
	t.Parallel()
	short := &semantics.Table{
		Header: []string{"Case_ID", "Action", "Start", "Cost"},
		Rows:   [][]string{{"c1", "a", "x"}},
	}
	_, err := semantics.InferEventSemantics(short, "")
	assert.ErrorIs(t, err, semantics.ErrRaggedRow)
	assert.ErrorContains(t, err, "row 1 has 3 fields, header has 4")

	long := &semantics.Table{
		Header: []string{"Case_ID"},
		Rows:   [][]string{{"c1"}, {"c2", "extra"}},
	}
	_, err = semantics.InferCaseSemantics(long)
	assert.ErrorIs(t, err, semantics.ErrRaggedRow)

	var missing *semantics.Table
	assert.ErrorIs(t, missing.Validate(), semantics.ErrEmptyTable)
	assert.NoError(t, mustRead(t, eventsCSV).Validate())
}

func TestTableRoundTrip(t *testing.T) {
	t.Parallel()
	table := mustRead(t, eventsCSV)
	out, err := table.CSV()
	require.NoError(t, err)
	testutil.AssertEqualText(t, eventsCSV, string(out))

	costs, ok := table.Column("Cost")
	require.True(t, ok)
	assert.Equal(t, []string{"12.5", "", "7"}, costs)
	_, ok = table.Column("Nope")
	assert.False(t, ok)
}

func TestIsNumber(t *testing.T) {
	t.Parallel()
	testutil.QuickCheck(t, func(f float64) bool {
		return semantics.IsNumber(strconv.FormatFloat(f, 'g', -1, 64))
	}, testutil.QuickConfig{})
	testutil.QuickCheck(t, func(i int64) bool {
		return semantics.IsNumber(strconv.FormatInt(i, 10))
	}, testutil.QuickConfig{},
		[]interface{}{int64(0)},
		[]interface{}{int64(-1)})

	for _, str := range []string{"", "abc", "NaN", "Inf", "-inf", "1,5", "12a"} {
		assert.False(t, semantics.IsNumber(str), str)
	}
}
