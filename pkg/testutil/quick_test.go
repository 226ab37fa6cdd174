// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanalabs/golana/pkg/testutil"
)

//nolint:paralleltest // can't use .Parallel() with .Setenv()
func TestQuickCheckReplaysSeed(t *testing.T) {
	t.Setenv(testutil.EnvQuickSeed, "42")
	record := func() []string {
		var inputs []string
		testutil.QuickCheck(t, func(s string) bool {
			inputs = append(inputs, s)
			return true
		}, testutil.QuickConfig{MaxCount: 5},
			[]interface{}{"Case_ID"})
		return inputs
	}
	first := record()
	assert.Len(t, first, 6)
	assert.Equal(t, "Case_ID", first[0])
	assert.Equal(t, first, record())
}
