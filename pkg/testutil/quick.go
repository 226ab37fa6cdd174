// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"reflect"
	"strconv"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
)

type QuickConfig = quick.Config

// EnvQuickSeed replays the random inputs of an earlier QuickCheck run.
const EnvQuickSeed = "GOLANA_QUICKCHECK_SEED"

// QuickCheck checks that fn returns true, first for each of the static testcases (the inputs
// that have broken it before, in order) and then for random inputs as testing/quick.Check does.
// Unless cfg has its own Rand, the seed is logged, and setting $GOLANA_QUICKCHECK_SEED to it
// replays the same inputs.
func QuickCheck(t *testing.T, fn interface{}, cfg QuickConfig, testcases ...[]interface{}) {
	t.Helper()
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func || fnVal.Type().NumOut() != 1 || fnVal.Type().Out(0).Kind() != reflect.Bool {
		t.Fatalf("QuickCheck: %T is not a func returning bool", fn)
	}

	for i, tc := range testcases {
		if len(tc) != fnVal.Type().NumIn() {
			t.Errorf("static#%d has %d args, but the function takes %d args",
				i, len(tc), fnVal.Type().NumIn())
			continue
		}
		args := make([]reflect.Value, len(tc))
		for j := range args {
			args[j] = reflect.ValueOf(tc[j])
		}
		if !fnVal.Call(args)[0].Bool() {
			assert.NoError(t, fmt.Errorf("static%w", &quick.CheckError{
				Count: i + 1,
				In:    tc,
			}))
		}
	}

	if cfg.Rand == nil {
		seed := time.Now().UnixNano()
		if str := os.Getenv(EnvQuickSeed); str != "" {
			var err error
			if seed, err = strconv.ParseInt(str, 10, 64); err != nil {
				t.Fatalf("$%s: %v", EnvQuickSeed, err)
			}
		}
		t.Logf("%s=%d", EnvQuickSeed, seed)
		cfg.Rand = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible on purpose
	}
	err := quick.Check(fn, &cfg)
	var setupErr quick.SetupError
	if errors.As(err, &setupErr) {
		t.Fatalf("QuickCheck: %v", err)
	}
	assert.NoError(t, err)
}
