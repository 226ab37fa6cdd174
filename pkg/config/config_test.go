// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/lanalabs/golana/pkg/config"
	"github.com/lanalabs/golana/pkg/lana"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))
	return filename
}

func TestLoad(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Filename string
		Content  string
		Expected config.Profile
	}
	testcases := map[string]testcase{
		"pylana-json": {
			Filename: "config.json",
			Content:  `{"scheme": "https", "host": "cloud-backend.lanalabs.com", "port": 443, "token": "abc"}`,
			Expected: config.Profile{
				Scheme: "https",
				Host:   "cloud-backend.lanalabs.com",
				Port:   443,
				Token:  "abc",
			},
		},
		"yaml": {
			Filename: "profile.yaml",
			Content: "" +
				"host: lana.internal\n" +
				"token: abc\n" +
				"compatibility: true\n" +
				"apiKey: key\n" +
				"timeZone: UTC\n" +
				"rateLimit: 2.5\n" +
				"rateBurst: 5\n" +
				"timeout: 90s\n",
			Expected: config.Profile{
				Host:          "lana.internal",
				Token:         "abc",
				Compatibility: true,
				APIKey:        "key",
				TimeZone:      "UTC",
				RateLimit:     2.5,
				RateBurst:     5,
				Timeout:       config.Duration(90 * time.Second),
			},
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			profile, err := config.Load(writeFile(t, tcData.Filename, tcData.Content))
			require.NoError(t, err)
			assert.Equal(t, tcData.Expected, profile)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	_, err := config.Load(writeFile(t, "unknown.yaml", "host: x\ntokne: typo\n"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, "duration.yaml", "timeout: 90\n"))
	assert.Error(t, err)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		config.EnvHost:  "env-host",
		config.EnvPort:  "8443",
		config.EnvToken: "env-token",
	}
	profile := config.Profile{Host: "file-host", Token: "file-token", Scheme: "http"}
	require.NoError(t, profile.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, config.Profile{
		Scheme: "http",
		Host:   "env-host",
		Port:   8443,
		Token:  "env-token",
	}, profile)

	env[config.EnvPort] = "not-a-port"
	assert.Error(t, profile.ApplyEnv(func(k string) string { return env[k] }))
}

func TestClientConfig(t *testing.T) {
	t.Parallel()
	profile := config.Profile{
		Host:      "h",
		Token:     "t",
		RateLimit: 3,
		Timeout:   config.Duration(time.Minute),
	}
	assert.Equal(t, lana.Config{
		Host:      "h",
		Token:     "t",
		RateLimit: rate.Limit(3),
		Timeout:   time.Minute,
	}, profile.ClientConfig())
}
