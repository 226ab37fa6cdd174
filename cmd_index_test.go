// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanalabs/golana/pkg/cliutil"
	"github.com/lanalabs/golana/pkg/lana/lanatest"
	"github.com/lanalabs/golana/pkg/pyindex"
)

func testWheel(t *testing.T, name, version string, requires ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name + "-" + version + ".dist-info/METADATA")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, "Metadata-Version: 2.1\nName: %s\nVersion: %s\n", name, version)
	require.NoError(t, err)
	for _, req := range requires {
		_, err = fmt.Fprintf(w, "Requires-Dist: %s\n", req)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// newPackageIndex serves pylana from /test/ and its dependency from /pypi/, where /test/ also has
// a stale copy of the dependency.
func newPackageIndex(t *testing.T) (*httptest.Server, map[string][]byte) {
	t.Helper()
	files := map[string][]byte{
		"pylana-0.2.1-py3-none-any.whl":   testWheel(t, "pylana", "0.2.1", "requests>=2"),
		"requests-0.0.1-py3-none-any.whl": testWheel(t, "requests", "0.0.1"),
		"requests-2.25.1-py3-none-any.whl": testWheel(t, "requests", "2.25.1",
			`sphinx; extra == "docs"`),
	}
	pages := map[string][]string{
		"/test/pylana/":   {"pylana-0.2.1-py3-none-any.whl"},
		"/test/requests/": {"requests-0.0.1-py3-none-any.whl"},
		"/pypi/requests/": {"requests-2.25.1-py3-none-any.whl"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if content, ok := files[strings.TrimPrefix(r.URL.Path, "/files/")]; ok {
			_, _ = w.Write(content)
			return
		}
		filenames, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, "<!DOCTYPE html><html><body>")
		for _, filename := range filenames {
			sum := sha256.Sum256(files[filename])
			_, _ = fmt.Fprintf(w, `<a href="/files/%s#sha256=%s">%s</a>`,
				filename, hex.EncodeToString(sum[:]), filename)
		}
		_, _ = fmt.Fprint(w, "</body></html>")
	}))
	t.Cleanup(srv.Close)
	return srv, files
}

//nolint:paralleltest // the command tree is global
func TestIndexCheck(t *testing.T) {
	srv := lanatest.NewServer(testToken)
	defer srv.Close()
	index, _ := newPackageIndex(t)
	indexArgs := []string{
		"--index-url=" + index.URL + "/test/",
		"--extra-index-url=" + index.URL + "/pypi/",
		"--timeout=10s",
		"--python-version=",
	}

	out, err := golana(t, srv, append([]string{"--output=text", "index", "check", "--no-deps=false"},
		append(indexArgs, "pylana")...)...)
	require.NoError(t, err)
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	assert.Equal(t, [][]string{
		{"NAME", "VERSION", "INDEX", "REQUIRED-BY"},
		{"pylana", "0.2.1", index.URL + "/test/", "-"},
		{"requests", "2.25.1", index.URL + "/pypi/", "pylana", "0.2.1"},
	}, rows)

	out, err = golana(t, srv, append([]string{"--output=json", "index", "check", "--no-deps=true"},
		append(indexArgs, "requests")...)...)
	require.NoError(t, err)
	var resolutions []pyindex.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &resolutions))
	require.Len(t, resolutions, 1)
	assert.Equal(t, "2.25.1", resolutions[0].Version)
	assert.Equal(t, []string{"0.0.1", "2.25.1"}, resolutions[0].Versions)
	assert.Empty(t, resolutions[0].Dependencies)
	assert.Empty(t, srv.Requests())
}

//nolint:paralleltest // the command tree is global
func TestIndexCheckUnresolvable(t *testing.T) {
	srv := lanatest.NewServer(testToken)
	defer srv.Close()
	index, _ := newPackageIndex(t)

	out, err := golana(t, srv, "--output=json", "index", "check", "--no-deps=true", "--python-version=",
		"--index-url="+index.URL+"/test/", "--extra-index-url="+index.URL+"/pypi/",
		"pylana", "requests>=3", "pandas")
	require.Error(t, err)
	assert.ErrorIs(t, err, pyindex.ErrUnresolvable)
	assert.ErrorContains(t, err, "requests>=3")
	assert.ErrorContains(t, err, "pandas")
	var resolutions []pyindex.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &resolutions))
	require.Len(t, resolutions, 1)
	assert.Equal(t, "pylana", resolutions[0].Name)
	assert.Equal(t, cliutil.ExitError, cliutil.ExitCode(err))

	_, err = golana(t, srv, "--output=text", "index", "check", "--python-version=three", "pylana")
	assert.ErrorContains(t, err, "invalid --python-version")
	assert.Equal(t, cliutil.ExitUsage, cliutil.ExitCode(err))
}

//nolint:paralleltest // the command tree is global
func TestIndexCheckDefaults(t *testing.T) {
	cmds := argparserIndex.Commands()
	require.Len(t, cmds, 2)
	for _, cmd := range cmds {
		indexURL := cmd.Flags().Lookup("index-url")
		require.NotNil(t, indexURL, cmd.Name())
		assert.Equal(t, pyindex.TestPyPIBaseURL, indexURL.DefValue, cmd.Name())
		extra := cmd.Flags().Lookup("extra-index-url")
		require.NotNil(t, extra, cmd.Name())
		assert.Equal(t, "["+pyindex.PyPIBaseURL+"]", extra.DefValue, cmd.Name())
		assert.Equal(t, pyindex.DefaultTimeout.String(), cmd.Flags().Lookup("timeout").DefValue, cmd.Name())
	}
}

//nolint:paralleltest // the command tree is global
func TestIndexDownload(t *testing.T) {
	srv := lanatest.NewServer(testToken)
	defer srv.Close()
	index, files := newPackageIndex(t)
	indexArgs := []string{
		"--index-url=" + index.URL + "/test/",
		"--extra-index-url=" + index.URL + "/pypi/",
	}

	out, err := golana(t, srv, append(append([]string{"index", "download"}, indexArgs...),
		"requests-2.25.1-py3-none-any.whl")...)
	require.NoError(t, err)
	assert.Equal(t, files["requests-2.25.1-py3-none-any.whl"], []byte(out))

	_, err = golana(t, srv, append(append([]string{"index", "download"}, indexArgs...),
		"requests-9.9.9-py3-none-any.whl")...)
	assert.ErrorIs(t, err, pyindex.ErrUnresolvable)

	_, err = golana(t, srv, append(append([]string{"index", "download"}, indexArgs...),
		"README.md")...)
	assert.Error(t, err)
}
