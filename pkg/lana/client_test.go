// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lanalabs/golana/pkg/lana"
	"github.com/lanalabs/golana/pkg/lana/lanatest"
)

const testToken = "s3cr3t"

func newTestClient(t *testing.T, srv *lanatest.Server, mutate ...func(*lana.Config)) *lana.Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	cfg := lana.Config{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Token:  testToken,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := lana.New(cfg)
	require.NoError(t, err)
	return client
}

func newTestServer(t *testing.T) *lanatest.Server {
	t.Helper()
	srv := lanatest.NewServer(testToken)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewInvalidConfig(t *testing.T) {
	t.Parallel()
	testcases := map[string]lana.Config{
		"no-token":        {Host: "example.com"},
		"no-host":         {Token: "x"},
		"bad-scheme":      {Host: "example.com", Token: "x", Scheme: "ftp"},
		"relative-compat": {URL: "/just/a/path", Token: "x", Compatibility: true},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			_, err := lana.New(tcData)
			assert.ErrorIs(t, err, lana.ErrInvalidConfig)
		})
	}
}

func TestAuthorizationHeader(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Mutate        func(*lana.Config)
		Authorization string
	}
	testcases := map[string]testcase{
		"v2": {
			Mutate:        func(*lana.Config) {},
			Authorization: "API-Key " + testToken,
		},
		"compat-token": {
			Mutate:        func(cfg *lana.Config) { cfg.Compatibility = true },
			Authorization: "Bearer " + testToken,
		},
		"compat-api-key": {
			Mutate: func(cfg *lana.Config) {
				cfg.Compatibility = true
				cfg.APIKey = "legacy-key"
			},
			Authorization: "API-Key legacy-key",
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t)
			srv.Authorizations = []string{tcData.Authorization}
			client := newTestClient(t, srv, tcData.Mutate)
			_, err := client.GetUserInformation(dlog.NewTestContext(t, false))
			assert.NoError(t, err)
		})
	}
}

func TestCompatibilityURL(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	srv.Authorizations = []string{"Bearer " + testToken}
	client, err := lana.New(lana.Config{
		URL:           srv.URL + "/",
		Token:         testToken,
		Compatibility: true,
	})
	require.NoError(t, err)
	user, err := client.GetUserInformation(dlog.NewTestContext(t, false))
	require.NoError(t, err)
	assert.Equal(t, lana.ID(lanatest.UserID), user.ID)
}

func TestGetUserInformation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newTestClient(t, srv)

	user, err := client.GetUserInformation(dlog.NewTestContext(t, false))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"acceptedTerms", "apiKey", "apiKeyStatus", "backendInstanceId",
		"email", "id", "organizationId", "preferences", "role",
	}, user.Fields())
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Empty(t, user.Extra)
}

func TestGetUserInformationInvalidToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newTestClient(t, srv, func(cfg *lana.Config) { cfg.Token = "not-a-valid-token " })

	_, err := client.GetUserInformation(dlog.NewTestContext(t, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, lana.ErrUnauthorized)
	var httpErr *lana.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestUserIsCached(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newTestClient(t, srv)
	ctx := dlog.NewTestContext(t, false)

	for i := 0; i < 3; i++ {
		_, err := client.User(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"GET /api/users/by-token"}, srv.Requests())
}

func TestServerError(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newTestClient(t, srv)
	srv.FailNext(1)

	_, err := client.ListLogs(dlog.NewTestContext(t, false))
	assert.ErrorIs(t, err, lana.ErrServer)
	assert.True(t, strings.HasPrefix(err.Error(), `GET "`+srv.URL+`/api/logs" => HTTP 500`), err.Error())
}

func TestHTTPErrorUnwrap(t *testing.T) {
	t.Parallel()
	testcases := map[int]error{
		http.StatusUnauthorized:        lana.ErrUnauthorized,
		http.StatusForbidden:           lana.ErrForbidden,
		http.StatusNotFound:            lana.ErrNotFound,
		http.StatusBadRequest:          lana.ErrRequest,
		http.StatusConflict:            lana.ErrRequest,
		http.StatusInternalServerError: lana.ErrServer,
		http.StatusBadGateway:          lana.ErrServer,
	}
	for code, sentinel := range testcases {
		err := &lana.HTTPError{StatusCode: code, Status: http.StatusText(code)}
		assert.ErrorIs(t, err, sentinel, code)
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	reg := prometheus.NewPedanticRegistry()
	client := newTestClient(t, srv, func(cfg *lana.Config) { cfg.Registerer = reg })
	// A second client on the same registry must not panic or double-register.
	other := newTestClient(t, srv, func(cfg *lana.Config) { cfg.Registerer = reg })
	ctx := dlog.NewTestContext(t, false)

	_, err := client.ListLogs(ctx)
	require.NoError(t, err)
	_, err = other.ListLogs(ctx)
	require.NoError(t, err)
	srv.FailNext(1)
	_, err = client.ListLogs(ctx)
	require.Error(t, err)

	count, err := promtestutil.GatherAndCount(reg, "golana_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // {GET,200} and {GET,500}
	assert.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(`
# HELP golana_client_requests_total Requests sent to the LANA backend, by method and status code (0 for transport failures)
# TYPE golana_client_requests_total counter
golana_client_requests_total{code="200",method="GET"} 2
golana_client_requests_total{code="500",method="GET"} 1
`), "golana_client_requests_total"))
}

func TestTracing(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	client := newTestClient(t, srv, func(cfg *lana.Config) { cfg.TracerProvider = provider })

	_, err := client.ListLogs(dlog.NewTestContext(t, false))
	require.NoError(t, err)
	require.NoError(t, provider.ForceFlush(context.Background()))
	assert.Len(t, recorder.Ended(), 1)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newTestClient(t, srv, func(cfg *lana.Config) {
		cfg.RateLimit = 0.001
		cfg.RateBurst = 1
	})
	ctx, cancel := context.WithTimeout(dlog.NewTestContext(t, false), time.Second)
	defer cancel()

	_, err := client.ListLogs(ctx)
	require.NoError(t, err)
	_, err = client.ListLogs(ctx)
	assert.Error(t, err)
	assert.Len(t, srv.Requests(), 1)
}
