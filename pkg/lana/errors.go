// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfig = errors.New("invalid client configuration")

	// Sentinels that an *HTTPError unwraps to, for errors.Is checks.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRequest      = errors.New("request rejected")
	ErrServer       = errors.New("server error")

	ErrBadResponse = errors.New("malformed response")
)

// maxErrorBody is how much of a response body is kept in an HTTPError.
const maxErrorBody = 512

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	Status     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrRequest
	}
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	if len(body) > maxErrorBody {
		body = append(body[:maxErrorBody:maxErrorBody], "..."...)
	}
	return &HTTPError{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// AmbiguousLogError is returned when a log name does not identify exactly one log.
type AmbiguousLogError struct {
	Name  string
	Count int
}

func (e *AmbiguousLogError) Error() string {
	return fmt.Sprintf("found %d logs with the name %q", e.Count, e.Name)
}

// Unwrap makes a lookup that found nothing match ErrNotFound.
func (e *AmbiguousLogError) Unwrap() error {
	if e.Count == 0 {
		return ErrNotFound
	}
	return nil
}
