// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lanalabs/golana/pkg/semantics"
)

// DefaultStreamPrefix prefixes the generated names of logs uploaded by UploadEventLogStream.
const DefaultStreamPrefix = "golana-"

// Semantics are passed to the backend as JSON text.  A value that is already text (a string,
// []byte or json.RawMessage) is sent verbatim; anything else (e.g. []semantics.Semantic) is
// JSON-encoded.
type Semantics interface{}

func prepareSemantics(sem Semantics) (string, error) {
	switch sem := sem.(type) {
	case string:
		return sem, nil
	case []byte:
		return string(sem), nil
	case json.RawMessage:
		return string(sem), nil
	default:
		bs, err := json.Marshal(sem)
		if err != nil {
			return "", fmt.Errorf("encode semantics: %w", err)
		}
		return string(bs), nil
	}
}

// isEmptySemantics reports whether sem has nothing to send.  A typed nil counts as empty.
func isEmptySemantics(sem Semantics) bool {
	switch sem := sem.(type) {
	case nil:
		return true
	case string:
		return sem == ""
	case []byte:
		return len(sem) == 0
	case json.RawMessage:
		return len(sem) == 0
	case []semantics.Semantic:
		return len(sem) == 0
	default:
		return false
	}
}

// EventLogUpload is a new event log, optionally with case attributes.
type EventLogUpload struct {
	Name           string
	Events         io.Reader
	EventSemantics Semantics

	// CaseAttributes and CaseSemantics are each optional.
	CaseAttributes io.Reader
	CaseSemantics  Semantics
}

// UploadEventLog uploads an event log with prepared semantics.
func (c *Client) UploadEventLog(ctx context.Context, up EventLogUpload) (*Response, error) {
	if up.Events == nil {
		return nil, fmt.Errorf("upload %q: no events", up.Name)
	}
	form := newForm()
	form.file("eventCSVFile", up.Name, up.Events)
	if up.CaseAttributes != nil {
		form.file("caseAttributeFile", up.Name+"_case_attributes", up.CaseAttributes)
	}
	form.semantics("eventSemantics", up.EventSemantics)
	form.field("logName", up.Name)
	form.field("timeZone", c.timeZone)
	if !isEmptySemantics(up.CaseSemantics) {
		form.semantics("caseSemantics", up.CaseSemantics)
	}
	return c.postForm(ctx, "/api/logs/csv-case-attributes-event-semantics", form)
}

// UploadEventLogStream is UploadEventLog for callers that have no name for the log; the log is
// named prefix followed by a random UUID.  The streams are read but not closed.
func (c *Client) UploadEventLogStream(ctx context.Context,
	events io.Reader, eventSemantics Semantics,
	cases io.Reader, caseSemantics Semantics,
	prefix string,
) (*Response, error) {
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	return c.UploadEventLog(ctx, EventLogUpload{
		Name:           prefix + uuid.NewString(),
		Events:         events,
		EventSemantics: eventSemantics,
		CaseAttributes: cases,
		CaseSemantics:  caseSemantics,
	})
}

// UploadEventLogTable uploads an event table, and optionally a case-attribute table, inferring
// the semantics of both from their columns.  See semantics.InferEventSemantics for the meaning of
// timeFormat.
func (c *Client) UploadEventLogTable(ctx context.Context, name string,
	events, cases *semantics.Table, timeFormat string,
) (*Response, error) {
	eventSems, err := semantics.InferEventSemantics(events, timeFormat)
	if err != nil {
		return nil, fmt.Errorf("upload %q: events: %w", name, err)
	}
	eventCSV, err := events.CSV()
	if err != nil {
		return nil, err
	}
	up := EventLogUpload{
		Name:           name,
		Events:         bytes.NewReader(eventCSV),
		EventSemantics: eventSems,
	}
	if cases != nil {
		caseSems, err := semantics.InferCaseSemantics(cases)
		if err != nil {
			return nil, fmt.Errorf("upload %q: cases: %w", name, err)
		}
		caseCSV, err := cases.CSV()
		if err != nil {
			return nil, err
		}
		up.CaseAttributes = bytes.NewReader(caseCSV)
		up.CaseSemantics = caseSems
	}
	return c.UploadEventLog(ctx, up)
}

// AppendEvents appends events to an existing log.
func (c *Client) AppendEvents(ctx context.Context, logID ID,
	events io.Reader, eventSemantics Semantics,
) (*Response, error) {
	form := newForm()
	form.file("eventCSVFile", "event-file", events)
	form.semantics("eventSemantics", eventSemantics)
	return c.postForm(ctx, "/api/logs/"+url.PathEscape(logID.String())+"/csv", form)
}

// AppendEventsTable appends events to an existing log, inferring their semantics.
func (c *Client) AppendEventsTable(ctx context.Context, logID ID,
	events *semantics.Table, timeFormat string,
) (*Response, error) {
	sems, err := semantics.InferEventSemantics(events, timeFormat)
	if err != nil {
		return nil, fmt.Errorf("append to %s: %w", logID, err)
	}
	eventCSV, err := events.CSV()
	if err != nil {
		return nil, err
	}
	return c.AppendEvents(ctx, logID, bytes.NewReader(eventCSV), sems)
}

// AppendAttributes adds case attributes to an existing log.
func (c *Client) AppendAttributes(ctx context.Context, logID ID,
	cases io.Reader, caseSemantics Semantics,
) (*Response, error) {
	form := newForm()
	form.file("caseAttributeFile", "case-attribute-file", cases)
	form.semantics("caseSemantics", caseSemantics)
	return c.postForm(ctx, "/api/logs/"+url.PathEscape(logID.String())+"/csv-case-attributes", form)
}

// LogFiles names the files of an event log on disk.  The semantics files hold JSON.
type LogFiles struct {
	Events         string
	EventSemantics string

	// CaseAttributes and CaseSemantics must be given together, or not at all.
	CaseAttributes string
	CaseSemantics  string

	// LogName is optional; the backend names the log after the events file if it is empty.
	LogName string
}

// UploadEventLogFiles uploads an event log from files.  Unnamed logs without case attributes go
// to the plain CSV endpoint; everything else goes to the same endpoint as UploadEventLog.
func (c *Client) UploadEventLogFiles(ctx context.Context, files LogFiles) (*Response, error) {
	if (files.CaseAttributes == "") != (files.CaseSemantics == "") {
		return nil, fmt.Errorf("case attributes and case semantics must be given together")
	}
	eventSems, err := os.ReadFile(files.EventSemantics)
	if err != nil {
		return nil, err
	}
	events, err := os.Open(files.Events)
	if err != nil {
		return nil, err
	}
	defer events.Close()

	form := newForm()
	if files.CaseAttributes == "" && files.LogName == "" {
		form.file("file", filepath.Base(files.Events), events)
		form.field("eventSemantics", string(eventSems))
		return c.postForm(ctx, "/api/logs/csv", form)
	}

	form.file("eventCSVFile", filepath.Base(files.Events), events)
	form.field("eventSemantics", string(eventSems))
	if files.CaseAttributes != "" {
		caseSems, err := os.ReadFile(files.CaseSemantics)
		if err != nil {
			return nil, err
		}
		cases, err := os.Open(files.CaseAttributes)
		if err != nil {
			return nil, err
		}
		defer cases.Close()
		form.file("caseAttributeFile", filepath.Base(files.CaseAttributes), cases)
		form.field("caseSemantics", string(caseSems))
	}
	if files.LogName != "" {
		form.field("logName", files.LogName)
	}
	form.field("timeZone", c.timeZone)
	return c.postForm(ctx, "/api/logs/csv-case-attributes-event-semantics", form)
}

// form accumulates a multipart/form-data body.  The first error sticks, and is reported by
// postForm.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

//nolint:gochecknoglobals // Would be 'const'.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (f *form) file(fieldname, filename string, content io.Reader) {
	if f.err != nil {
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldname), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", "text/csv")
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	if _, err := io.Copy(part, content); err != nil {
		f.err = fmt.Errorf("%s: %w", fieldname, err)
	}
}

func (f *form) field(fieldname, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(fieldname, value)
}

func (f *form) semantics(fieldname string, sem Semantics) {
	if f.err != nil {
		return
	}
	str, err := prepareSemantics(sem)
	if err != nil {
		f.err = fmt.Errorf("%s: %w", fieldname, err)
		return
	}
	f.field(fieldname, str)
}

func (c *Client) postForm(ctx context.Context, path string, f *form) (*Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        &f.buf,
		contentType: f.w.FormDataContentType(),
	})
}
