// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/lanalabs/golana/pkg/semantics"
)

type graphControl struct {
	SizeControl  string `json:"sizeControl"`
	ColorControl string `json:"colorControl"`
}

// eventCSVRequest is the filter sent along with an export; it asks for the whole log, with
// conformance information, and with a header row.
type eventCSVRequest struct {
	ActivityExclusionFilter []string     `json:"activityExclusionFilter"`
	IncludeHeader           bool         `json:"includeHeader"`
	IncludeLogID            bool         `json:"includeLogId"`
	LogID                   ID           `json:"logId"`
	EdgeThreshold           int          `json:"edgeThreshold"`
	TraceFilterSequence     []string     `json:"traceFilterSequence"`
	RunConformance          bool         `json:"runConformance"`
	GraphControl            graphControl `json:"graphControl"`
}

// RequestEventCSV fetches the enriched event CSV of a log.
func (c *Client) RequestEventCSV(ctx context.Context, logID ID) ([]byte, error) {
	filter, err := json.Marshal(eventCSVRequest{
		ActivityExclusionFilter: []string{},
		IncludeHeader:           true,
		IncludeLogID:            false,
		LogID:                   logID,
		EdgeThreshold:           1,
		TraceFilterSequence:     []string{},
		RunConformance:          true,
		GraphControl: graphControl{
			SizeControl:  "Frequency",
			ColorControl: "AverageDuration",
		},
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.get(ctx, "/api/eventCsvWithFilter?request="+url.QueryEscape(string(filter)))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetEventLog fetches the enriched event log as a table.  If logID is empty, the log is looked up
// by logName (see GetLogID).  All cells are strings.
func (c *Client) GetEventLog(ctx context.Context, logName string, logID ID) (*semantics.Table, error) {
	if logID == "" {
		if logName == "" {
			return nil, errors.New("get event log: neither a log name nor a log id was given")
		}
		var err error
		logID, err = c.GetLogID(ctx, logName)
		if err != nil {
			return nil, err
		}
	}
	content, err := c.RequestEventCSV(ctx, logID)
	if err != nil {
		return nil, err
	}
	table, err := semantics.ReadCSV(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("log %s: %w: %v", logID, ErrBadResponse, err)
	}
	return table, nil
}
