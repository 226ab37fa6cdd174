// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"golang.org/x/sync/errgroup"
)

// Log is an event log as listed by the backend.
type Log struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	// Extra holds any fields other than the id and name.
	Extra map[string]json.RawMessage `json:"-"`
}

func (l *Log) UnmarshalJSON(data []byte) error {
	type plain Log
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*l = Log(p)
	l.Extra = extra
	return nil
}

func (l Log) MarshalJSON() ([]byte, error) {
	type plain Log
	return marshalWithExtra(plain(l), l.Extra)
}

// ListLogs lists all logs that are available to the user.
func (c *Client) ListLogs(ctx context.Context) ([]Log, error) {
	var logs []Log
	if err := c.getJSON(ctx, "/api/logs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListUserLogs lists the logs owned by the user.
func (c *Client) ListUserLogs(ctx context.Context) ([]Log, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}
	var logs []Log
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(user.ID.String())+"/logs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetLogIDs returns the ids of all available logs whose name is matched by the regular expression
// `contains`.  The expression is not anchored.
func (c *Client) GetLogIDs(ctx context.Context, contains string) ([]ID, error) {
	rc, err := regexp.Compile(contains)
	if err != nil {
		return nil, err
	}
	logs, err := c.ListLogs(ctx)
	if err != nil {
		return nil, err
	}
	var ids []ID
	for _, log := range logs {
		if rc.MatchString(log.Name) {
			ids = append(ids, log.ID)
		}
	}
	return ids, nil
}

// GetLogID returns the id of the log whose name matches logName.  Like GetLogIDs, logName is a
// regular expression; if it matches anything other than exactly one log, an *AmbiguousLogError is
// returned.
func (c *Client) GetLogID(ctx context.Context, logName string) (ID, error) {
	ids, err := c.GetLogIDs(ctx, logName)
	if err != nil {
		return "", err
	}
	if len(ids) != 1 {
		return "", &AmbiguousLogError{Name: logName, Count: len(ids)}
	}
	return ids[0], nil
}

// ChooseLog returns the newest (highest id) of the user's own logs that is named exactly logName.
func (c *Client) ChooseLog(ctx context.Context, logName string) (ID, error) {
	logs, err := c.ListUserLogs(ctx)
	if err != nil {
		return "", err
	}
	var best ID
	for _, log := range logs {
		if log.Name == logName && (best == "" || best.less(log.ID)) {
			best = log.ID
		}
	}
	if best == "" {
		return "", fmt.Errorf("log %q: %w", logName, ErrNotFound)
	}
	return best, nil
}

// DeleteLog deletes a log by its id.
func (c *Client) DeleteLog(ctx context.Context, logID ID) (*Response, error) {
	return c.delete(ctx, "/api/logs/"+url.PathEscape(logID.String()))
}

// DeleteResult is the outcome of deleting one log.
type DeleteResult struct {
	LogID    ID
	Response *Response
	Err      error
}

// deleteConcurrency bounds the number of DELETE requests that DeleteLogs has in flight.
const deleteConcurrency = 4

// DeleteLogs deletes every log whose name matches the regular expression `contains`.  The results
// are in the order that the backend listed the logs.  If any deletion failed, the returned error
// is a derror.MultiError of the failures; the other deletions still happen.  Once ctx is done, no
// further DELETE requests are sent.
func (c *Client) DeleteLogs(ctx context.Context, contains string) ([]DeleteResult, error) {
	ids, err := c.GetLogIDs(ctx, contains)
	if err != nil {
		return nil, err
	}

	results := make([]DeleteResult, len(ids))
	var grp errgroup.Group
	grp.SetLimit(deleteConcurrency)
	for i, id := range ids {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = DeleteResult{LogID: id, Err: fmt.Errorf("delete log %s: %w", id, err)}
				return nil
			}
			resp, err := c.DeleteLog(ctx, id)
			if err != nil {
				dlog.Warnf(ctx, "deleting log %s: %v", id, err)
			}
			results[i] = DeleteResult{LogID: id, Response: resp, Err: err}
			return nil
		})
	}
	_ = grp.Wait()

	var errs derror.MultiError
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	if len(errs) > 0 {
		return results, errs
	}
	return results, nil
}
