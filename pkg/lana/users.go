// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package lana

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
)

// ID is a backend identifier.  The backend is inconsistent about sending ids as strings or as
// numbers; both decode to an ID.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*id = ID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*id = ID(num.String())
	return nil
}

func (id ID) String() string { return string(id) }

// less orders ids numerically when both are numbers, and lexically otherwise.
func (id ID) less(other ID) bool {
	a, aErr := strconv.ParseInt(string(id), 10, 64)
	b, bErr := strconv.ParseInt(string(other), 10, 64)
	if aErr == nil && bErr == nil {
		return a < b
	}
	return id < other
}

// UserInfo is the user that a token belongs to.
type UserInfo struct {
	ID                ID              `json:"id"`
	OrganizationID    ID              `json:"organizationId"`
	Email             string          `json:"email"`
	Role              string          `json:"role"`
	APIKey            string          `json:"apiKey"`
	APIKeyStatus      string          `json:"apiKeyStatus"`
	BackendInstanceID string          `json:"backendInstanceId"`
	AcceptedTerms     json.RawMessage `json:"acceptedTerms,omitempty"`
	Preferences       json.RawMessage `json:"preferences,omitempty"`

	// Extra holds any fields not listed above.
	Extra map[string]json.RawMessage `json:"-"`

	fields []string
}

func (u *UserInfo) UnmarshalJSON(data []byte) error {
	type plain UserInfo
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*u = UserInfo(p)
	u.Extra = extra
	u.fields = make([]string, 0, len(all))
	for k := range all {
		u.fields = append(u.fields, k)
	}
	sort.Strings(u.fields)
	return nil
}

func (u UserInfo) MarshalJSON() ([]byte, error) {
	type plain UserInfo
	return marshalWithExtra(plain(u), u.Extra)
}

// Fields returns the names of every field the backend sent, sorted.
func (u *UserInfo) Fields() []string {
	return append([]string(nil), u.fields...)
}

// GetUserInformation fetches the user that the client's credentials belong to.
func (c *Client) GetUserInformation(ctx context.Context) (*UserInfo, error) {
	var user UserInfo
	if err := c.getJSON(ctx, "/api/users/by-token", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// User is like GetUserInformation, but only asks the backend once per client.
func (c *Client) User(ctx context.Context) (*UserInfo, error) {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	if c.user != nil {
		return c.user, nil
	}
	user, err := c.GetUserInformation(ctx)
	if err != nil {
		return nil, err
	}
	c.user = user
	return user, nil
}

// decodeWithExtra decodes data in to v (which must not have an UnmarshalJSON method), and returns
// the top-level object members that v has no field for.
func decodeWithExtra(data []byte, v interface{}) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var knownKeys map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownKeys); err != nil {
		return nil, err
	}
	for k := range knownKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func marshalWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	known, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return known, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(known, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, conflict := all[k]; !conflict {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
