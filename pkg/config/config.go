// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads connection profiles: where the LANA backend is, and how to authenticate
// against it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"sigs.k8s.io/yaml"

	"github.com/lanalabs/golana/pkg/lana"
)

// Profile is the on-disk form of a connection profile.  Both YAML and JSON are accepted; the
// `{"scheme", "host", "port", "token"}` JSON used by PyLana's test-suite is a valid Profile.
type Profile struct {
	Scheme string `json:"scheme,omitempty"`
	Host   string `json:"host,omitempty"`
	Port   int    `json:"port,omitempty"`
	URL    string `json:"url,omitempty"`

	Token  string `json:"token,omitempty"`
	APIKey string `json:"apiKey,omitempty"`

	Compatibility      bool `json:"compatibility,omitempty"`
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`

	TimeZone  string   `json:"timeZone,omitempty"`
	RateLimit float64  `json:"rateLimit,omitempty"`
	RateBurst int      `json:"rateBurst,omitempty"`
	Timeout   Duration `json:"timeout,omitempty"`
}

// Duration is a time.Duration that (un)marshals as a string such as "90s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Duration(d).String())), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("duration must be a string: %s", data)
	}
	dur, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Load reads a profile from a file.  Unknown keys are an error.
func Load(filename string) (Profile, error) {
	var profile Profile
	bs, err := os.ReadFile(filename)
	if err != nil {
		return profile, err
	}
	if err := yaml.UnmarshalStrict(bs, &profile); err != nil {
		return profile, fmt.Errorf("%s: %w", filename, err)
	}
	return profile, nil
}

// Environment variables that override the corresponding profile fields.
const (
	EnvScheme = "LANA_SCHEME"
	EnvHost   = "LANA_HOST"
	EnvPort   = "LANA_PORT"
	EnvURL    = "LANA_URL"
	EnvToken  = "LANA_TOKEN"
	EnvAPIKey = "LANA_API_KEY"
)

// ApplyEnv overrides profile fields with any set environment variables.  getenv is usually
// os.Getenv.
func (p *Profile) ApplyEnv(getenv func(string) string) error {
	for env, field := range map[string]*string{
		EnvScheme: &p.Scheme,
		EnvHost:   &p.Host,
		EnvURL:    &p.URL,
		EnvToken:  &p.Token,
		EnvAPIKey: &p.APIKey,
	} {
		if val := getenv(env); val != "" {
			*field = val
		}
	}
	if val := getenv(EnvPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("$%s: %w", EnvPort, err)
		}
		p.Port = port
	}
	return nil
}

// ClientConfig converts the profile to a lana.Config.
func (p Profile) ClientConfig() lana.Config {
	return lana.Config{
		Scheme:             p.Scheme,
		Host:               p.Host,
		Port:               p.Port,
		URL:                p.URL,
		Token:              p.Token,
		APIKey:             p.APIKey,
		Compatibility:      p.Compatibility,
		InsecureSkipVerify: p.InsecureSkipVerify,
		TimeZone:           p.TimeZone,
		RateLimit:          rate.Limit(p.RateLimit),
		RateBurst:          p.RateBurst,
		Timeout:            time.Duration(p.Timeout),
	}
}
