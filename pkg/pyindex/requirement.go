// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pyindex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lanalabs/golana/pkg/pep440"
)

// Requirement is a PEP 508 dependency specification, as found in a Requires-Dist header or on the
// pip command line: "NAME[EXTRA,...] SPECIFIER ; MARKER".  Direct URL references ("NAME @ URL")
// are not supported.
type Requirement struct {
	Name      string
	Extras    []string
	Specifier pep440.Specifier
	Marker    string
}

//nolint:gochecknoglobals // Would be 'const'.
var (
	reRequirementName = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	reExtraMarker     = regexp.MustCompile(`\bextra\s*==\s*["']([^"']*)["']`)
)

func ParseRequirement(str string) (*Requirement, error) {
	var ret Requirement
	rest := str
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		ret.Marker = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)

	ret.Name = reRequirementName.FindString(rest)
	if ret.Name == "" {
		return nil, fmt.Errorf("requirement %q: missing project name", str)
	}
	rest = strings.TrimSpace(rest[len(ret.Name):])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("requirement %q: unterminated extras", str)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				ret.Extras = append(ret.Extras, Normalize(extra))
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		return nil, fmt.Errorf("requirement %q: direct URL references are not supported", str)
	}
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = rest[1 : len(rest)-1]
	}
	spec, err := pep440.ParseSpecifier(rest)
	if err != nil {
		return nil, fmt.Errorf("requirement %q: %w", str, err)
	}
	ret.Specifier = spec
	return &ret, nil
}

func (r Requirement) String() string {
	var ret strings.Builder
	ret.WriteString(r.Name)
	if len(r.Extras) > 0 {
		fmt.Fprintf(&ret, "[%s]", strings.Join(r.Extras, ","))
	}
	ret.WriteString(r.Specifier.String())
	if r.Marker != "" {
		fmt.Fprintf(&ret, "; %s", r.Marker)
	}
	return ret.String()
}

// AppliesTo reports whether the requirement is needed when the requiring distribution is
// installed with the given extras.  Only `extra == "..."` markers are evaluated; requirements
// conditioned on anything else (Python version, platform) are assumed to apply.
func (r Requirement) AppliesTo(extras []string) bool {
	matches := reExtraMarker.FindAllStringSubmatch(r.Marker, -1)
	if len(matches) == 0 {
		return true
	}
	for _, match := range matches {
		for _, extra := range extras {
			if Normalize(match[1]) == Normalize(extra) {
				return true
			}
		}
	}
	return false
}
