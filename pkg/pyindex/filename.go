// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pyindex

import (
	"fmt"
	"regexp"
	"strings"
)

// FileKind distinguishes built distributions from source distributions.
type FileKind string

const (
	KindWheel FileKind = "wheel"
	KindSdist FileKind = "sdist"
)

// Filename is the information encoded in a distribution filename.
type Filename struct {
	Kind         FileKind
	Distribution string
	Version      string
}

//nolint:gochecknoglobals // Would be 'const'.
var (
	reWheelFilename = regexp.MustCompile(regexp.MustCompile(`\s+`).ReplaceAllString(`
		^(?P<distribution>[^-]+)
		-(?P<version>[^-]+)
		(?:-[0-9][^-]*)?
		-[^-]+
		-[^-]+
		-[^-]+
		\.whl$`, ``))
	reSdistFilename = regexp.MustCompile(`^(?P<distribution>.+)-(?P<version>[0-9][^-]*)\.(?:tar\.gz|zip|tar\.bz2)$`)
)

// ParseFilename parses a wheel ("NAME-VERSION[-BUILD]-PY-ABI-PLATFORM.whl") or sdist
// ("NAME-VERSION.tar.gz") filename.
func ParseFilename(filename string) (*Filename, error) {
	if match := reWheelFilename.FindStringSubmatch(filename); match != nil {
		return &Filename{
			Kind:         KindWheel,
			Distribution: match[reWheelFilename.SubexpIndex("distribution")],
			Version:      match[reWheelFilename.SubexpIndex("version")],
		}, nil
	}
	if match := reSdistFilename.FindStringSubmatch(filename); match != nil {
		return &Filename{
			Kind:         KindSdist,
			Distribution: match[reSdistFilename.SubexpIndex("distribution")],
			Version:      match[reSdistFilename.SubexpIndex("version")],
		}, nil
	}
	return nil, fmt.Errorf("not a wheel or sdist filename: %q", filename)
}

// Matches reports whether the file is a distribution of the named project.
func (f Filename) Matches(pkgname string) bool {
	return Normalize(f.Distribution) == Normalize(pkgname)
}

func (f Filename) String() string {
	return strings.Join([]string{f.Distribution, f.Version, string(f.Kind)}, " ")
}
