// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pyindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/datawire/dlib/dlog"
	"golang.org/x/net/html"

	"github.com/lanalabs/golana/pkg/htmlutil"
)

// RepositoryVersion is a PEP 629 "pypi:repository-version".
type RepositoryVersion struct {
	Major, Minor int
}

func (v RepositoryVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

//nolint:gochecknoglobals // Would be 'const'.
var SupportedRepositoryVersion = RepositoryVersion{Major: 1, Minor: 0}

// ParseRepositoryVersion parses a "MAJOR.MINOR" version.
func ParseRepositoryVersion(str string) (RepositoryVersion, error) {
	majorStr, minorStr, ok := strings.Cut(str, ".")
	if !ok {
		return RepositoryVersion{}, fmt.Errorf("invalid repository version %q", str)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return RepositoryVersion{}, fmt.Errorf("invalid repository version %q: %w", str, err)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return RepositoryVersion{}, fmt.Errorf("invalid repository version %q: %w", str, err)
	}
	return RepositoryVersion{Major: major, Minor: minor}, nil
}

// GetRepositoryVersion reads the version from an index page; pages that do not declare one are
// version 1.0.
func GetRepositoryVersion(doc *html.Node) (RepositoryVersion, error) {
	// <meta name="pypi:repository-version" content="1.0">
	var verStr string
	err := htmlutil.VisitHTML(doc, nil, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "meta" {
			return nil
		}
		name, _ := htmlutil.GetAttr(node, "", "name")
		if name != "pypi:repository-version" {
			return nil
		}
		if content, ok := htmlutil.GetAttr(node, "", "content"); ok {
			verStr = content
		}
		return nil
	})
	if err != nil {
		return RepositoryVersion{}, err
	}
	if verStr == "" {
		return RepositoryVersion{Major: 1, Minor: 0}, nil
	}
	return ParseRepositoryVersion(verStr)
}

func checkRepositoryVersion(ctx context.Context, doc *html.Node) error {
	version, err := GetRepositoryVersion(doc)
	if err != nil {
		return err
	}
	if version.Major > SupportedRepositoryVersion.Major {
		return fmt.Errorf("server's pypi:repository-version (%s) is not compatible with this client", version)
	}
	if version.Major == SupportedRepositoryVersion.Major && version.Minor > SupportedRepositoryVersion.Minor {
		dlog.Warnf(ctx, "server's pypi:repository-version (%s) is newer than this client", version)
	}
	return nil
}
