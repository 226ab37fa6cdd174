// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package htmlutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/lanalabs/golana/pkg/htmlutil"
)

func TestTextAndAttrs(t *testing.T) {
	t.Parallel()
	doc, err := html.Parse(strings.NewReader(
		`<html><body><a href="x" data-yanked="">pkg-<b>1.0</b>.tar.gz</a></body></html>`))
	require.NoError(t, err)

	var anchors []*html.Node
	require.NoError(t, htmlutil.VisitHTML(doc, func(node *html.Node) error {
		if node.Type == html.ElementNode && node.Data == "a" {
			anchors = append(anchors, node)
		}
		return nil
	}, nil))
	require.Len(t, anchors, 1)

	assert.Equal(t, "pkg-1.0.tar.gz", htmlutil.Text(anchors[0]))
	href, ok := htmlutil.GetAttr(anchors[0], "", "href")
	assert.True(t, ok)
	assert.Equal(t, "x", href)
	yanked, ok := htmlutil.GetAttr(anchors[0], "", "data-yanked")
	assert.True(t, ok)
	assert.Equal(t, "", yanked)
	_, ok = htmlutil.GetAttr(anchors[0], "", "class")
	assert.False(t, ok)
	_, ok = htmlutil.GetAttr(nil, "", "href")
	assert.False(t, ok)
}
