// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package pyindex is a client for Python package indexes that speak the PyPA simple repository
// API (PEP 503, versioned per PEP 629, with PEP 592 yank markers).  It is used to check that a
// release can be installed the way the contributor guide says, i.e. with
//
//	pip install -i https://test.pypi.org/simple/ --extra-index-url https://pypi.org/simple/ NAME
//
// https://packaging.python.org/specifications/simple-repository-api/
package pyindex

import (
	"bytes"
	"context"
	"crypto/md5"  //nolint:gosec // index hashes, not security
	"crypto/sha1" //nolint:gosec // index hashes, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"

	"github.com/lanalabs/golana/pkg/htmlutil"
)

const (
	PyPIBaseURL     = "https://pypi.org/simple/"
	TestPyPIBaseURL = "https://test.pypi.org/simple/"

	// DefaultTimeout bounds each request, including wheel downloads.
	DefaultTimeout = 2 * time.Minute
)

// NewHTTPClient returns an HTTP client with the given overall request timeout (DefaultTimeout if
// zero), traced with OpenTelemetry.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()),
		Timeout:   timeout,
	}
}

//nolint:gochecknoglobals // shared so that connections are reused
var defaultHTTPClient = NewHTTPClient(0)

// Client talks to a single simple-repository index.  The zero value talks to PyPI.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = defaultHTTPClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/lanalabs/golana/pkg/pyindex"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

//nolint:gochecknoglobals // Would be 'const'.
var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// verifyFragment checks content against a "#sha256=..."-style URL fragment.  Unknown hash names
// are ignored.
func verifyFragment(fragment string, content []byte) error {
	keyvals, err := url.ParseQuery(fragment)
	if err != nil {
		return nil //nolint:nilerr // not a hash fragment
	}
	for key, vals := range keyvals {
		newHash, ok := hashes[key]
		if !ok {
			continue
		}
		h := newHash()
		_, _ = h.Write(content)
		sum := hex.EncodeToString(h.Sum(nil))
		for _, val := range vals {
			if !strings.EqualFold(sum, val) {
				return fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s", key, val, sum)
			}
		}
	}
	return nil
}

func (c Client) get(ctx context.Context, requestURL string) (_ *url.URL, _ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	// 2. Do the networking
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, nil, err
	}

	// 3. Validate the result
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if err := verifyFragment(u.Fragment, content); err != nil {
			return nil, nil, err
		}
	}

	return resp.Request.URL, content, nil
}

// Link is an anchor in an index page.
type Link struct {
	Text      string
	HRef      string
	DataAttrs map[string]string
}

func (c Client) getHTML5Index(ctx context.Context, requestURL string) ([]Link, error) {
	location, content, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	if err := checkRepositoryVersion(ctx, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", requestURL, err)
	}

	var links []Link
	if err := htmlutil.VisitHTML(doc, nil, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
			Text:      htmlutil.Text(node),
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				href, err := location.Parse(attr.Val)
				if err != nil {
					return err
				}
				link.HRef = href.String()
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		links = append(links, link)
		return nil
	}); err != nil {
		return nil, err
	}

	return links, nil
}

// FileLink is a downloadable distribution file listed by an index.
type FileLink struct {
	client Client
	Link
}

// Yanked reports whether the file carries a PEP 592 yank marker.
func (l FileLink) Yanked() bool {
	_, yanked := l.DataAttrs["data-yanked"]
	return yanked
}

// RequiresPython returns the file's Requires-Python specifier, if the index sent one.
func (l FileLink) RequiresPython() string {
	return l.DataAttrs["data-requires-python"]
}

// Get downloads the file, verifying the hash in the link (if any).
func (l FileLink) Get(ctx context.Context) ([]byte, error) {
	_, content, err := l.client.get(ctx, l.HRef)
	return content, err
}

// metadataAttr returns the PEP 658 attribute saying that the index serves the file's metadata
// separately; PEP 714 renamed it.
func (l FileLink) metadataAttr() (string, bool) {
	for _, key := range []string{"data-core-metadata", "data-dist-info-metadata"} {
		if val, ok := l.DataAttrs[key]; ok && val != "false" {
			return val, true
		}
	}
	return "", false
}

// Metadata returns the core metadata of a wheel.  If the index serves the metadata on its own
// (PEP 658) only that is fetched; otherwise the whole wheel is downloaded.
func (l FileLink) Metadata(ctx context.Context) (*Metadata, error) {
	if val, ok := l.metadataAttr(); ok {
		u, err := url.Parse(l.HRef)
		if err != nil {
			return nil, err
		}
		u.Path += ".metadata"
		u.RawPath = ""
		u.Fragment = ""
		if val != "true" && val != "" {
			u.Fragment = val
		}
		_, content, err := l.client.get(ctx, u.String())
		if err != nil {
			return nil, err
		}
		return ParseMetadata(bytes.NewReader(content))
	}
	content, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ReadWheelMetadata(content)
}

//nolint:gochecknoglobals // Would be 'const'.
var reSeparators = regexp.MustCompile(`[-_.]+`)

// Normalize returns the PEP 503 normalized form of a project name.
func Normalize(name string) string {
	return strings.ToLower(reSeparators.ReplaceAllLiteralString(name, "-"))
}

// ValidateName checks that a project name only uses the characters that PEP 503 allows.
func ValidateName(pkgname string) error {
	if pkgname == "" {
		return errors.New("empty pkgname")
	}
	// "the only valid characters in a name are the ASCII alphabet, ASCII numbers, `.`, `-`, and
	// `_`."
	for _, char := range pkgname {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return fmt.Errorf("illegal character in pkgname: %q: %s",
				pkgname, strconv.QuoteRuneToASCII(char))
		}
	}
	return nil
}

// ListPackageFiles lists the distribution files of a project.
func (c Client) ListPackageFiles(ctx context.Context, pkgname string) ([]FileLink, error) {
	if err := ValidateName(pkgname); err != nil {
		return nil, err
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	// The trailing slash is canonical; PyPI redirects without it.
	u.Path = path.Join(u.Path, Normalize(pkgname)) + "/"
	rawLinks, err := c.getHTML5Index(ctx, u.String())
	if err != nil {
		return nil, err
	}
	links := make([]FileLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		links = append(links, FileLink{
			client: c,
			Link:   link,
		})
	}
	return links, nil
}
