// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pyindex

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"sort"
	"strings"
)

// Metadata is the part of a distribution's core metadata (the METADATA file in a wheel's
// .dist-info directory) that dependency resolution needs.
type Metadata struct {
	Name           string
	Version        string
	RequiresPython string
	RequiresDist   []string
}

// ParseMetadata parses core metadata.  The format is RFC 822 headers, optionally followed by a
// blank line and the long description, which is ignored.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	header, err := textproto.NewReader(bufio.NewReader(r)).ReadMIMEHeader()
	if err != nil && !(errors.Is(err, io.EOF) && len(header) > 0) {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	ret := &Metadata{
		Name:           header.Get("Name"),
		Version:        header.Get("Version"),
		RequiresPython: header.Get("Requires-Python"),
		RequiresDist:   header.Values("Requires-Dist"),
	}
	if ret.Name == "" || ret.Version == "" {
		return nil, errors.New("parse metadata: missing Name or Version")
	}
	return ret, nil
}

// ReadWheelMetadata reads the METADATA file out of the contents of a wheel file.
func ReadWheelMetadata(content []byte) (*Metadata, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("read wheel: %w", err)
	}
	infoDir, err := distInfoDir(zr)
	if err != nil {
		return nil, fmt.Errorf("read wheel: %w", err)
	}
	name := path.Join(infoDir, "METADATA")
	for _, file := range zr.File {
		if path.Clean(file.Name) != name {
			continue
		}
		fh, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("read wheel: %w", err)
		}
		defer fh.Close()
		return ParseMetadata(fh)
	}
	return nil, fmt.Errorf("read wheel: file does not exist in wheel zip archive: %q", name)
}

// distInfoDir returns the "{name}-{version}.dist-info" directory of a wheel.  Like pip, it insists
// that there be exactly one.
func distInfoDir(zr *zip.Reader) (string, error) {
	infoDirs := make(map[string]struct{})
	for _, file := range zr.File {
		dirname := strings.Split(path.Clean(file.Name), "/")[0]
		if strings.HasSuffix(dirname, ".dist-info") {
			infoDirs[dirname] = struct{}{}
		}
	}
	list := make([]string, 0, len(infoDirs))
	for dir := range infoDirs {
		list = append(list, dir)
	}
	sort.Strings(list)
	switch len(list) {
	case 0:
		return "", errors.New(".dist-info directory not found")
	case 1:
		return list[0], nil
	default:
		return "", fmt.Errorf("multiple .dist-info directories found: %v", list)
	}
}
