// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pyindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"

	"github.com/lanalabs/golana/pkg/pep440"
)

var ErrUnresolvable = errors.New("not available from any index")

// MultiIndex is the set of indexes that pip consults given `-i INDEX --extra-index-url EXTRA...`.
type MultiIndex struct {
	Index        Client
	ExtraIndexes []Client

	// PythonVersion, if set, excludes files whose Requires-Python it does not satisfy.
	PythonVersion *pep440.Version

	// NoDeps makes Check resolve only the requirements it is given, like `pip install --no-deps`.
	NoDeps bool
}

func (m MultiIndex) all() []Client {
	return append([]Client{m.Index}, m.ExtraIndexes...)
}

// Candidate is a file that one of the indexes offers.
type Candidate struct {
	Index string
	File  FileLink
}

// Locate lists every file for pkgname, from every index, primary index first.  An index that does
// not know the project at all (HTTP 404) contributes nothing; any other failure is an error.
func (m MultiIndex) Locate(ctx context.Context, pkgname string) ([]Candidate, error) {
	var ret []Candidate
	for _, index := range m.all() {
		index.fillDefaults()
		files, err := index.ListPackageFiles(ctx, pkgname)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
				dlog.Debugf(ctx, "%s: %s is not on this index", index.BaseURL, pkgname)
				continue
			}
			return nil, err
		}
		for _, file := range files {
			ret = append(ret, Candidate{Index: index.BaseURL, File: file})
		}
	}
	return ret, nil
}

// Resolution is the release that pip would pick for a requirement, and where it would get it.
type Resolution struct {
	Name        string
	Requirement string
	RequiredBy  string `json:",omitempty"`

	Version string
	Index   string
	// Files are the files of Version on Index.
	Files []string

	// Versions lists every installable version, from all indexes, in ascending order.
	Versions []string
	Yanked   []string `json:",omitempty"`

	// Dependencies are the Requires-Dist entries of Version that apply, or nil if NoDeps was set
	// or Version has no wheel to read them from.
	Dependencies []string `json:",omitempty"`
}

type pending struct {
	req    Requirement
	parent string
}

// Check resolves each of reqs (PEP 508 requirement strings, e.g. "pandas>=1.2"), and then,
// unless NoDeps is set, their dependencies, transitively.  Like pip, it considers the files from
// all of the indexes together and picks the highest version that satisfies the requirement;
// Resolution.Index says which index that version is served from (the first one in Locate order
// that has it).  A project that is required more than once is resolved for the first requirement
// only.
//
// Every requirement is attempted; the error, if any, is a derror.MultiError listing those that
// could not be resolved.
func (m MultiIndex) Check(ctx context.Context, reqs ...string) ([]Resolution, error) {
	var (
		ret   []Resolution
		errs  derror.MultiError
		queue []pending
	)
	for _, str := range reqs {
		req, err := ParseRequirement(str)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		queue = append(queue, pending{req: *req})
	}

	seen := make(map[string]struct{})
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		key := Normalize(item.req.Name)
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}

		res, links, err := m.resolve(ctx, item.req)
		if err != nil {
			if item.parent != "" {
				err = fmt.Errorf("%w (required by %s)", err, item.parent)
			}
			errs = append(errs, err)
			continue
		}
		res.RequiredBy = item.parent
		if !m.NoDeps {
			deps, err := m.dependencies(ctx, item.req, res, links)
			if err != nil {
				errs = append(errs, err)
			}
			for _, dep := range deps {
				res.Dependencies = append(res.Dependencies, dep.String())
				queue = append(queue, pending{req: dep, parent: res.Name + " " + res.Version})
			}
		}
		ret = append(ret, *res)
	}

	if len(errs) > 0 {
		return ret, errs
	}
	return ret, nil
}

type release struct {
	version pep440.Version
	index   string
	links   []FileLink
}

func (m MultiIndex) installable(ctx context.Context, link FileLink) bool {
	if m.PythonVersion == nil || link.RequiresPython() == "" {
		return true
	}
	spec, err := pep440.ParseSpecifier(link.RequiresPython())
	if err != nil {
		dlog.Debugf(ctx, "%s: ignoring Requires-Python: %v", link.Text, err)
		return true
	}
	return spec.Match(*m.PythonVersion)
}

func (m MultiIndex) resolve(ctx context.Context, req Requirement) (*Resolution, []FileLink, error) {
	candidates, err := m.Locate(ctx, req.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", req, err)
	}

	releases := make(map[string]*release)
	yanked := make(map[string]pep440.Version)
	for _, cand := range candidates {
		fileInfo, err := ParseFilename(cand.File.Text)
		if err != nil || !fileInfo.Matches(req.Name) {
			continue
		}
		ver, err := pep440.ParseVersion(fileInfo.Version)
		if err != nil {
			dlog.Debugf(ctx, "%s: skipping: %v", cand.File.Text, err)
			continue
		}
		key := ver.String()
		if cand.File.Yanked() {
			yanked[key] = *ver
			continue
		}
		if !m.installable(ctx, cand.File) {
			continue
		}
		rel, ok := releases[key]
		if !ok {
			rel = &release{version: *ver, index: cand.Index}
			releases[key] = rel
		}
		// The first index to offer a version is the one it is taken from.
		if cand.Index == rel.index {
			rel.links = append(rel.links, cand.File)
		}
	}

	versions := make([]pep440.Version, 0, len(releases))
	for _, rel := range releases {
		versions = append(versions, rel.version)
	}
	best := req.Specifier.Select(versions)
	if best == nil {
		return nil, nil, fmt.Errorf("%s: %w", req, ErrUnresolvable)
	}
	chosen := releases[best.String()]

	res := &Resolution{
		Name:        req.Name,
		Requirement: req.String(),
		Version:     chosen.version.String(),
		Index:       chosen.index,
		Versions:    sortedVersions(versions),
	}
	for _, link := range chosen.links {
		res.Files = append(res.Files, link.Text)
	}
	var onlyYanked []pep440.Version
	for key, ver := range yanked {
		if _, ok := releases[key]; !ok {
			onlyYanked = append(onlyYanked, ver)
		}
	}
	res.Yanked = sortedVersions(onlyYanked)
	return res, chosen.links, nil
}

// dependencies reads the Requires-Dist of the chosen release from its first wheel, and returns
// those that apply given the extras that req asked for.
func (m MultiIndex) dependencies(ctx context.Context, req Requirement, res *Resolution, links []FileLink) ([]Requirement, error) {
	var wheel *FileLink
	for i := range links {
		if info, err := ParseFilename(links[i].Text); err == nil && info.Kind == KindWheel {
			wheel = &links[i]
			break
		}
	}
	if wheel == nil {
		dlog.Warnf(ctx, "%s %s: no wheel on %s; not checking its dependencies",
			res.Name, res.Version, res.Index)
		return nil, nil
	}

	md, err := wheel.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", res.Name, res.Version, err)
	}
	var ret []Requirement
	for _, str := range md.RequiresDist {
		dep, err := ParseRequirement(str)
		if err != nil {
			return ret, fmt.Errorf("%s %s: %w", res.Name, res.Version, err)
		}
		if !dep.AppliesTo(req.Extras) {
			dlog.Debugf(ctx, "%s %s: skipping %s", res.Name, res.Version, dep)
			continue
		}
		ret = append(ret, *dep)
	}
	return ret, nil
}

func sortedVersions(vers []pep440.Version) []string {
	if len(vers) == 0 {
		return nil
	}
	sort.Slice(vers, func(i, j int) bool { return vers[i].Cmp(vers[j]) < 0 })
	ret := make([]string, 0, len(vers))
	for _, ver := range vers {
		ret = append(ret, ver.String())
	}
	return ret
}
