// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"strings"
)

// Specifier is a comma-separated list of clauses, all of which must match, e.g. ">=1.0,!=1.3.*".
// The empty Specifier matches everything.
type Specifier []SpecifierClause

func ParseSpecifier(str string) (Specifier, error) {
	clauseStrs := strings.FieldsFunc(str, func(r rune) bool { return r == ',' })
	ret := make(Specifier, 0, len(clauseStrs))
	for _, clauseStr := range clauseStrs {
		clauseStr = strings.TrimSpace(clauseStr)
		if clauseStr == "" {
			continue
		}
		clause, err := parseSpecifierClause(clauseStr)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseSpecifier: %w", err)
		}
		ret = append(ret, clause)
	}
	return ret, nil
}

func (spec Specifier) String() string {
	clauses := make([]string, 0, len(spec))
	for _, clause := range spec {
		clauses = append(clauses, clause.String())
	}
	return strings.Join(clauses, ",")
}

func (spec Specifier) Match(ver Version) bool {
	for _, clause := range spec {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

// mentionsPreRelease reports whether any clause names a pre-release, which opts in to
// pre-releases.
func (spec Specifier) mentionsPreRelease() bool {
	for _, clause := range spec {
		if clause.Version.IsPreRelease() {
			return true
		}
	}
	return false
}

// Select returns the highest of choices that the specifier matches, or nil.  Pre-releases are only
// chosen if the specifier names one, or if nothing else matches.
func (spec Specifier) Select(choices []Version) *Version {
	allowPre := spec.mentionsPreRelease()
	var best, bestPre *Version
	for i := range choices {
		choice := choices[i]
		if !spec.Match(choice) {
			continue
		}
		if choice.IsPreRelease() && !allowPre {
			if bestPre == nil || bestPre.Cmp(choice) < 0 {
				bestPre = &choice
			}
			continue
		}
		if best == nil || best.Cmp(choice) < 0 {
			best = &choice
		}
	}
	if best != nil {
		return best
	}
	return bestPre
}

type CmpOp int

const (
	CmpOpCompatible CmpOp = iota
	CmpOpStrictMatch
	CmpOpPrefixMatch
	CmpOpStrictExclude
	CmpOpPrefixExclude
	CmpOpLE
	CmpOpGE
	CmpOpLT
	CmpOpGT
)

func (op CmpOp) String() string {
	str, ok := map[CmpOp]string{
		CmpOpCompatible:    "~=",
		CmpOpStrictMatch:   "strict ==",
		CmpOpPrefixMatch:   "prefix ==",
		CmpOpStrictExclude: "strict !=",
		CmpOpPrefixExclude: "prefix !=",
		CmpOpLE:            "<=",
		CmpOpGE:            ">=",
		CmpOpLT:            "<",
		CmpOpGT:            ">",
	}[op]
	if !ok {
		panic(fmt.Errorf("invalid CmpOp: %d", op))
	}
	return str
}

type SpecifierClause struct {
	CmpOp   CmpOp
	Version Version
}

func parseSpecifierClause(str string) (SpecifierClause, error) {
	var ret SpecifierClause
	minSegments := 1
	devOK := true
	localOK := false
	switch {
	case strings.HasPrefix(str, "==="):
		return ret, fmt.Errorf("specifiers with === are not supported; versions must be PEP 440 compliant")
	case strings.HasPrefix(str, "~="):
		ret.CmpOp = CmpOpCompatible
		str = str[2:]
		minSegments = 2
	case strings.HasPrefix(str, "=="):
		ret.CmpOp = CmpOpStrictMatch
		str = strings.TrimSpace(str[2:])
		localOK = true
		if strings.HasSuffix(str, ".*") {
			ret.CmpOp = CmpOpPrefixMatch
			str = strings.TrimSuffix(str, ".*")
			devOK = false
			localOK = false
		}
	case strings.HasPrefix(str, "!="):
		ret.CmpOp = CmpOpStrictExclude
		str = strings.TrimSpace(str[2:])
		localOK = true
		if strings.HasSuffix(str, ".*") {
			ret.CmpOp = CmpOpPrefixExclude
			str = strings.TrimSuffix(str, ".*")
			devOK = false
			localOK = false
		}
	case strings.HasPrefix(str, "<="):
		ret.CmpOp = CmpOpLE
		str = str[2:]
	case strings.HasPrefix(str, ">="):
		ret.CmpOp = CmpOpGE
		str = str[2:]
	case strings.HasPrefix(str, "<"):
		ret.CmpOp = CmpOpLT
		str = str[1:]
	case strings.HasPrefix(str, ">"):
		ret.CmpOp = CmpOpGT
		str = str[1:]
	default:
		return ret, fmt.Errorf("invalid comparison operator: %q", str)
	}
	ver, err := ParseVersion(str)
	if err != nil {
		return ret, err
	}
	if len(ver.Release) < minSegments {
		return ret, fmt.Errorf("at least %d release segments required in %s specifier clauses",
			minSegments, ret.CmpOp)
	}
	if ver.Dev != nil && !devOK {
		return ret, fmt.Errorf("dev-part not permitted in %s specifier clauses", ret.CmpOp)
	}
	if len(ver.Local) > 0 && !localOK {
		return ret, fmt.Errorf("local-part not permitted in %s specifier clauses", ret.CmpOp)
	}
	ret.Version = *ver
	return ret, nil
}

func (spec SpecifierClause) String() string {
	switch spec.CmpOp {
	case CmpOpStrictMatch:
		return "==" + spec.Version.String()
	case CmpOpPrefixMatch:
		return "==" + spec.Version.String() + ".*"
	case CmpOpStrictExclude:
		return "!=" + spec.Version.String()
	case CmpOpPrefixExclude:
		return "!=" + spec.Version.String() + ".*"
	default:
		return spec.CmpOp.String() + spec.Version.String()
	}
}

func (spec SpecifierClause) Match(ver Version) bool {
	switch spec.CmpOp {
	case CmpOpCompatible:
		return matchCompatible(spec.Version, ver)
	case CmpOpStrictMatch:
		return matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixMatch:
		return matchPrefixMatch(spec.Version, ver)
	case CmpOpStrictExclude:
		return !matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixExclude:
		return !matchPrefixMatch(spec.Version, ver)
	case CmpOpLE:
		return ver.PublicVersion.Cmp(spec.Version.PublicVersion) <= 0
	case CmpOpGE:
		return ver.PublicVersion.Cmp(spec.Version.PublicVersion) >= 0
	case CmpOpLT:
		return matchLT(spec.Version, ver)
	case CmpOpGT:
		return matchGT(spec.Version, ver)
	default:
		panic(fmt.Errorf("invalid CmpOp: %d", spec.CmpOp))
	}
}

// "~=V.N" is ">=V.N, ==V.*".
func matchCompatible(spec, ver Version) bool {
	prefix := spec
	prefix.Release = prefix.Release[:len(prefix.Release)-1]
	prefix.Pre = nil
	prefix.Post = nil
	prefix.Dev = nil
	prefix.Local = nil
	return ver.PublicVersion.Cmp(spec.PublicVersion) >= 0 && matchPrefixMatch(prefix, ver)
}

// A specifier without a local label ignores the candidate's local label.
func matchStrictMatch(spec, ver Version) bool {
	if len(spec.Local) == 0 {
		return spec.PublicVersion.Cmp(ver.PublicVersion) == 0
	}
	return spec.Cmp(ver) == 0
}

func matchPrefixMatch(_spec, _ver Version) bool {
	spec, ver := _spec.PublicVersion, _ver.PublicVersion
	if spec.Epoch != ver.Epoch {
		return false
	}
	terminalIsRelease := spec.Pre == nil && spec.Post == nil
	if terminalIsRelease && len(ver.Release) > len(spec.Release) {
		ver.Release = ver.Release[:len(spec.Release)]
	}
	if cmpRelease(spec, ver) != 0 {
		return false
	}
	if terminalIsRelease {
		return true
	}
	if (ver.Pre == nil) != (spec.Pre == nil) {
		return false
	}
	if spec.Pre != nil && (ver.Pre.L != spec.Pre.L || ver.Pre.N != spec.Pre.N) {
		return false
	}
	if spec.Post == nil {
		return true
	}
	return cmpPostRelease(spec, ver) == 0
}

// "<V" excludes pre-releases of V itself, unless V is a pre-release.
func matchLT(spec, ver Version) bool {
	if ver.PublicVersion.Cmp(spec.PublicVersion) >= 0 {
		return false
	}
	if !spec.IsPreRelease() && ver.IsPreRelease() {
		base := ver.PublicVersion
		base.Pre, base.Post, base.Dev = nil, nil, nil
		if base.Epoch == spec.Epoch && cmpRelease(base, spec.PublicVersion) == 0 {
			return false
		}
	}
	return true
}

// ">V" excludes post-releases of V itself, unless V is a post-release, and excludes local
// versions of V.
func matchGT(spec, ver Version) bool {
	if ver.PublicVersion.Cmp(spec.PublicVersion) <= 0 {
		return false
	}
	if spec.Post == nil && ver.Post != nil {
		base := ver.PublicVersion
		base.Post, base.Dev = nil, nil
		if base.Cmp(spec.PublicVersion) == 0 {
			return false
		}
	}
	return true
}
