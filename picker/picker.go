// Package picker implements the multi-stage asset-selection algorithm:
// given a host platform and a release's file list, it narrows the
// candidates stage by stage and returns exactly one winner.
package picker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flanksource/fetchbin/platform"
)

// Candidate couples an asset name with opaque caller data (the
// fetchbin.Asset it was built from) so Pick can return the original
// value without this package importing the root package.
type Candidate struct {
	Name string
	Data interface{}
}

// Result is the outcome of a successful Pick.
type Result struct {
	Candidate Candidate
	Ext       string
	IsArchive bool
}

// Options carries the Stage E user hints.
type Options struct {
	Matching      string
	MatchingRegex regexpMatcher
}

// regexpMatcher is satisfied by *regexp.Regexp; defined here as an
// interface so this package doesn't force callers to pass a concrete
// stdlib regexp if they've already compiled one elsewhere.
type regexpMatcher interface {
	MatchString(string) bool
}

// NoMatchError reports why the picker rejected every candidate. It
// names the last stage that ran and a candidate list, so callers can
// render a useful message: for stages A through D that list is every
// asset name passed to Pick; for Stage E it is the names that entered
// Stage E.
type NoMatchError struct {
	Stage      string
	Candidates []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no asset matched (failed at stage %q); candidates: %v", e.Stage, e.Candidates)
}

// Pick runs the full staged pipeline against candidates for host p and
// returns the single winner, or a *NoMatchError.
func Pick(p platform.Platform, candidates []Candidate, opts Options) (*Result, error) {
	survivors, err := stageA(p, candidates)
	if err != nil {
		return nil, err
	}
	if len(survivors) == 1 {
		return finish(survivors[0]), nil
	}

	survivors = stageB(p, survivors)
	if len(survivors) == 0 {
		return nil, &NoMatchError{Stage: "B:os", Candidates: names(candidates)}
	}

	survivors = stageC(p, survivors)
	if len(survivors) == 0 {
		return nil, &NoMatchError{Stage: "C:arch", Candidates: names(candidates)}
	}

	survivors = stageD(p, survivors)
	if len(survivors) == 0 {
		return nil, &NoMatchError{Stage: "D:libc", Candidates: names(candidates)}
	}

	survivors, err = stageE(survivors, opts)
	if err != nil {
		return nil, err
	}

	winner := stageF(survivors)
	return finish(winner), nil
}

func finish(c scored) *Result {
	return &Result{Candidate: c.Candidate, Ext: c.ext, IsArchive: IsArchiveExt(c.ext)}
}

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// scored is a Candidate carrying derived facts computed once in Stage
// A and reused by later stages.
type scored struct {
	Candidate
	ext string
	os  string
	arc string
}

// stageA is the extension gate: computes each candidate's effective
// extension and drops anything with a non-empty unrecognized extension
// or an extension forbidden on the host OS. Pick short-circuits when
// exactly one survivor remains.
func stageA(p platform.Platform, candidates []Candidate) ([]scored, error) {
	var out []scored
	for _, c := range candidates {
		ext, recognized := EffectiveExtension(c.Name)
		if !recognized {
			continue
		}
		if ext == "exe" && !p.IsWindows() {
			continue
		}
		if ext == "bat" && !p.IsWindows() {
			continue
		}
		if ext == "appimage" && p.OS != platform.Linux {
			continue
		}
		out = append(out, scored{Candidate: c, ext: ext})
	}
	if len(out) == 0 {
		return nil, &NoMatchError{Stage: "A:extension", Candidates: names(candidates)}
	}
	return out, nil
}

// stageB drops assets that positively name a non-host OS. If nothing
// positively matches the host OS, OS-agnostic candidates (no OS token
// at all) are carried forward instead.
func stageB(p platform.Platform, in []scored) []scored {
	var matched, agnostic []scored
	for _, c := range in {
		os := matchOS(c.Name)
		c.os = os
		if os == "" {
			agnostic = append(agnostic, c)
			continue
		}
		if os == string(p.OS) {
			matched = append(matched, c)
		}
		// else: positively names a different OS, dropped.
	}
	if len(matched) > 0 {
		return matched
	}
	return agnostic
}

// stageC is the arch analogue of stageB, plus the 64-vs-32-bit
// preference and the macOS Rosetta fallback.
func stageC(p platform.Platform, in []scored) []scored {
	// arc is computed and written back onto in[i] itself (not just a
	// loop-local copy), so later passes over the same slice — the
	// Rosetta fallback below — see the derived fact too.
	for i := range in {
		in[i].arc = matchArch(in[i].Name)
	}

	var matched, agnostic []scored
	for _, c := range in {
		if c.arc == "" {
			agnostic = append(agnostic, c)
			continue
		}
		if c.arc == string(p.Arch) {
			matched = append(matched, c)
		}
	}

	survivors := matched
	if len(survivors) == 0 {
		survivors = agnostic
	}

	// Rosetta fallback: macOS/aarch64 host, nothing aarch64 survived,
	// admit macOS/x86_64 builds instead.
	if len(survivors) == 0 && p.OS == platform.MacOS && p.Arch == platform.Aarch64 {
		for _, c := range in {
			if c.os == "darwin" && c.arc == "x86_64" {
				survivors = append(survivors, c)
			}
		}
	}

	if p.Is64Bit() {
		survivors = drop32BitIfAny64BitPresent(survivors)
	}
	return survivors
}

func drop32BitIfAny64BitPresent(in []scored) []scored {
	has64 := false
	for _, c := range in {
		if c.arc == "x86_64" || c.arc == "aarch64" || strings.HasSuffix(c.arc, "64") || c.arc == "" {
			if c.arc != "x86" && c.arc != "arm" {
				has64 = true
			}
		}
	}
	if !has64 {
		return in
	}
	var out []scored
	for _, c := range in {
		if c.arc == "x86" || c.arc == "arm" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// stageD drops glibc-targeted assets on musl hosts, unless doing so
// would empty the set.
func stageD(p platform.Platform, in []scored) []scored {
	if p.Libc != platform.LibcMusl {
		return in
	}
	var nonGNU []scored
	for _, c := range in {
		if !hasAnyToken(c.Name, libcGNUTokens) {
			nonGNU = append(nonGNU, c)
		}
	}
	if len(nonGNU) > 0 {
		return nonGNU
	}
	return in
}

// stageE applies the user-supplied substring/glob/regex hints.
func stageE(in []scored, opts Options) ([]scored, error) {
	if opts.MatchingRegex != nil {
		var out []scored
		for _, c := range in {
			if opts.MatchingRegex.MatchString(c.Name) {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil, &NoMatchError{Stage: "E:matching_regex", Candidates: names(toCandidates(in))}
		}
		return out, nil
	}
	if opts.Matching != "" {
		var out []scored
		for _, c := range in {
			if matchesHint(c.Name, opts.Matching) {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil, &NoMatchError{Stage: "E:matching", Candidates: names(toCandidates(in))}
		}
		return out, nil
	}
	return in, nil
}

// matchesHint tries a doublestar glob match when hint looks like a
// glob pattern, else falls back to plain case-sensitive substring
// containment.
func matchesHint(name, hint string) bool {
	if strings.ContainsAny(hint, "*?[") {
		if ok, err := doublestar.Match(hint, name); err == nil && ok {
			return true
		}
	}
	return strings.Contains(name, hint)
}

func toCandidates(in []scored) []Candidate {
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = c.Candidate
	}
	return out
}

// stageF sorts survivors by name, ascending, and returns the first.
func stageF(in []scored) scored {
	sort.Slice(in, func(i, j int) bool { return in[i].Name < in[j].Name })
	return in[0]
}
