package archive

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Member is the internal record the picker/dispatcher uses for a
// single archive entry during inner-file selection and bulk
// extraction.
type Member struct {
	// Name is the member's path as stored in the archive, using "/"
	// separators regardless of host OS.
	Name string

	IsDir     bool
	IsSymlink bool
	ExecBit   bool
	Size      int64

	// Open, when non-nil, reads this member's content. Directory
	// members never set it.
	Open func() (ReadCloser, error)
}

// ReadCloser is a minimal alias so this file doesn't need to import
// io just for the one interface.
type ReadCloser interface {
	Read(p []byte) (n int, err error)
	Close() error
}

// ErrNoExecutableFound is returned by SelectOne when no member
// satisfies the selection rules. Suggestion, when non-empty, is the
// archive's file member whose basename is closest (by edit distance)
// to Want — a nicety for surfacing typos like "preciouz" vs "precious"
// in the caller-supplied name.
type ErrNoExecutableFound struct {
	Want       string
	Suggestion string
}

func (e *ErrNoExecutableFound) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no archive member matched executable name %q (closest match: %q)", e.Want, e.Suggestion)
	}
	return fmt.Sprintf("no archive member matched executable name %q", e.Want)
}

// closestBasename finds the file member whose basename has the
// smallest levenshtein distance to want, for use in NoExecutableFound
// error messages.
func closestBasename(files []Member, want string) string {
	best := ""
	bestDist := -1
	for _, m := range files {
		base := path.Base(m.Name)
		d := levenshtein.ComputeDistance(strings.ToLower(base), strings.ToLower(want))
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = base
		}
	}
	return best
}

// ErrUnsafePath is returned when a member's path would escape the
// extraction root.
type ErrUnsafePath struct {
	Path string
}

func (e *ErrUnsafePath) Error() string {
	return fmt.Sprintf("unsafe archive member path %q", e.Path)
}

// SelectOne implements spec's normal-mode inner-file selection:
//  1. exact case-insensitive basename match against want (or
//     want+".exe"/".bat" on windows); directories never match even if
//     their name coincides.
//  2. failing that, a starts-with match among executable members
//     (exec bit set on non-windows, .exe/.bat suffix on windows).
//  3. ties broken by ascending basename sort.
func SelectOne(members []Member, want string, windows bool) (*Member, error) {
	var files []Member
	for _, m := range members {
		if m.IsDir || m.IsSymlink || m.Size == 0 {
			continue
		}
		files = append(files, m)
	}

	wantLower := strings.ToLower(want)
	exactCandidates := []string{wantLower}
	if windows {
		exactCandidates = append(exactCandidates, wantLower+".exe", wantLower+".bat")
	}

	var exact []Member
	for _, m := range files {
		base := strings.ToLower(path.Base(m.Name))
		for _, cand := range exactCandidates {
			if base == cand {
				exact = append(exact, m)
				break
			}
		}
	}
	if len(exact) > 0 {
		sort.Slice(exact, func(i, j int) bool { return byBasename(exact[i], exact[j]) })
		return &exact[0], nil
	}

	var startsWith []Member
	for _, m := range files {
		base := path.Base(m.Name)
		if !strings.HasPrefix(strings.ToLower(base), wantLower) {
			continue
		}
		if windows {
			lb := strings.ToLower(base)
			if strings.HasSuffix(lb, ".exe") || strings.HasSuffix(lb, ".bat") {
				startsWith = append(startsWith, m)
			}
		} else if m.ExecBit {
			startsWith = append(startsWith, m)
		}
	}
	if len(startsWith) > 0 {
		sort.Slice(startsWith, func(i, j int) bool { return byBasename(startsWith[i], startsWith[j]) })
		return &startsWith[0], nil
	}

	return nil, &ErrNoExecutableFound{Want: want, Suggestion: closestBasename(files, want)}
}

// byBasename orders members by basename, then by full path.
func byBasename(a, b Member) bool {
	ab, bb := path.Base(a.Name), path.Base(b.Name)
	if ab != bb {
		return ab < bb
	}
	return a.Name < b.Name
}

// CommonPrefix computes the longest common directory prefix shared by
// every member's normalized path, for extract-all flattening. Returns
// "" if there is no shared top-level directory.
func CommonPrefix(members []Member) string {
	if len(members) == 0 {
		return ""
	}
	var parts [][]string
	for _, m := range members {
		segs := strings.Split(path.Clean(m.Name), "/")
		// A file's own name is never a shared directory component; a
		// directory member contributes its whole path.
		if !m.IsDir {
			segs = segs[:len(segs)-1]
		}
		parts = append(parts, segs)
	}
	prefix := parts[0]
	for _, p := range parts[1:] {
		prefix = commonPrefixOf(prefix, p)
	}
	if len(prefix) == 0 {
		return ""
	}
	return strings.Join(prefix, "/")
}

func commonPrefixOf(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// NormalizeExtractPath validates and strips prefix from a member's
// path, rejecting unsafe paths (absolute, or containing a parent
// directory segment) with ErrUnsafePath.
func NormalizeExtractPath(name, prefix string) (string, error) {
	clean := path.Clean(name)
	if path.IsAbs(clean) {
		return "", &ErrUnsafePath{Path: name}
	}
	if prefix != "" {
		if clean == prefix {
			return ".", nil
		}
		clean = strings.TrimPrefix(clean, prefix+"/")
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return "", &ErrUnsafePath{Path: name}
		}
	}
	return clean, nil
}
