package fetchbin

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/flanksource/fetchbin/platform"
)

// Forge selects which release host a project coordinate resolves
// against.
type Forge string

const (
	// ForgeAuto infers the forge from the project coordinate: a bare
	// "owner/repo" or any URL whose host is not exactly "gitlab.com"
	// defaults to GitHub.
	ForgeAuto Forge = "auto"
	ForgeGitHub Forge = "github"
	ForgeGitLab Forge = "gitlab"
)

// InstallRequest is the immutable configuration for a single install
// run, built via InstallOption functions and validated once before the
// terminal operation (Run) consumes it.
//
// Exactly one of Project or URL must be set. ExtractAll is mutually
// exclusive with both Exe and RenameExeTo. Tag requires Project.
type InstallRequest struct {
	// Project is a forge coordinate, either "owner/repo" or a full URL
	// to the repository.
	Project string

	// URL is a direct download URL, bypassing the forge client
	// entirely. Mutually exclusive with Project.
	URL string

	// Tag is an explicit release tag. Empty means "latest". Only valid
	// with Project.
	Tag string

	// Dir is the target install directory.
	Dir string

	// Exe is the desired executable name inside the archive. Defaults
	// to the last path component of Project when unset.
	Exe string

	// RenameExeTo, if set, is used verbatim as the installed filename
	// (no platform-specific extension is appended).
	RenameExeTo string

	// Matching is a Stage E hint: a substring (or, when it contains a
	// glob metacharacter, a doublestar pattern) that a candidate
	// asset's name must contain/match.
	Matching string

	// MatchingRegex is a Stage E hint: a regular expression a
	// candidate asset's name must match. When set, it is applied
	// instead of Matching, which is then ignored.
	MatchingRegex string

	// ForgeSelector picks which forge implementation resolves Project.
	ForgeSelector Forge

	// APIBase overrides the forge's default API base URL, for
	// self-hosted/enterprise instances.
	APIBase string

	// Token is sent on both the release metadata call and the asset
	// download call: as a bearer token to GitHub and to a direct URL,
	// and as a PRIVATE-TOKEN header to GitLab. Run never sends it as a
	// GitLab JOB-TOKEN header. This module never reads it from the
	// environment; the caller supplies it.
	Token string

	// ExtractAll switches the archive dispatcher to bulk-extraction
	// mode: every file member is written out, flattening a single
	// common top-level directory when present.
	ExtractAll bool

	// Platform overrides the detected host platform. Used by tests and
	// by callers cross-installing for a different target.
	Platform *platform.Platform

	// Logger receives progress messages. When nil, validation sets it
	// to a new logrus logger at Warn level.
	Logger logrus.FieldLogger

	compiledRegex *regexp.Regexp
}

// InstallOption mutates an in-progress InstallRequest during
// construction.
type InstallOption func(*InstallRequest)

// NewInstallRequest builds an InstallRequest from the given options and
// validates it. The zero value of every unset field is the request's
// default.
func NewInstallRequest(opts ...InstallOption) (*InstallRequest, error) {
	r := &InstallRequest{
		ForgeSelector: ForgeAuto,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func WithProject(project string) InstallOption {
	return func(r *InstallRequest) { r.Project = project }
}

func WithURL(url string) InstallOption {
	return func(r *InstallRequest) { r.URL = url }
}

func WithTag(tag string) InstallOption {
	return func(r *InstallRequest) { r.Tag = tag }
}

func WithDir(dir string) InstallOption {
	return func(r *InstallRequest) { r.Dir = dir }
}

func WithExe(exe string) InstallOption {
	return func(r *InstallRequest) { r.Exe = exe }
}

func WithRenameExeTo(name string) InstallOption {
	return func(r *InstallRequest) { r.RenameExeTo = name }
}

func WithMatching(substr string) InstallOption {
	return func(r *InstallRequest) { r.Matching = substr }
}

func WithMatchingRegex(pattern string) InstallOption {
	return func(r *InstallRequest) { r.MatchingRegex = pattern }
}

func WithForge(f Forge) InstallOption {
	return func(r *InstallRequest) { r.ForgeSelector = f }
}

func WithAPIBase(base string) InstallOption {
	return func(r *InstallRequest) { r.APIBase = base }
}

func WithToken(token string) InstallOption {
	return func(r *InstallRequest) { r.Token = token }
}

func WithExtractAll(v bool) InstallOption {
	return func(r *InstallRequest) { r.ExtractAll = v }
}

func WithPlatform(p platform.Platform) InstallOption {
	return func(r *InstallRequest) { r.Platform = &p }
}

func WithLogger(l logrus.FieldLogger) InstallOption {
	return func(r *InstallRequest) { r.Logger = l }
}

func (r *InstallRequest) validate() error {
	if r.Project == "" && r.URL == "" {
		return newErr(InvalidRequest, nil, "exactly one of Project or URL must be set, got neither")
	}
	if r.Project != "" && r.URL != "" {
		return newErr(InvalidRequest, nil, "exactly one of Project or URL must be set, got both")
	}
	if r.Tag != "" && r.Project == "" {
		return newErr(InvalidRequest, nil, "Tag requires Project to be set")
	}
	if r.ExtractAll && r.Exe != "" {
		return newErr(InvalidRequest, nil, "ExtractAll is incompatible with Exe")
	}
	if r.ExtractAll && r.RenameExeTo != "" {
		return newErr(InvalidRequest, nil, "ExtractAll is incompatible with RenameExeTo")
	}
	if r.Dir == "" {
		return newErr(InvalidRequest, nil, "Dir is required")
	}
	if r.MatchingRegex != "" {
		re, err := regexp.Compile(r.MatchingRegex)
		if err != nil {
			return newErr(InvalidRequest, err, "MatchingRegex %q does not compile", r.MatchingRegex)
		}
		r.compiledRegex = re
	}
	if r.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		r.Logger = l
	}
	return nil
}

// logger returns the request's logger, falling back to
// logrus.StandardLogger() if validate() was never called (e.g. a
// request built by hand in a test).
func (r *InstallRequest) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.StandardLogger()
}
