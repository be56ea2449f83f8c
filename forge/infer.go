package forge

import (
	"net/url"
	"strings"
)

// Selector ∈ {auto, github, gitlab}, as named in the InstallRequest
// builder; duplicated here as plain strings so this package has no
// dependency on the root package.
const (
	SelectorAuto   = "auto"
	SelectorGitHub = "github"
	SelectorGitLab = "gitlab"
)

// Infer decides which forge a project coordinate resolves against.
// A bare "owner/repo" (no scheme, no host to inspect) always defaults
// to GitHub, since it carries no host information. A full URL only
// infers GitLab when its host is exactly "gitlab.com" — the stricter
// rule spec.md calls out explicitly; any other host (including
// self-hosted GitLab instances whose hostname merely contains
// "gitlab") defaults to GitHub unless the caller selects a forge
// explicitly via selector.
func Infer(project, selector string) string {
	switch selector {
	case SelectorGitHub, SelectorGitLab:
		return selector
	}

	if !strings.Contains(project, "://") && !strings.HasPrefix(project, "//") {
		return SelectorGitHub
	}

	u, err := url.Parse(project)
	if err != nil {
		return SelectorGitHub
	}
	if u.Host == "gitlab.com" {
		return SelectorGitLab
	}
	return SelectorGitHub
}

// OwnerRepo splits a project coordinate into its owner/repo path
// component, stripping a scheme+host if present.
func OwnerRepo(project string) string {
	if !strings.Contains(project, "://") {
		return strings.Trim(project, "/")
	}
	u, err := url.Parse(project)
	if err != nil {
		return project
	}
	return strings.Trim(u.Path, "/")
}
