// Package fetchbin installs a single executable fetched from a GitHub
// or GitLab release, or from a direct URL, onto the local filesystem.
package fetchbin

import (
	"context"
	"path"
	"strings"

	"github.com/flanksource/fetchbin/archive"
	"github.com/flanksource/fetchbin/download"
	"github.com/flanksource/fetchbin/forge"
	"github.com/flanksource/fetchbin/installer"
	"github.com/flanksource/fetchbin/picker"
	"github.com/flanksource/fetchbin/platform"
)

// Run executes one full installation described by req and returns the
// path of the installed file.
func Run(ctx context.Context, req *InstallRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	log := req.logger()

	plat := platform.Current()
	if req.Platform != nil {
		plat = *req.Platform
	}

	projectName := lastPathComponent(req.Project)
	want := req.Exe
	if want == "" {
		want = projectName
	}

	var (
		candidates  []picker.Candidate
		dlURL       string
		dlHeaders   map[string]string
		keepHeaders bool
	)

	if req.URL != "" {
		name := lastPathComponent(req.URL)
		candidates = []picker.Candidate{{Name: name, Data: Asset{Name: name, URL: req.URL}}}
		dlURL = req.URL
		dlHeaders = map[string]string{}
		if req.Token != "" {
			dlHeaders["Authorization"] = "Bearer " + req.Token
		}
	} else {
		f, ownerRepo, err := buildForge(req)
		if err != nil {
			return "", err
		}
		log.Debugf("resolving release for %s (tag=%q)", ownerRepo, req.Tag)
		rel, err := resolveReleaseWithTagFallback(ctx, f, ownerRepo, req.Tag)
		if err != nil {
			return "", translateForgeErr(err)
		}
		if len(rel.Assets) == 0 {
			return "", newErr(Malformed, nil, "release %s for %s has no assets", rel.Tag, ownerRepo)
		}
		for _, a := range rel.Assets {
			candidates = append(candidates, picker.Candidate{Name: a.Name, Data: Asset{Name: a.Name, URL: a.URL, Size: a.Size}})
		}

		var opts picker.Options
		opts.Matching = req.Matching
		if req.compiledRegex != nil {
			opts.MatchingRegex = req.compiledRegex
		}
		picked, err := picker.Pick(plat, candidates, opts)
		if err != nil {
			return "", translatePickerErr(err)
		}
		asset := picked.Candidate.Data.(Asset)
		dl := f.PrepareDownload(forge.Asset{Name: asset.Name, URL: asset.URL, Size: asset.Size})
		dlURL = dl.URL
		dlHeaders = dl.Headers
		keepHeaders = dl.KeepHeadersAcrossRedirect

		return finishInstall(req, plat, want, picked.Ext, dlURL, dlHeaders, keepHeaders, log)
	}

	var opts picker.Options
	picked, err := picker.Pick(plat, candidates, opts)
	if err != nil {
		return "", translatePickerErr(err)
	}
	return finishInstall(req, plat, want, picked.Ext, dlURL, dlHeaders, keepHeaders, log)
}

func finishInstall(req *InstallRequest, plat platform.Platform, want, ext string, dlURL string, dlHeaders map[string]string, keepHeaders bool, log interface {
	Debugf(string, ...interface{})
}) (string, error) {
	f, err := download.Fetch(download.Request{URL: dlURL, Headers: dlHeaders, KeepHeadersAcrossRedirect: keepHeaders})
	if err != nil {
		return "", translateDownloadErr(err)
	}
	defer f.Close()

	if req.ExtractAll {
		if err := archive.ExtractAll(f.Path(), ext, req.Dir); err != nil {
			return "", translateArchiveErr(err)
		}
		return req.Dir, nil
	}

	res, err := archive.Extract(f.Path(), ext, want, plat.IsWindows())
	if err != nil {
		return "", translateArchiveErr(err)
	}

	finalName := installer.FinalName(req.RenameExeTo, want, res.MemberName, plat.IsWindows())
	path, err := installer.Install(installer.Request{
		Dir:     req.Dir,
		Name:    finalName,
		Data:    res.Data,
		Windows: plat.IsWindows(),
	})
	if err != nil {
		return "", newErr(IoFailed, err, "installing %s", finalName)
	}
	log.Debugf("installed %s", path)
	return path, nil
}

// resolveReleaseWithTagFallback tries every spelling forge.TagCandidates
// offers for tag (e.g. "1.2.3" vs "v1.2.3") until one resolves,
// returning the last NotFound error if none do. Forges other than
// "latest" (empty tag) reject an exact, case-sensitive tag string, and
// a caller can easily supply the "other" spelling than the one the
// project actually tags with.
func resolveReleaseWithTagFallback(ctx context.Context, f forge.Forge, ownerRepo, tag string) (*forge.Release, error) {
	candidates := forge.TagCandidates(tag)
	if len(candidates) == 0 {
		return f.ResolveRelease(ctx, ownerRepo, tag)
	}
	var lastErr error
	for _, cand := range candidates {
		rel, err := f.ResolveRelease(ctx, ownerRepo, cand)
		if err == nil {
			return rel, nil
		}
		lastErr = err
		if fe, ok := err.(*forge.Error); !ok || fe.Kind != forge.KindNotFound {
			return nil, err
		}
	}
	return nil, lastErr
}

func buildForge(req *InstallRequest) (forge.Forge, string, error) {
	selector := forge.Infer(req.Project, string(req.ForgeSelector))
	ownerRepo := forge.OwnerRepo(req.Project)

	switch selector {
	case forge.SelectorGitLab:
		return forge.NewGitLab(ownerRepo, req.APIBase, req.Token, false, req.logger()), ownerRepo, nil
	default:
		g, err := forge.NewGitHub(ownerRepoOwner(ownerRepo), ownerRepoName(ownerRepo), req.APIBase, req.Token, req.logger())
		if err != nil {
			return nil, "", newErr(InvalidRequest, err, "building github client")
		}
		return g, ownerRepo, nil
	}
}

func ownerRepoOwner(ownerRepo string) string {
	parts := strings.SplitN(ownerRepo, "/", 2)
	if len(parts) != 2 {
		return ownerRepo
	}
	return parts[0]
}

func ownerRepoName(ownerRepo string) string {
	parts := strings.SplitN(ownerRepo, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func lastPathComponent(s string) string {
	s = strings.TrimRight(s, "/")
	return path.Base(s)
}

func translateForgeErr(err error) error {
	fe, ok := err.(*forge.Error)
	if !ok {
		return newErr(Transport, err, "forge request failed")
	}
	switch fe.Kind {
	case forge.KindUnauthorized:
		return newErr(Unauthorized, fe, "%s", fe.Message)
	case forge.KindRateLimited:
		return newErr(RateLimited, fe, "%s (reset=%s)", fe.Message, fe.ResetAt)
	case forge.KindNotFound:
		return newErr(NotFound, fe, "%s", fe.Message)
	case forge.KindMalformed:
		return newErr(Malformed, fe, "%s", fe.Message)
	default:
		return newErr(Transport, fe, "%s", fe.Message)
	}
}

func translatePickerErr(err error) error {
	nme, ok := err.(*picker.NoMatchError)
	if !ok {
		return newErr(NoMatch, err, "asset selection failed")
	}
	return newErr(NoMatch, nme, "no asset matched; last stage=%s, candidates=%v", nme.Stage, nme.Candidates)
}

func translateDownloadErr(err error) error {
	de, ok := err.(*download.Error)
	if !ok {
		return newErr(Transport, err, "download failed")
	}
	switch de.Kind {
	case download.KindIoFailed:
		return newErr(IoFailed, de, "download failed")
	case download.KindNotFound:
		return newErr(NotFound, de, "download failed")
	default:
		return newErr(Transport, de, "download failed")
	}
}

func translateArchiveErr(err error) error {
	switch e := err.(type) {
	case *archive.ErrNoExecutableFound:
		return newErr(NoExecutableFound, e, "%v", e)
	case *archive.ErrUnsafePath:
		return newErr(UnsafePath, e, "%v", e)
	case *archive.ErrExtractionFailed:
		return newErr(ExtractionFailed, e, "%v", e)
	default:
		return newErr(ExtractionFailed, err, "extraction failed")
	}
}
