package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultGitLabAPIBase is used when the request leaves APIBase empty.
const DefaultGitLabAPIBase = "https://gitlab.com/api/v4"

// GitLab resolves releases against the GitLab REST API directly with
// net/http + encoding/json, the same raw-request idiom the pack's
// jaredallard-vcs GitLab fetcher uses for asset downloads, rather than
// introducing a full GitLab SDK dependency this module does not
// otherwise need.
type GitLab struct {
	ProjectPath string // e.g. "owner/repo"
	APIBase     string
	Token       string
	JobToken    bool // true selects JOB-TOKEN over PRIVATE-TOKEN
	Logger      logrus.FieldLogger
	Client      *http.Client
}

func NewGitLab(projectPath, apiBase, token string, jobToken bool, logger logrus.FieldLogger) *GitLab {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	base := apiBase
	if base == "" {
		base = DefaultGitLabAPIBase
	}
	return &GitLab{
		ProjectPath: projectPath,
		APIBase:     base,
		Token:       token,
		JobToken:    jobToken,
		Logger:      logger,
		Client:      http.DefaultClient,
	}
}

type gitlabReleaseResponse struct {
	TagName string `json:"tag_name"`
	Assets  struct {
		Links []struct {
			Name           string `json:"name"`
			URL            string `json:"url"`
			DirectAssetURL string `json:"direct_asset_url"`
		} `json:"links"`
	} `json:"assets"`
}

func (g *GitLab) tokenHeader(req *http.Request) {
	if g.Token == "" {
		return
	}
	if g.JobToken {
		req.Header.Set("JOB-TOKEN", g.Token)
	} else {
		req.Header.Set("PRIVATE-TOKEN", g.Token)
	}
}

func (g *GitLab) ResolveRelease(ctx context.Context, project, tag string) (*Release, error) {
	encoded := url.PathEscape(g.ProjectPath)
	var endpoint string
	if tag == "" {
		endpoint = fmt.Sprintf("%s/projects/%s/releases/permalink/latest", g.APIBase, encoded)
	} else {
		endpoint = fmt.Sprintf("%s/projects/%s/releases/%s", g.APIBase, encoded, url.PathEscape(tag))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "building gitlab request", Cause: err}
	}
	g.tokenHeader(req)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "gitlab request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &Error{Kind: KindUnauthorized, Message: "gitlab returned 401"}
	case http.StatusForbidden:
		return nil, &Error{Kind: KindRateLimited, Message: "gitlab returned 403", ResetAt: resp.Header.Get("RateLimit-Reset")}
	case http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("gitlab release not found for project %q", g.ProjectPath)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("gitlab returned unexpected status %d", resp.StatusCode)}
	}

	var parsed gitlabReleaseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Kind: KindMalformed, Message: "gitlab release response did not parse", Cause: err}
	}
	if parsed.TagName == "" {
		return nil, &Error{Kind: KindMalformed, Message: "gitlab release response missing tag_name"}
	}

	out := &Release{Tag: parsed.TagName}
	for _, link := range parsed.Assets.Links {
		assetURL := link.DirectAssetURL
		if assetURL == "" {
			assetURL = link.URL
		}
		if link.Name == "" || assetURL == "" {
			continue
		}
		out.Assets = append(out.Assets, Asset{Name: link.Name, URL: assetURL})
	}
	g.Logger.Debugf("gitlab: resolved %s@%s with %d assets", g.ProjectPath, out.Tag, len(out.Assets))
	return out, nil
}

// PrepareDownload returns the asset's direct URL with the token
// header set. GitLab's "uploads" assets (as opposed to externally
// hosted links) may issue one further redirect as part of their
// two-step download flow, and that hop needs the token header kept
// even if it happens to land on a different host, so those assets set
// KeepHeadersAcrossRedirect for download.Fetch to honor.
func (g *GitLab) PrepareDownload(asset Asset) Download {
	headers := map[string]string{}
	if g.Token != "" {
		if g.JobToken {
			headers["JOB-TOKEN"] = g.Token
		} else {
			headers["PRIVATE-TOKEN"] = g.Token
		}
	}
	return Download{
		URL:                       asset.URL,
		Headers:                   headers,
		KeepHeadersAcrossRedirect: isUploadsAsset(asset.URL),
	}
}

// isUploadsAsset reports whether a GitLab asset URL is one of the
// project's own uploaded files (as opposed to an externally hosted
// link), which is where the two-step redirect historically happens.
func isUploadsAsset(rawURL string) bool {
	return strings.Contains(rawURL, "/uploads/")
}
