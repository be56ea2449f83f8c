// Package download streams a single HTTP resource to a scoped
// temporary file, following redirects and propagating an
// authorization header only across same-host hops.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/net/http/httpguts"
)

// Request describes one download.
type Request struct {
	URL     string
	Headers map[string]string
	Client  *http.Client

	// KeepHeadersAcrossRedirect forces Headers to survive a redirect
	// even when the target host differs from URL's — GitLab's
	// "uploads" assets need this for their two-step download flow.
	KeepHeadersAcrossRedirect bool
}

// File is a scoped temp file: Close removes it from disk regardless
// of whether the caller read it successfully, mirroring the
// acquire-with-guaranteed-release pattern the installer needs for
// every exit path, including a panic unwinding through a deferred
// Close.
type File struct {
	*os.File
	path string
}

// Close closes the underlying handle and removes the file from disk.
// Safe to call multiple times.
func (f *File) Close() error {
	cerr := f.File.Close()
	rerr := os.Remove(f.path)
	if cerr != nil {
		return cerr
	}
	if rerr != nil && !os.IsNotExist(rerr) {
		return rerr
	}
	return nil
}

// Path returns the temp file's location on disk. Valid until Close.
func (f *File) Path() string {
	return f.path
}

// ErrKind mirrors the subset of fetchbin.Kind this package can
// produce, duplicated locally so this package has no dependency on
// the root package (it is imported by it).
type ErrKind string

const (
	KindTransport ErrKind = "transport"
	KindIoFailed  ErrKind = "io_failed"
	KindNotFound  ErrKind = "not_found"
)

// Error reports a download failure with its classification.
type Error struct {
	Kind  ErrKind
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

// Fetch streams req.URL's body to a new scoped temp file. On any
// error the temp file (if created) is removed before returning. The
// returned *File must be closed by the caller, which both closes the
// handle and removes the file.
func Fetch(req Request) (*File, error) {
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}

	httpReq, err := http.NewRequest(http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Cause: err}
	}
	for k, v := range req.Headers {
		if httpguts.ValidHeaderFieldName(k) {
			httpReq.Header.Set(k, v)
		}
	}

	originalHost := httpReq.URL.Host
	c := *client
	c.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		if r.URL.Host != originalHost && !req.KeepHeadersAcrossRedirect {
			r.Header.Del("Authorization")
			r.Header.Del("PRIVATE-TOKEN")
			r.Header.Del("JOB-TOKEN")
		}
		return nil
	}

	resp, err := c.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &Error{Kind: KindNotFound, Cause: fmt.Errorf("asset not found at %s", req.URL)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindTransport, Cause: fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, req.URL)}
	}

	tmp, err := os.CreateTemp("", "fetchbin-download-*")
	if err != nil {
		return nil, &Error{Kind: KindIoFailed, Cause: err}
	}
	f := &File{File: tmp, path: tmp.Name()}

	if _, err := io.Copy(f.File, resp.Body); err != nil {
		f.Close()
		return nil, &Error{Kind: KindIoFailed, Cause: err}
	}
	if _, err := f.File.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, &Error{Kind: KindIoFailed, Cause: err}
	}
	return f, nil
}
