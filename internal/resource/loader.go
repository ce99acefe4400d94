// Package resource opens configuration and mapper documents by resource path
// or URL.
package resource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"sqlmap-builder/config"
)

// Loader opens documents from a filesystem and from URLs.
type Loader struct {
	fsys   fs.FS
	client *http.Client
}

// NewLoader returns a loader over fsys. A nil client uses http.DefaultClient.
func NewLoader(fsys fs.FS, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Loader{fsys: fsys, client: client}
}

// Clean validates a resource path and returns its canonical form.
func Clean(resource string) (string, error) {
	if resource == "" {
		return "", fmt.Errorf("resource path is empty")
	}

	if strings.Contains(resource, "\\") {
		return "", fmt.Errorf("resource path contains backslash: %q", resource)
	}

	canonical := path.Clean(strings.TrimPrefix(resource, "/"))
	if canonical == "." {
		return "", fmt.Errorf("resource path is empty")
	}

	if canonical == ".." || strings.HasPrefix(canonical, "../") {
		return "", fmt.Errorf("resource path escapes root: %q", resource)
	}

	return canonical, nil
}

// Open opens a resource from the loader's filesystem.
func (l *Loader) Open(resource string) (io.ReadCloser, error) {
	name, err := Clean(resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrResourceNotFound, err)
	}

	if l == nil || l.fsys == nil {
		return nil, fmt.Errorf("%w: %s (no resource filesystem configured)", config.ErrResourceNotFound, name)
	}

	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrResourceNotFound, name, err)
	}

	return f, nil
}

// Exists reports whether a resource can be opened.
func (l *Loader) Exists(resource string) bool {
	name, err := Clean(resource)
	if err != nil || l == nil || l.fsys == nil {
		return false
	}

	_, err = fs.Stat(l.fsys, name)

	return err == nil
}

// OpenURL opens a file://, http:// or https:// URL. Relative file URLs are
// resolved against the loader's filesystem.
func (l *Loader) OpenURL(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", config.ErrResourceNotFound, rawURL, err)
	}

	switch u.Scheme {
	case "file":
		p := u.Path
		if u.Opaque != "" {
			p = u.Opaque
		} else if u.Host != "" {
			p = u.Host + u.Path
		}

		if !path.IsAbs(p) || u.Opaque != "" || u.Host != "" {
			return l.Open(p)
		}

		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", config.ErrResourceNotFound, rawURL, err)
		}

		return f, nil
	case "http", "https":
		return l.get(ctx, rawURL)
	default:
		return nil, fmt.Errorf("%w: unsupported url scheme %q in %s", config.ErrResourceNotFound, u.Scheme, rawURL)
	}
}

func (l *Loader) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrResourceNotFound, rawURL, err)
	}

	client := http.DefaultClient
	if l != nil && l.client != nil {
		client = l.client
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrResourceNotFound, rawURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %s", config.ErrResourceNotFound, rawURL, resp.Status)
	}

	return resp.Body, nil
}

// ReadAll opens a resource or URL and reads it fully.
func (l *Loader) ReadAll(ctx context.Context, resource, rawURL string) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)

	if rawURL != "" {
		rc, err = l.OpenURL(ctx, rawURL)
	} else {
		rc, err = l.Open(resource)
	}

	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s%s: %w", resource, rawURL, err)
	}

	return data, nil
}
