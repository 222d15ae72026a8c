// Package site decides which URLs belong to the mirrored site and maps them
// to local file names.
package site

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// HomeName is used when a URL has no path left after the root is removed.
	HomeName = "home"
	// IndexName is the name static hosts serve for a bare directory.
	IndexName = "index"
	// Ext is appended to every local file name.
	Ext = ".html"
)

// Root is the immutable base URL that bounds a crawl.
type Root struct {
	raw  string
	path string
	u    *url.URL
}

// New parses root and returns a Root. The URL must be absolute.
func New(root string) (Root, error) {
	u, err := url.Parse(root)
	if err != nil {
		return Root{}, fmt.Errorf("invalid site root %q: %w", root, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Root{}, fmt.Errorf("site root %q must be an absolute URL", root)
	}
	return Root{raw: root, path: u.Path, u: u}, nil
}

// String returns the root exactly as configured.
func (r Root) String() string {
	return r.raw
}

// Origin returns scheme://host of the root.
func (r Root) Origin() string {
	if r.u == nil {
		return ""
	}
	return r.u.Scheme + "://" + r.u.Host
}

// IsInternal reports whether u starts with the root. This is a plain
// textual prefix test.
func (r Root) IsInternal(u string) bool {
	return r.raw != "" && strings.HasPrefix(u, r.raw)
}

// Canonicalize resolves href against pageURL and drops the query string and
// fragment. It returns false when either value cannot be parsed.
func Canonicalize(pageURL, href string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	full := ref.String()
	full, _, _ = strings.Cut(full, "?")
	full, _, _ = strings.Cut(full, "#")
	return full, true
}

// LocalFilename maps u to the file it is saved as. The root's path segment is
// removed from u's path, surrounding slashes are trimmed, inner slashes
// become underscores and an empty result becomes HomeName.
func (r Root) LocalFilename(u string) string {
	p := u
	if parsed, err := url.Parse(u); err == nil {
		p = parsed.Path
	}
	if strings.Trim(r.path, "/") != "" {
		p = strings.ReplaceAll(p, r.path, "")
	}
	p = strings.ReplaceAll(strings.Trim(p, "/"), "/", "_")
	if p == "" {
		p = HomeName
	}
	return p + Ext
}
