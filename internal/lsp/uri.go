package lsp

import (
	"net/url"
	"path/filepath"
)

// cleanPath makes a slash or OS path absolute and clean. Every path that
// becomes a document key goes through it.
func cleanPath(path string) string {
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// uriToPath returns the file path of a file:// URI. A bare path is taken
// as is; other schemes ("untitled:") have no path.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	switch {
	case err != nil:
		return ""
	case u.Scheme == "file":
		// url.Parse уже раскодировал %XX
		return cleanPath(u.Path)
	case u.Scheme == "":
		return cleanPath(uri)
	}
	return ""
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(cleanPath(path))}
	return u.String()
}

// canonicalURI normalizes a client URI so that one file has one key.
func canonicalURI(uri string) string {
	return pathToURI(uriToPath(uri))
}
