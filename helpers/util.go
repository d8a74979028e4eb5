package helpers

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// ListingID returns the trailing numeric segment of a listing URL path, as in
// ".../4-bedroom-townhouse-for-sale-karen-3844840", or 0 when there is none
func ListingID(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	slug := path.Base(strings.TrimSuffix(u.Path, "/"))
	parts := strings.Split(slug, "-")
	id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// ResolveURL makes protocol-relative and root-relative references absolute
// against base. Other references are returned unchanged.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	return ref
}

// HasExtension reports whether the URL path ends in one of exts, ignoring case
func HasExtension(rawURL string, exts ...string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, ext := range exts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
