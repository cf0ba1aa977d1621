package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// PathSegment returns a segment of rawURL's path counted from the end: fromEnd 0 is
// the trailing segment, 1 the one before it. Query and fragment are ignored so the
// result is stable when tracking parameters change.
func PathSegment(rawURL string, fromEnd int) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	parts := strings.Split(u.Path, "/")
	idx := len(parts) - 1 - fromEnd
	if fromEnd < 0 || idx < 0 {
		return "", fmt.Errorf("no path segment %d from end in %q", fromEnd, rawURL)
	}
	seg, err := url.PathUnescape(parts[idx])
	if err != nil {
		seg = parts[idx]
	}
	if seg == "" {
		return "", fmt.Errorf("empty path segment %d from end in %q", fromEnd, rawURL)
	}
	return seg, nil
}

// ResolveURL makes href absolute against base. Absolute hrefs are returned as-is.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", fmt.Errorf("cannot resolve %q against %q", href, base)
	}
	return b.ResolveReference(ref).String(), nil
}
