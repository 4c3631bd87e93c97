package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// SplitEscaped splits an escaped path on "/" and unescapes each segment, so
// "%2F" stays inside its segment and the result matches the stored form.
func SplitEscaped(escaped string) ([]string, error) {
	segments := strings.Split(escaped, "/")
	for i, seg := range segments {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPath, err)
		}
		segments[i] = dec
	}
	return segments, nil
}

// Decompose turns path segments (already split on "/" with the API prefix
// removed) into a lookup key. The first segment is host[:port], possibly
// empty; the rest, if any, form the uri. A lone host gets uri "/".
func Decompose(segments []string) (Query, error) {
	if len(segments) == 0 {
		return Query{}, ErrMalformedPath
	}
	if strings.Contains(segments[0], "/") {
		return Query{}, fmt.Errorf("%w: host %q contains '/'", ErrMalformedPath, segments[0])
	}

	q := Query{Domain: segments[0], URI: "/"}
	if len(segments) > 1 {
		q.URI = "/" + strings.Join(segments[1:], "/")
	}
	return q, nil
}

// CanonicalDomain folds host[:port] for case-insensitive stores.
// The host is lowercased (IDNA lookup profile for non-ASCII input); the port is kept verbatim.
func CanonicalDomain(domain string) (string, error) {
	host, port := domain, ""
	if h, p, err := net.SplitHostPort(domain); err == nil {
		host, port = h, p
	}
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrMalformedPath)
	}

	var folded string
	if isASCII(host) {
		folded = strings.ToLower(host)
	} else {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: idna: %v", ErrMalformedPath, err)
		}
		folded = strings.ToLower(ascii)
	}

	if port == "" {
		return folded, nil
	}
	return net.JoinHostPort(folded, port), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
