// Package urlnorm normalizes blog URLs into the canonical form used as the
// sole deduplication key across the queue, content cache, and whitelist
// checks. Normalization is pure and idempotent: Normalize(Normalize(x)) == Normalize(x).
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

var duplicateSlashes = regexp.MustCompile(`/{2,}`)

// defaultPorts maps scheme to the port that is implied and therefore stripped.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize strips the fragment, lower-cases scheme and host, removes the
// default port for the scheme, removes a leading "www.", collapses
// duplicate slashes and a trailing slash in the path, and leaves the query
// string ordering untouched.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""
	u.RawFragment = ""

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	port := u.Port()
	if dp, ok := defaultPorts[u.Scheme]; ok && port == dp {
		port = ""
	}
	if port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	path := duplicateSlashes.ReplaceAllString(u.Path, "/")
	path = strings.TrimSuffix(path, "/")
	u.Path = path

	return u.String(), nil
}

// Domain returns the lower-cased, www-stripped host of a normalized or raw URL.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// HasPrefix reports whether normalized URL candidate starts with normalized
// prefix — used by CheckWhitelist (§4.4), with both sides normalized first.
func HasPrefix(candidate, prefix string) bool {
	nc, err := Normalize(candidate)
	if err != nil {
		return false
	}
	np, err := Normalize(prefix)
	if err != nil {
		return false
	}
	return strings.HasPrefix(nc, np)
}

// MatchesDomain reports whether requestHost matches registeredDomain exactly,
// or — when allowSubdomain is true — registeredDomain is the longest suffix
// of requestHost at a label boundary (e.g. "a.b.example.com" matches
// registered "example.com" but not registered "xample.com").
func MatchesDomain(requestHost, registeredDomain string, allowSubdomain bool) bool {
	requestHost = strings.ToLower(strings.TrimPrefix(requestHost, "www."))
	registeredDomain = strings.ToLower(strings.TrimPrefix(registeredDomain, "www."))

	if requestHost == registeredDomain {
		return true
	}
	if !allowSubdomain {
		return false
	}

	reqLabels := strings.Split(requestHost, ".")
	regLabels := strings.Split(registeredDomain, ".")
	if len(regLabels) >= len(reqLabels) {
		return false
	}

	// Compare from the right, label by label — a label-boundary suffix match.
	offset := len(reqLabels) - len(regLabels)
	for i, label := range regLabels {
		if reqLabels[offset+i] != label {
			return false
		}
	}
	return true
}
