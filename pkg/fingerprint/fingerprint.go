// Package fingerprint computes stable identities for content items. The primary identity is
// a hash of the normalized URL; a hash of the normalized body is kept as a secondary signal
// for republished content and never used for identity on its own.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/newsdigest/pkg/domain"
)

// DefaultTrackingParams are query parameters stripped during normalization.
// Entries ending with "*" match by prefix.
var DefaultTrackingParams = []string{
	"utm_*", "fbclid", "gclid", "dclid", "mc_cid", "mc_eid", "igshid", "ref", "ref_src", "source", "_hsenc", "_hsmi",
}

// Fingerprinter normalizes URLs and hashes them
type Fingerprinter struct {
	exact    map[string]bool
	prefixes []string
	policy   *bluemonday.Policy
}

// Result is a computed identity of a content item
type Result struct {
	Fingerprint string // sha256 of the normalized URL
	BodyHash    string // sha256 of the normalized body, empty if no body
	Normalized  string // normalized URL
}

// New makes a Fingerprinter stripping the given tracking params, DefaultTrackingParams if none passed
func New(trackingParams ...string) *Fingerprinter {
	if len(trackingParams) == 0 {
		trackingParams = DefaultTrackingParams
	}
	res := &Fingerprinter{exact: map[string]bool{}, policy: bluemonday.StrictPolicy()}
	for _, p := range trackingParams {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "*") {
			res.prefixes = append(res.prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		res.exact[p] = true
	}
	return res
}

// Compute returns the fingerprint of an item with the given URL and optional body
func (f *Fingerprinter) Compute(rawURL, body string) (Result, error) {
	normalized, err := f.NormalizeURL(rawURL)
	if err != nil {
		return Result{}, err
	}
	res := Result{Normalized: normalized, Fingerprint: hash(normalized)}
	if text := f.normalizeBody(body); text != "" {
		res.BodyHash = hash(text)
	}
	return res, nil
}

// NormalizeURL lower-cases scheme and host, drops default ports, fragments and tracking params,
// sorts the remaining query and strips the trailing slash
func (f *Fingerprinter) NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", &domain.InvalidContentError{URL: rawURL, Reason: "empty url"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &domain.InvalidContentError{URL: rawURL, Reason: err.Error()}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", &domain.InvalidContentError{URL: rawURL, Reason: "unsupported scheme " + scheme}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", &domain.InvalidContentError{URL: rawURL, Reason: "missing host"}
	}
	port := u.Port()
	switch {
	case port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443"):
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]" // ipv6 literal keeps its brackets without a port
	}

	query := u.Query()
	for key := range query {
		if f.isTracking(key) {
			query.Del(key)
		}
	}

	res := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     strings.TrimRight(u.Path, "/"),
		RawPath:  strings.TrimRight(u.RawPath, "/"),
		RawQuery: query.Encode(),
	}
	return res.String(), nil
}

func (f *Fingerprinter) isTracking(key string) bool {
	key = strings.ToLower(key)
	if f.exact[key] {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// normalizeBody strips html, collapses whitespace and lower-cases the text
func (f *Fingerprinter) normalizeBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	text := f.policy.Sanitize(body)
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
