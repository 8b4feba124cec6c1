package utils

import (
	"fmt"
	"net/url"
)

// RewriteHost returns rawURL with its scheme, host and port replaced while
// keeping path and query intact. Used to redirect idempotent reads through
// the edge cache endpoint.
func RewriteHost(rawURL, scheme, host string, port int) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host to rewrite", rawURL)
	}

	parsed.Scheme = scheme
	if isDefaultPort(scheme, port) {
		parsed.Host = host
	} else {
		parsed.Host = fmt.Sprintf("%s:%d", host, port)
	}
	return parsed.String(), nil
}

func isDefaultPort(scheme string, port int) bool {
	switch scheme {
	case "http":
		return port == 80
	case "https":
		return port == 443
	default:
		return false
	}
}
