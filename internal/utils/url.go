package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// JoinURL appends a relative file path to base. Separators are normalized to
// forward slashes and each segment is escaped by url.URL.
func JoinURL(base string, relPath string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + NormPath(relPath)
	u.RawPath = ""
	return u.String(), nil
}

// ValidateHTTPURL ensures raw is an absolute http(s) url.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
