package service

import (
	"net/url"
	"strings"
	"time"
)

// MaxURLLength caps the accepted target URL.
const MaxURLLength = 2048

// ValidateURL accepts absolute http(s) URLs with a host. The value is stored as given.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return invalid("url", "url is required")
	}
	if len(raw) > MaxURLLength {
		return invalid("url", "url is too long")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return invalid("url", "url is not valid")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("url", "url must use http or https")
	}
	if u.Host == "" || u.Hostname() == "" {
		return invalid("url", "url must have a host")
	}
	return nil
}

// ValidateExpiry rejects an expiry that is not in the future.
func ValidateExpiry(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && !expiresAt.After(now) {
		return invalid("expiresAt", "expiresAt must be in the future")
	}
	return nil
}
