package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const (
	defaultScheme = "https://"
	maxURLLength  = 2048
)

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// NormalizeURL trims rawURL and prefixes it with https:// when no scheme is present.
// The result must be an absolute http or https URL with a host.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: url is empty", entity.ErrInvalidURL)
	}

	if !schemePrefix.MatchString(s) {
		s = defaultScheme + s
	}

	if len(s) > maxURLLength {
		return "", fmt.Errorf("%w: url is longer than %d characters", entity.ErrInvalidURL, maxURLLength)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", entity.ErrInvalidURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: url has no host", entity.ErrInvalidURL)
	}

	return s, nil
}
