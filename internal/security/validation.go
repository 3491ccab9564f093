package security

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ValidThemeIDRegex allows alphanumeric, dash, underscore, and dot
	ValidThemeIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	// ValidVersionRegex allows standard version formats
	ValidVersionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)

	// SCPLikeURLRegex matches git's user@host:path shorthand
	SCPLikeURLRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*@[a-zA-Z0-9][a-zA-Z0-9.-]*:[^\s-][^\s]*$`)
)

// ValidateThemeID validates a theme or sub-package id. Ids double as file
// names in the manifest stores, so they must be a safe single segment.
func ValidateThemeID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	if len(id) > 255 {
		return fmt.Errorf("id too long (max 255 characters)")
	}

	if id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid id %q: must not start with a dot", id)
	}

	if !ValidThemeIDRegex.MatchString(id) {
		return fmt.Errorf("invalid id %q: must contain only alphanumeric, dash, underscore, or dot characters", id)
	}

	return nil
}

// ValidateVersion validates a version string
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("invalid version: version cannot be empty")
	}

	if len(version) >= 100 {
		return fmt.Errorf("version string too long (max 100 characters)")
	}

	if strings.Contains(version, "..") {
		return fmt.Errorf("invalid version: contains dangerous pattern: ..")
	}

	if !ValidVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version format: must be alphanumeric with dots, dashes, or plus signs")
	}

	return nil
}

// ValidateArchiveURL checks that a zip source URL can be downloaded over
// HTTP
func ValidateArchiveURL(raw string) error {
	u, err := parseSourceURL(raw)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported url scheme %q for an archive", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("source url has no host: %s", raw)
	}
	return nil
}

// ValidateGitURL checks that a URL is something git clone accepts: an
// http, https, git, ssh or file URL, or the user@host:path shorthand
func ValidateGitURL(raw string) error {
	if SCPLikeURLRegex.MatchString(raw) {
		return nil
	}

	u, err := parseSourceURL(raw)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http", "https", "git", "ssh", "file":
	default:
		return fmt.Errorf("unsupported url scheme %q for a git repository", u.Scheme)
	}
	if u.Scheme != "file" && u.Host == "" {
		return fmt.Errorf("source url has no host: %s", raw)
	}
	return nil
}

func parseSourceURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("source url cannot be empty")
	}
	if strings.ContainsAny(raw, "\x00\n\r") {
		return nil, fmt.Errorf("source url contains control characters")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	return u, nil
}
