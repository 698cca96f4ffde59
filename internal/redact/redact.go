// Package redact masks credentials before they reach logs, history or the
// terminal.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

const redactedText = "[REDACTED]"

var patterns = []*regexp.Regexp{
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	// key=... query parameters
	regexp.MustCompile(`(?i)([?&]key=)[^&\s"']+`),
	// api_key / apikey assignments
	regexp.MustCompile(`(?i)(api[_-]?key["\s:=]+["']?)[a-zA-Z0-9_-]{8,}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_.-]{8,}`),
}

// Text masks API-key-like substrings. Prefixes such as "key=" are kept so
// the masked text still reads naturally.
func Text(text string) string {
	for _, pattern := range patterns {
		if pattern.NumSubexp() == 0 {
			text = pattern.ReplaceAllString(text, redactedText)
			continue
		}
		text = pattern.ReplaceAllString(text, "${1}"+redactedText)
	}
	return text
}

// URL masks the key query parameter of raw. Unparseable input falls back
// to Text.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return Text(raw)
	}
	q := u.Query()
	if !q.Has("key") {
		return raw
	}
	q.Set("key", redactedText)
	u.RawQuery = q.Encode()
	// Keep the brackets readable instead of percent-encoded.
	return strings.NewReplacer("%5B", "[", "%5D", "]").Replace(u.String())
}

// Secret shows only the last four characters of s.
func Secret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// ContainsSecret reports whether text matches any credential pattern.
func ContainsSecret(text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
