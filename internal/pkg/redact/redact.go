// Package redact strips credentials from diagnostic text before it is logged
// or returned to callers.
package redact

import (
	"regexp"
)

const mask = "[REDACTED]"

var patterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// query string and form style secrets: api_key=..., token=..., client_secret=...
	{regexp.MustCompile(`(?i)\b((?:api[_-]?key|apikey|key|access[_-]?token|token|client[_-]?secret|secret|password)=)[^&\s"']+`), "${1}" + mask},
	// JSON style secrets: "api_key": "..."
	{regexp.MustCompile(`(?i)("(?:api[_-]?key|access[_-]?token|token|client[_-]?secret|password)"\s*:\s*")[^"]*(")`), "${1}" + mask + "${2}"},
	// HTTP authorization headers
	{regexp.MustCompile(`(?i)\b(authorization:\s*(?:bearer|basic)\s+)[A-Za-z0-9\-._~+/=]+`), "${1}" + mask},
	{regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9\-._~+/=]{8,}`), "${1}" + mask},
}

// Secrets replaces credentials in s with a fixed mask.
func Secrets(s string) string {
	if s == "" {
		return s
	}
	for _, p := range patterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}

// Error returns the redacted message of err, or "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Secrets(err.Error())
}
