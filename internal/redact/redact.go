// Package redact scrubs sensitive-looking values out of debug log lines.
// A Request's attribute values are caller-supplied and occasionally carry
// credentials or other secrets (a bearer token used as a subject attribute,
// a password passed through as a resource attribute); this package keeps
// those out of the log sink without suppressing the attribute identifiers
// and structure that make debug logs useful.
package redact

import (
	"regexp"
	"sync"
)

// Pattern is one named scrub rule.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// DefaultPatterns returns the built-in set of scrub rules.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "email",
			Regex:       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
			Replacement: "[REDACTED_EMAIL]",
		},
		{
			Name:        "ssn",
			Regex:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[REDACTED_SSN]",
		},
		{
			Name:        "bearer_token",
			Regex:       regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_.-]{20,})`),
			Replacement: "$1[REDACTED_TOKEN]",
		},
		{
			Name:        "jwt",
			Regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
			Replacement: "[REDACTED_JWT]",
		},
		{
			Name:        "password_field",
			Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)[\s]*[=:][\s]*["']?([^\s"',}]{4,})["']?`),
			Replacement: "$1=[REDACTED_PASSWORD]",
		},
		{
			Name:        "api_key",
			Regex:       regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|auth[_-]?token)[:\s=]["']?([a-zA-Z0-9_.-]{16,})["']?`),
			Replacement: "$1=[REDACTED_KEY]",
		},
	}
}

// Redactor applies an ordered set of patterns to a string. The zero value is
// not usable; construct one with New.
type Redactor struct {
	mu       sync.RWMutex
	patterns []Pattern
	enabled  bool
}

// New returns a Redactor using the default pattern set, enabled.
func New() *Redactor {
	return &Redactor{patterns: DefaultPatterns(), enabled: true}
}

// SetEnabled toggles whether Redact scrubs or passes values through.
func (r *Redactor) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// AddPattern appends a custom scrub rule.
func (r *Redactor) AddPattern(name, pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, Pattern{Name: name, Regex: re, Replacement: replacement})
	return nil
}

// Redact returns value with every matching pattern's replacement applied.
func (r *Redactor) Redact(value string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled {
		return value
	}
	out := value
	for _, p := range r.patterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	return out
}
