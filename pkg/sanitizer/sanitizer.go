// Package sanitizer normalizes respondent identity input and masks
// personal data and credentials before they reach logs.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

// Sanitizer masks sensitive fragments in free text such as upstream error
// bodies.
type Sanitizer struct {
	patterns []*regexp.Regexp
	maxSize  int
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Pattern definitions for credentials and personal data that collaborator
// responses may echo back.
var defaultPatterns = []*regexp.Regexp{
	// API keys
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{20,})['"]?`),
	regexp.MustCompile(`\bsk-(ant-)?[a-zA-Z0-9_\-]{16,}`),
	regexp.MustCompile(`\bre_[a-zA-Z0-9_]{16,}`),
	regexp.MustCompile(`\b(secret|ntn)_[a-zA-Z0-9]{20,}`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)(token|session)\s*[:=]\s*['"]?([a-fA-F0-9]{32,})['"]?`),

	// Passwords
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{4,})['"]?`),

	// Database connection strings
	regexp.MustCompile(`(?i)(postgres|postgresql|redis):\/\/[^@]+@[^\s]+`),

	// Email addresses (PII)
	emailPattern,
}

// New creates a new Sanitizer with default patterns.
func New(maxSize int) *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns,
		maxSize:  maxSize,
	}
}

// Sanitize trims, truncates to the size limit and masks secrets.
func (s *Sanitizer) Sanitize(text string) string {
	text = strings.TrimSpace(text)

	if s.maxSize > 0 && len(text) > s.maxSize {
		text = truncate(text, s.maxSize)
	}

	for _, pattern := range s.patterns {
		text = pattern.ReplaceAllStringFunc(text, maskValue)
	}
	return text
}

// maskValue creates a masked version of a matched secret.
func maskValue(match string) string {
	if emailPattern.MatchString(match) && !strings.ContainsAny(match, ":= ") {
		return MaskEmail(match)
	}

	if len(match) <= 8 {
		return "[REDACTED]"
	}

	if idx := strings.IndexAny(match, ":="); idx != -1 {
		return match[:idx+1] + "[REDACTED]"
	}

	if len(match) > 10 {
		return match[:4] + "****" + match[len(match)-4:]
	}

	return "[REDACTED]"
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// MaskEmail keeps the first character of the local part and the domain:
// "maria@firm.com.br" becomes "m****@firm.com.br". Input without an "@" is
// fully redacted.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "[REDACTED]"
	}
	return email[:1] + "****" + email[at:]
}

// NormalizeText trims the value, drops control characters and collapses
// runs of whitespace into a single space.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			continue
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName normalizes a respondent name.
func NormalizeName(name string) string {
	return NormalizeText(name)
}

// NormalizeCompany normalizes a company name.
func NormalizeCompany(company string) string {
	return NormalizeText(company)
}

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmpty checks if the text is empty or whitespace only.
func IsEmpty(text string) bool {
	return strings.TrimSpace(text) == ""
}
