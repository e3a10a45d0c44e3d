// Package redact implements the PHI redaction boundary. Every log emission
// that could contain a field value, name or document-derived text passes
// through Redact before it leaves the pipeline's logging call site.
package redact

import (
	"fmt"
	"log"
	"regexp"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Recognizable PHI patterns, each replaced with a fixed per-category
// placeholder. SSN must run before the generic phone pattern.
var rules = []rule{
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[REDACTED-SSN]"},
	{regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), "[REDACTED-PHONE]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED-EMAIL]"},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), "[REDACTED-DATE]"},
	{regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), "[REDACTED-DATE]"},
	{regexp.MustCompile(`(?i)\bMRN[:\s]*\d+\b`), "[REDACTED-MRN]"},
	{regexp.MustCompile(`(?i)\b(patient|name)[:\s]+[A-Z][a-z]+\s+[A-Z][a-z]+\b`), "[REDACTED-NAME]"},
}

// Redact replaces recognizable PHI patterns in s with fixed placeholders.
func Redact(s string) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// Logger is a redacting log sink. All formatted messages are passed through
// Redact before reaching the underlying logger.
type Logger struct {
	prefix string
}

// NewLogger creates a redacting logger with the given component prefix.
func NewLogger(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

// Printf formats, redacts and emits a log line.
func (l *Logger) Printf(format string, args ...any) {
	msg := Redact(fmt.Sprintf(format, args...))
	if l.prefix != "" {
		log.Printf("%s: %s", l.prefix, msg)
	} else {
		log.Print(msg)
	}
}
