// Package redact strips credentials and infrastructure details from strings
// before they are written to logs or returned in server error responses.
// Connection URLs for the task stores, presigned S3 query strings and
// secret-looking parameters are the main concerns.
package redact

import (
	"regexp"
)

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedQueryPlaceholder      = "?[REDACTED_QUERY]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order; earlier rules see the unmodified input.
var rules = []rule{
	// Userinfo in any URL: postgres://u:p@h, mongodb+srv://u:p@h, rediss://:p@h, https://u:p@h
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/@\s]+@`), "${1}" + RedactedCredentialPlaceholder + "@"},
	// Query strings of URLs, which carry presigned signatures and tokens.
	{regexp.MustCompile(`(?i)(\b[a-z][a-z0-9+.-]*://[^\s?"']+)\?[^\s"']*`), "${1}" + RedactedQueryPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|access[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	{regexp.MustCompile(`(AKIA|ASIA)[A-Z0-9]{16}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{
		regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()$]+\b(?:FROM|INTO|SET)\b(?:[\s\w,*()='"$]+)?`,
		),
		"[REDACTED_SQL]",
	},
}

// pathRule hides absolute filesystem paths, but never paths inside URLs.
var pathRule = regexp.MustCompile(`(^|[\s:="'(])(/[\w.-]+){2,}`)

// String redacts credentials from input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts err's message. It returns "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// WithPaths is String plus removal of absolute filesystem paths. It is used
// for messages that leave the process, where paths reveal host layout.
func WithPaths(input string) string {
	return pathRule.ReplaceAllString(String(input), "${1}"+RedactedPathPlaceholder)
}
