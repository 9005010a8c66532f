package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// SensitiveDataPatterns contains regex patterns for sensitive data that should be redacted in logs
var SensitiveDataPatterns = []*regexp.Regexp{
	// Credentials embedded in query strings or form bodies
	regexp.MustCompile(`(?i)((api[_-]?key|api[_-]?secret|password|passwd|token)=)([^&;,\s]+)`),

	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
}

// SensitiveKeywords are keywords that indicate fields may contain sensitive data
var SensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "api_key", "apikey", "authorization",
}

// RedactSensitiveData replaces sensitive information inside free text with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}"+redacted)
	}

	return input
}

// isSensitiveKey reports whether a field key names a secret
func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range SensitiveKeywords {
		if strings.Contains(keyLower, sensitiveKey) {
			return true
		}
	}
	return false
}

// redactField returns f with its value masked when the key is sensitive,
// or with embedded credentials scrubbed when the value is free text.
func redactField(f Field) Field {
	s, ok := f.Value.(string)
	if !ok {
		return f
	}
	if isSensitiveKey(f.Key) {
		if s != "" {
			f.Value = redacted
		}
		return f
	}
	f.Value = RedactSensitiveData(s)
	return f
}
