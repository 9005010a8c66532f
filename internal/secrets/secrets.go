// Package secrets resolves credentials given in the configuration either as
// literals, as ${VAR} references to the environment, or as files such as
// Docker or Kubernetes mounted secrets.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxFileSize limits secret file reads; secrets are tokens, not documents
const maxFileSize = 64 * 1024

// reference matches ${VAR} and ${VAR:-fallback}; a bare $VAR is literal text
var reference = regexp.MustCompile(`\$\{[^}]+\}`)

// Expand replaces ${VAR} and ${VAR:-fallback} references with environment
// values. A reference without fallback to an unset variable is an error.
// Any other '$' is kept, so passwords may contain it.
func Expand(s string) (string, error) {
	var missing []string
	expanded := reference.ReplaceAllStringFunc(s, func(match string) string {
		name, fallback, hasFallback := strings.Cut(match[2:len(match)-1], ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("unset environment variable(s): %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// ReadFile returns the contents of a secret file without trailing newlines.
func ReadFile(path string) (string, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret file %s is not a regular file", path)
	}
	if info.Size() > maxFileSize {
		return "", fmt.Errorf("secret file %s exceeds %d bytes", path, maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("secret file: %w", err)
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}
