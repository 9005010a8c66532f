// Package message composes SMS text.
package message

import "fmt"

// Simple returns content unchanged.
func Simple(content string) string {
	return content
}

// Credential formats a password notice for the named service.
func Credential(title, body string) string {
	return fmt.Sprintf("Your password for %s is %s", title, body)
}

// Compose picks the credential template when title is set, otherwise the simple one.
func Compose(title, content string) string {
	if title != "" {
		return Credential(title, content)
	}
	return Simple(content)
}
