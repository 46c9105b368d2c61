package logging

import "strings"

const redacted = "[redacted]"

var secretKeyFragments = []string{"secret", "password", "token", "api_key", "apikey", "credentials", "authorization"}

// isSecretKey reports whether an attribute key names a credential. Storage
// access keys are identifiers and stay visible; their secrets do not.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, fragment := range secretKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
