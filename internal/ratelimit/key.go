package ratelimit

import "strings"

// keyNamespace scopes rate limit records in the shared store.
const keyNamespace = "ratelimit:apikey:"

// RecordKey builds the store key for an identity, with an optional
// deployment prefix.
func RecordKey(prefix, identity string) string {
	key := keyNamespace + identity
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
