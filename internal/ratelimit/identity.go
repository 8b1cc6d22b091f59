package ratelimit

import (
	"net/http"
	"strings"
)

// Credential sources checked by IdentityFromRequest, in preference order.
const (
	apiKeyHeader = "X-API-Key"
	bearerScheme = "Bearer "
	apiKeyQuery  = "api_key"
)

// IdentityFromRequest extracts the caller credential from the request.
// It returns an empty string when the request carries no credential, in
// which case rate limiting does not apply.
func IdentityFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Header.Get(apiKeyHeader)); v != "" {
		return v
	}
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		if len(auth) > len(bearerScheme) && strings.EqualFold(auth[:len(bearerScheme)], bearerScheme) {
			if token := strings.TrimSpace(auth[len(bearerScheme):]); token != "" {
				return token
			}
		}
	}
	if r.URL != nil {
		if v := strings.TrimSpace(r.URL.Query().Get(apiKeyQuery)); v != "" {
			return v
		}
	}
	return ""
}
