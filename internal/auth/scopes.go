package auth

import "strings"

// ScopeAllowed reports whether a granted scope list covers the required
// scope. A grant ending in ":*" matches any scope sharing its prefix, so
// "webhooks:*" covers "webhooks:read". Matching lives here so no call site
// parses scope strings ad hoc.
func ScopeAllowed(granted []string, required string) bool {
	if required == "" {
		return false
	}
	for _, scope := range granted {
		if scope == required {
			return true
		}
		if prefix, ok := strings.CutSuffix(scope, ":*"); ok {
			if strings.HasPrefix(required, prefix+":") {
				return true
			}
		}
	}
	return false
}

// ValidateScopes rejects empty or whitespace-only scope entries. A key with
// scopes present must carry a non-empty array of validated strings.
func ValidateScopes(scopes []string) bool {
	if len(scopes) == 0 {
		return false
	}
	for _, s := range scopes {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}
