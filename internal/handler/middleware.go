package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"pixgate/internal/auth"
	"pixgate/internal/model"
	"pixgate/internal/service"
	"pixgate/internal/util"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	apiKeyKey   contextKey = "api_key"
)

// IdentityFrom returns the identity resolved by RequireSession, or nil.
func IdentityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// APIKeyFrom returns the key validated by RequireAPIKey, or nil.
func APIKeyFrom(ctx context.Context) *model.APIKey {
	key, _ := ctx.Value(apiKeyKey).(*model.APIKey)
	return key
}

// RequireSession resolves the session cookie of the given kind and, when a
// role set is given, enforces membership. Missing or invalid sessions get
// 401 UNAUTHORIZED; a valid session with the wrong role gets 403 NOT_ADMIN.
func RequireSession(resolver *auth.Resolver, kind auth.Kind, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.ResolveIdentity(r, kind)
			if err != nil {
				util.Error("Session resolution failed", util.ErrorField(err))
				respondWithError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
				return
			}
			if identity == nil {
				respondWithError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
				return
			}
			if len(roles) > 0 && !auth.Authorize(identity, roles...) {
				respondWithError(w, http.StatusForbidden, CodeNotAdmin, "insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey validates the request's API key for one required scope.
// Keys arrive in the X-API-Key header or as a bearer token. Each rejection
// reason surfaces as its own code.
func RequireAPIKey(keys *service.APIKeyService, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := apiKeyToken(r)
			if raw == "" {
				respondWithError(w, http.StatusUnauthorized, CodeMissingToken, "missing api key")
				return
			}

			key, err := keys.ValidateKey(r.Context(), raw, scope, clientIP(r))
			if err != nil {
				respondWithServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func apiKeyToken(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
