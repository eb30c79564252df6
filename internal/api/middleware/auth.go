package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// TokenCookie is the cookie set at login.
const TokenCookie = "token"

// AuthMiddleware verifies JWTs on authenticated endpoints.
type AuthMiddleware struct {
	tokens *auth.TokenService
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid token. The token is taken
// from the Authorization bearer header, the token cookie, or, for websocket
// upgrades that cannot set headers, the token query parameter.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			jsonError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles through. It must run after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !lo.Contains(roles, claims.Role) {
				jsonError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if websocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// GetClaimsFromContext retrieves the authenticated claims from the request context.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}
