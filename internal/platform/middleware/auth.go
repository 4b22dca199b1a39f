package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Role gates route groups: companies submit and commit, auditors dispose and
// verify.
type Role string

const (
	RoleCompany Role = "company"
	RoleAuditor Role = "auditor"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	Subject string
	Role    Role
}

type contextKeySubject struct{}
type contextKeyRole struct{}

// GetSubject retrieves the authenticated subject from the context.
func GetSubject(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeySubject{}).(string); ok {
		return s
	}
	return ""
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) Role {
	if r, ok := ctx.Value(contextKeyRole{}).(Role); ok {
		return r
	}
	return ""
}

// WithIdentity injects subject and role into a context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithIdentity(ctx context.Context, subject string, role Role) context.Context {
	ctx = context.WithValue(ctx, contextKeySubject{}, subject)
	return context.WithValue(ctx, contextKeyRole{}, role)
}

// RequireRole validates the bearer token and enforces the required role.
func RequireRole(validator JWTValidator, role Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Role != role {
				logger.WarnContext(ctx, "forbidden - wrong role",
					"have", string(claims.Role),
					"want", string(role),
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"authorization_error","error_description":"Insufficient role"}`))
				return
			}

			ctx = WithIdentity(ctx, claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
