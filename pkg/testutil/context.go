package testutil

import (
	"net/http"

	"sealedger/internal/platform/middleware"
)

// WithRole injects an authenticated subject and role into the request
// context. This simulates what the auth middleware does for authenticated
// requests, letting handler tests skip token minting.
func WithRole(req *http.Request, subject string, role middleware.Role) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), subject, role))
}

// WithCompany marks the request as an authenticated company user.
func WithCompany(req *http.Request, subject string) *http.Request {
	return WithRole(req, subject, middleware.RoleCompany)
}

// WithAuditor marks the request as an authenticated auditor.
func WithAuditor(req *http.Request, subject string) *http.Request {
	return WithRole(req, subject, middleware.RoleAuditor)
}
