package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// ClientInfo is the parsed client metadata attached to each request.
type ClientInfo struct {
	IP      string
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

type contextKeyClientInfo struct{}

// ClientMetadata extracts the client IP and a parsed User-Agent and adds
// them to the context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.Header.Get("User-Agent"))
		browser, version := ua.Browser()
		info := ClientInfo{
			IP:      clientIPFromRequest(r),
			Browser: strings.TrimSpace(browser + " " + version),
			OS:      ua.OS(),
			Mobile:  ua.Mobile(),
			Bot:     ua.Bot(),
		}
		ctx := context.WithValue(r.Context(), contextKeyClientInfo{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientInfo retrieves the client metadata from the context.
func GetClientInfo(ctx context.Context) ClientInfo {
	if info, ok := ctx.Value(contextKeyClientInfo{}).(ClientInfo); ok {
		return info
	}
	return ClientInfo{}
}

// clientIPFromRequest extracts the client IP, handling proxies.
func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return ""
}
