package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type clientMetadataKey struct{}

// ClientMetadata carries the request's network identity for audit records.
type ClientMetadata struct {
	IP        string
	UserAgent string
}

// WithClientMetadata attaches client IP and User-Agent to the context.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientMetadataKey{}, ClientMetadata{IP: ip, UserAgent: userAgent})
}

// GetClientMetadata retrieves client metadata from the context.
// Returns zero values when the metadata middleware did not run.
func GetClientMetadata(ctx context.Context) ClientMetadata {
	if meta, ok := ctx.Value(clientMetadataKey{}).(ClientMetadata); ok {
		return meta
	}
	return ClientMetadata{}
}

// Metadata extracts client IP address and User-Agent from the request and
// adds them to the context. When trustProxy is set the first X-Forwarded-For
// entry wins; otherwise only the direct connection address is trusted.
func Metadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteIP(r)
			if trustProxy {
				if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
					if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
						ip = first
					}
				}
			}
			ctx := WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
