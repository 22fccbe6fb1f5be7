package utils

import (
	"net"
	"net/http"
	"strings"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

// Caller returns the identity the auth middleware attached to the request.
func Caller(r *http.Request) (identity.Identity, error) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		return identity.Identity{}, identity.NewError(identity.ErrUnauthorized, "Could not validate credentials")
	}
	return id, nil
}

// ClientIP prefers the address chi's RealIP middleware has already resolved.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
