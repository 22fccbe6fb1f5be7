package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

// Resolver turns a bearer token into the live identity it names.
type Resolver interface {
	Resolve(ctx context.Context, token string) (identity.Identity, error)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the bearer token and stores the identity on the
// request context.
func Authenticate(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.WriteError(w, r, logger, identity.NewError(identity.ErrUnauthorized, "Not authenticated"))
				return
			}

			ident, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				utils.WriteError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), ident)))
		})
	}
}

func require(check func(identity.Identity) error, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := utils.Caller(r)
			if err != nil {
				utils.WriteError(w, r, logger, err)
				return
			}
			if err := check(caller); err != nil {
				utils.WriteError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return require(identity.RequireAdmin, logger)
}

func RequireTrainerOrAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return require(identity.RequireTrainerOrAdmin, logger)
}

// CORS echoes the origin back only if it is allow-listed. A "*" entry
// allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	anyOrigin := false
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			_, ok := allowed[origin]
			if origin != "" && (ok || anyOrigin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Retry-After")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
