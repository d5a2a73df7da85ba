package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

type tokenVerifier interface {
	Verify(token string) (string, error)
}

type ownerIDKey struct{}

func withOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

func ownerIDFromContext(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerIDKey{}).(string)
	return ownerID
}

// authenticate resolves the bearer token to an owner id and stores it in the request context.
func authenticate(tokens tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, credentials, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || credentials == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, unauthorizedResponse)
				return
			}

			ownerID, err := tokens.Verify(strings.TrimSpace(credentials))
			if err != nil || ownerID == "" {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, unauthorizedResponse)
				return
			}

			next.ServeHTTP(w, r.WithContext(withOwnerID(r.Context(), ownerID)))
		})
	}
}
