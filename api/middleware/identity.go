package middleware

import (
	"context"
	"net/http"

	"github.com/shopvista/storefront/internal/identity"
	"github.com/shopvista/storefront/pkg/logger"
)

type identityCtxKey struct{}

// Identity resolves the persisted session and attaches the signed-in email to
// the request context. Requests keep flowing when nobody is signed in;
// controllers decide whether that is acceptable.
func Identity(session *identity.Session, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			email, err := session.Current(ctx)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "session.load_failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if email != "" {
				ctx = WithIdentity(ctx, email)
				if logg != nil {
					ctx = logg.WithIdentity(ctx, email)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity attaches the signed-in email to the context.
func WithIdentity(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, email)
}

// IdentityFromContext returns the signed-in email, empty when anonymous.
func IdentityFromContext(ctx context.Context) string {
	email, _ := ctx.Value(identityCtxKey{}).(string)
	return email
}
