package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/pdv-terminal/api/responses"
	pkgAuth "github.com/angelmondragon/pdv-terminal/pkg/auth"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
)

// Auth reads the PDV API bearer token, rejects locally expired tokens and seeds the
// context with the operator and the token forwarded on upstream calls.
// The signature is checked by the PDV API, not here.
func Auth(logg *logger.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials"))
				return
			}

			claims, err := pkgAuth.Inspect(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.Expired(now()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, log in again"))
				return
			}
			operator := claims.Username()
			if operator == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token missing subject"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOperator, operator)
			ctx = pdvapi.WithToken(ctx, token)
			if logg != nil {
				ctx = logg.WithOperator(ctx, operator)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
