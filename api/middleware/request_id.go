package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/angelmondragon/pdv-terminal/api/responses"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
)

// maxRequestIDLen bounds ids supplied by clients before they reach logs.
const maxRequestIDLen = 64

// RequestID reuses a sane client-supplied X-Request-Id or mints one, echoes it on the
// response and attaches it to the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(responses.RequestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLen || strings.ContainsFunc(reqID, unicode.IsControl) {
				reqID = uuid.NewString()
			}

			w.Header().Set(responses.RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
