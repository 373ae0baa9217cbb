// Package requestid assigns a correlation ID to every request, honoring an
// inbound X-Request-ID from trusted upstreams.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"caregate/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware stores the request ID in the context and echoes it on the
// response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
