package logging

import "net/http"

// Middleware injects a request-scoped logger and request id into the
// request context, preferring an incoming X-Request-Id/X-Correlation-Id
// header when present, generating one otherwise, and echoing it back so
// proxies and callers can correlate.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		incoming := r.Header.Get("X-Correlation-Id")
		if incoming == "" {
			incoming = r.Header.Get("X-Request-Id")
		}

		ctx, rid := EnsureRequestIDWithIncoming(r.Context(), incoming)
		log := LoggerFromContext(ctx).With(RequestID(rid))
		ctx = WithLogger(ctx, log)

		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
