package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"
)

// secureOptions returns the security headers applied to every response.
// Development mode lets plain-HTTP localhost through.
func secureOptions(isDevelopment bool) secure.Options {
	return secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

func newSecure(opts secure.Options) func(next http.Handler) http.Handler {
	return secure.New(opts).Handler
}

func loggerMiddleware(l logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
