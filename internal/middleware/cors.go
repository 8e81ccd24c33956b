package middleware

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/sakif/execmind/internal/config"
)

// CORS lets the web client on another origin call the API.
//
// PREFLIGHT:
// A browser sends OPTIONS before any request carrying an Authorization
// header. The preflight is answered here with 204 and never reaches the
// router, so the auth middleware does not reject it for lacking a token.
//
// An origin that is not on the list gets no Access-Control-Allow-Origin
// header; the browser then refuses to hand the response to the page.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.Origins()
	allowAny := slices.Contains(origins, "*")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAny || slices.Contains(origins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
