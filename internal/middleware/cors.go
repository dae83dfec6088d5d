package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// localOrigins are the dev servers allowed alongside the configured front-ends
var localOrigins = []string{
	"http://localhost:4321",
	"http://localhost:3000",
	"http://localhost:8787",
}

// CORS allows credentialed requests from the given origins and the local dev servers
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins)+len(localOrigins))
	seen := make(map[string]bool)
	for _, o := range append(append([]string{}, allowedOrigins...), localOrigins...) {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"Authorization",
			"X-Requested-With",
			requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler
}
