package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",           // local dev
	"https://admin.evdms.app",         // production admin console
	"https://admin-staging.evdms.app", // staging admin console
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(extraOrigins ...string) func(http.Handler) http.Handler {
	origins := append([]string(nil), defaultCORSOrigins...)
	origins = append(origins, extraOrigins...)

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-EVDMS-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"X-EVDMS-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
