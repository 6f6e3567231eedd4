// Package api implements the weekboard REST API using chi.
package api

import (
	"net/http"
)

// maxBodyBytes bounds request bodies; an exported collection is a few KB.
const maxBodyBytes = 1 << 20

// BodyLimit returns middleware that caps request bodies at n bytes.
// Reads past the limit fail, which handlers report as 400.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
