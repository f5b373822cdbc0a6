package middleware

import (
	"net/http"
	"os"

	"golang.org/x/crypto/bcrypt"
)

var allowed = map[string]struct{}{
	"http://localhost:5173":          {},
	"http://localhost:5174":          {},
	"https://rozgar-map.github.io":   {},
	"https://rozgarmap.eticloud.in":  {},
	"https://rozgar-map.onrender.com": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, X-Admin-Token")
		}

		w.Header().Set("Access-Control-Expose-Headers", "X-Cache, Server-Timing, Retry-After, Cache-Control")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware guards administrative endpoints. The ADMIN_TOKEN_HASH
// env var holds a bcrypt hash of the shared admin token; requests must carry
// the plaintext token in X-Admin-Token.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := os.Getenv("ADMIN_TOKEN_HASH")
		if hash == "" {
			http.Error(w, "Admin endpoints disabled", http.StatusForbidden)
			return
		}

		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			http.Error(w, "Missing admin token", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
			http.Error(w, "Invalid admin token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
