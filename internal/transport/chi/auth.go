package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	// tokenParam authenticates plain links to stored files, which cannot carry headers.
	tokenParam = "access_token"
)

// openPaths bypass authentication.
var openPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// fileTrees accept the key as a query parameter on GET.
var fileTrees = []string{"/uploads/", "/generated/"}

// BearerAuthMiddleware checks the API key on every request except the open
// paths. With no non-empty keys configured it is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := openPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := credential(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			if !validKey(keys, token) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credential extracts the presented key, or a client-facing reason it is missing.
func credential(r *http.Request) (string, string) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, bearerPrefix) {
			return "", "authorization header must use Bearer scheme"
		}
		return auth[len(bearerPrefix):], ""
	}

	if r.Method == http.MethodGet && isFileTree(r.URL.Path) {
		if token := r.URL.Query().Get(tokenParam); token != "" {
			return token, ""
		}
	}
	return "", "missing authorization header"
}

func isFileTree(path string) bool {
	for _, prefix := range fileTrees {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func validKey(keys [][]byte, token string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return found == 1
}
