package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
)

// AuthMiddleware guards operator routes with static API keys
type AuthMiddleware struct {
	keys [][32]byte
}

// NewAuthMiddleware creates auth middleware. With no keys every request
// passes.
func NewAuthMiddleware(keys []string) *AuthMiddleware {
	m := &AuthMiddleware{}
	for _, k := range keys {
		m.keys = append(m.keys, sha256.Sum256([]byte(k)))
	}
	if len(m.keys) == 0 {
		slog.Warn("no admin API keys configured, operator routes are open")
	}
	return m
}

// Authenticate verifies the API key from the Authorization or X-API-Key header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.keys) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "missing_api_key",
				"provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		sum := sha256.Sum256([]byte(apiKey))
		if !m.valid(sum) {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid_api_key", "the provided api key is not valid")
			return
		}

		ctx := ContextWithOperator(r.Context(), hex.EncodeToString(sum[:4]))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) valid(sum [32]byte) bool {
	ok := 0
	for _, k := range m.keys {
		ok |= subtle.ConstantTimeCompare(k[:], sum[:])
	}
	return ok == 1
}

// extractAPIKey supports "Bearer <key>", a raw key in Authorization, or X-API-Key
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// maskKey returns first 4 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..."
}
