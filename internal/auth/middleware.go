package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware authenticates report requests and checks the permission each route needs.
type Middleware struct {
	verifier *TokenVerifier
	policy   Policy
	logger   *zap.Logger
}

// NewMiddleware builds the middleware for an HS256 secret.
func NewMiddleware(secret []byte, policy Policy, logger *zap.Logger) (*Middleware, error) {
	verifier, err := NewTokenVerifier(secret, DefaultLeeway)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{verifier: verifier, policy: policy, logger: logger}, nil
}

// Wrap attaches the caller's Identity to the request context.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		perm, ok := m.policy.RequiredPermission(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.verifier.Verify(bearerToken(r))
		if err != nil {
			if !errors.Is(err, ErrMissingToken) {
				m.logger.Info("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="alarm-reports"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !id.Role.Can(perm) {
			m.logger.Info("report access denied",
				zap.String("subject", id.Subject),
				zap.String("role", string(id.Role)),
				zap.String("permission", string(perm)),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
