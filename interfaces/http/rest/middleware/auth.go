package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"hirenest/domain/core/entities"
	"hirenest/pkg/auth"
	pkgerrors "hirenest/pkg/errors"

	"go.uber.org/zap"
)

// Authenticator resolves a session token to the user it was issued for
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entities.User, error)
}

// Authenticate reads the session cookie, resolves the caller and stores the
// identity in the request context. Missing, invalid or expired tokens and
// deleted users all produce the same 401.
func Authenticate(authenticator Authenticator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.SessionToken(r)
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logger.Debug("Rejected session",
					zap.String("path", r.URL.Path),
					zap.String("ip", ClientIP(r)),
					zap.Error(err),
				)
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:   user.ID,
				Username: user.Username,
				Email:    user.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit limits requests per client IP. Limiter failures let the request
// through.
func RateLimit(limiter auth.RateLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger, limit int, window string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
			} else if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limit, window))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller address. chi's RealIP middleware has already
// replaced RemoteAddr with the forwarded address when one was sent.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
