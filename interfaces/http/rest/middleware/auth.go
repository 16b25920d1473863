package middleware

import (
	"net/http"
	"strings"

	"degrees/pkg/auth"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

// Viewer resolves who the request acts for. Requests without a token stay
// anonymous and see public nodes; a bad token is rejected with 401. A nil
// validator accepts no tokens at all.
func Viewer(validator *auth.JWTValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), auth.Anonymous())))
				return
			}
			if validator == nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("token authentication is not configured"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", r.RemoteAddr),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)))
				return
			}

			viewer := auth.ViewerFromClaims(claims)
			logger.Debug("Request authenticated",
				zap.String("user_id", viewer.UserID),
				zap.Strings("scope", viewer.Scope.Strings()),
			)
			next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), viewer)))
		})
	}
}

// RequireAdmin rejects anonymous viewers with 401 and other non-admins with 403.
func RequireAdmin(errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := auth.ViewerFrom(r.Context())
			switch {
			case viewer.IsAnonymous():
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
			case !viewer.IsAdmin():
				errs.Handle(w, r, pkgerrors.NewForbiddenError("admin role required"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// extractToken reads a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}

func unauthorizedMessage(err error) string {
	switch err {
	case auth.ErrExpiredToken:
		return "Token has expired"
	case auth.ErrInvalidSignature:
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}
