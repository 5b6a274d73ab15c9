// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/httputil"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// Claims are the session token claims issued by the identity provider. The
// subject is the user id; nothing else is trusted from the token body.
type Claims struct {
	jwt.RegisteredClaims
}

// AuthMiddleware verifies identity-provider session tokens. Requests on skip
// paths pass through unauthenticated; everything else must present a valid
// Bearer token, whose subject becomes the caller identity in the request
// context.
type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	log       *logger.Logger
	optional  bool
}

// NewAuthMiddleware creates an authentication middleware from a PEM-encoded
// RSA public key. When optional is true, requests without an Authorization
// header proceed anonymously; presented tokens are still verified.
func NewAuthMiddleware(publicKeyPEM []byte, log *logger.Logger, optional bool) (*AuthMiddleware, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthMiddleware{publicKey: key, log: log, optional: optional}, nil
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := logger.WithUserID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken verifies the signature and returns the claims.
func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "missing subject")
	}
	return claims, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}
	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}

// GetUserID extracts the authenticated user id from the context.
func GetUserID(ctx context.Context) string {
	return logger.GetUserID(ctx)
}

// RequireUserID rejects requests that reached the handler without an
// authenticated caller identity.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			httputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
