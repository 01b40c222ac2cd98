package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

var ErrMissingToken = errors.New("missing bearer token")

// Authenticator issues and verifies HS256 signed access tokens.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	clock    Clocker
}

// NewAuthenticator provides an Authenticator based on the auth settings.
func NewAuthenticator(config *AuthConfig, clock Clocker) *Authenticator {
	return &Authenticator{
		secret:   []byte(config.Secret),
		issuer:   config.Issuer,
		audience: config.Audience,
		ttl:      config.TokenTTL,
		clock:    clock,
	}
}

// Issue signs a new token for the subject. A zero ttl uses the configured one.
func (a *Authenticator) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses the token and returns its subject when the signature
// and the registered claims are valid.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("token is invalid")
	}
	return claims.Subject, nil
}

// extractBearerToken returns the token from the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate rejects with 401 the requests without a valid bearer token. It is only
// composed in front of the handlers which mutate books. The token subject is added
// to the request context and to the request scoped logger.
func (api *APIHandler) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		logger := api.GetLoggerFromContext(r.Context())

		token, err := extractBearerToken(r)
		var subject string
		if err == nil {
			subject, err = api.auth.Verify(token)
		}
		if err != nil {
			logger.Warn("request not authenticated", zap.Error(err))
			w.Header().Set("WWW-Authenticate", `Bearer realm="bookstore"`)
			errResp := NewAPIError(requestID, http.StatusUnauthorized, "requires authentication", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		}

		ctx := context.WithValue(r.Context(), AuthSubjectContextKey, subject)
		ctx = context.WithValue(ctx, LoggerContextKey, logger.With(zap.String("auth.subject", subject)))
		next(w, r.WithContext(ctx), ps)
	}
}
