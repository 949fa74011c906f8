package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		header := r.Header.Get("Authorization")

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		identity, err := app.parseAccessToken(tokenString)
		if err != nil {
			app.contextGetLogger(r).Debug("rejected access token", "error", err)
			app.unauthorizedAccessResponse(w, r)
			return
		}

		r = app.contextSetIdentity(r, identity)

		next.ServeHTTP(w, r)
	})
}

// rateLimit must run after requireAuthentication, callers are limited by
// their user id.
func (app *Application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.RateLimit.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		identity := app.contextGetIdentity(r)

		if !app.limiter.Allow(identity.UserID.String()) {
			app.contextGetLogger(r).Warn("rate limit exceeded")
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessClaims are the claims the identity provider puts in its access
// tokens. The subject is the user id.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (app *Application) parseAccessToken(tokenString string) (domain.Identity, error) {
	if app.config.Auth.JWTSecret == "" {
		return domain.Identity{}, errors.New("no token secret configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	if app.config.Auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(app.config.Auth.Issuer))
	}

	claims := &accessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(app.config.Auth.JWTSecret), nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, err
	}

	if !token.Valid {
		return domain.Identity{}, errors.New("invalid token")
	}

	userId, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid subject: %w", err)
	}

	return domain.Identity{
		UserID: userId,
		Email:  claims.Email,
	}, nil
}
