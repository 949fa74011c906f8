package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const identityContextKey = contextKey("identity")

func (app *Application) contextSetIdentity(r *http.Request, identity domain.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return r.WithContext(ctx)
}

func (app *Application) contextGetIdentity(r *http.Request) domain.Identity {
	identity, ok := r.Context().Value(identityContextKey).(domain.Identity)
	if !ok {
		panic("missing identity from context")
	}

	return identity
}

// contextGetLogger returns a logger carrying the request id, method and uri
// and, for authenticated requests, the caller's user id.
func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger := app.logger.With(
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"uri", r.URL.RequestURI(),
	)

	if identity, ok := r.Context().Value(identityContextKey).(domain.Identity); ok {
		logger = logger.With("user_id", identity.UserID)
	}

	return logger
}
