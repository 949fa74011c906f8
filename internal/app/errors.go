package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/brightnest/booking-payments/api"
	appvalidator "github.com/brightnest/booking-payments/internal/validator"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stripe/stripe-go/v82"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrUnauthorizedAccess = "You must be authenticated to access this resource"
	ErrNotFound           = "The requested resource not found"
	ErrRateLimitExceeded  = "Rate limit exceeded, please retry later"
	ErrInvalidSignature   = "Webhook signature verification failed"
)

func (app *Application) logError(r *http.Request, err error) {
	logger := app.contextGetLogger(r)
	logger.Error(err.Error())
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

// gatewayErrorResponse answers 500 with the message of a failed gateway
// call, preferring the gateway's own wording.
func (app *Application) gatewayErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := err.Error()

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		message = stripeErr.Msg
	}

	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "The "+r.Method+" method is not supported for this resource")
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorizedAccess)
}

func (app *Application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, ErrRateLimitExceeded)
}

// failedValidationResponse answers 400 with the first failed field, e.g.
// "booking_id is required".
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.badRequestResponse(w, r, errors.New(appvalidator.FirstError(err)))
}
