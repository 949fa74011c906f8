package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)
	r.Get("/openapi.yaml", app.GetOpenAPIDocument)

	// The gateway authenticates through the payload signature.
	r.Post("/webhooks/stripe", app.StripeWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.requireAuthentication)

		r.With(app.rateLimit).Post("/checkout/session", app.CreateCheckoutSessionHandler)

		r.Route("/payments", func(r chi.Router) {
			r.With(app.rateLimit).Post("/saved-method", app.ProcessSavedMethodPaymentHandler)
			r.Get("/", app.ListPaymentsHandler)
			r.Get("/{paymentId}", app.GetPaymentHandler)
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", app.ListPaymentMethodsHandler)
			r.Post("/", app.CreatePaymentMethodHandler)
			r.Put("/{paymentMethodId}/default", app.SetDefaultPaymentMethodHandler)
			r.Delete("/{paymentMethodId}", app.DeletePaymentMethodHandler)
		})
	})

	return r
}
