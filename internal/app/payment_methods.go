package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/stripe/stripe-go/v82"
)

func (app *Application) ListPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	methods, err := app.paymentMethodRepo.GetAllByUserId(r.Context(), identity.UserID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentMethodsResponse{
		PaymentMethods: make([]api.PaymentMethod, 0, len(methods)),
	}

	for i := range methods {
		resp.PaymentMethods = append(resp.PaymentMethods, toApiPaymentMethod(&methods[i]))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CreatePaymentMethodHandler attaches a tokenized method to the caller's
// gateway customer and stores it. The first method a user saves becomes the
// default.
func (app *Application) CreatePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	var input api.CreatePaymentMethodRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	customerId, err := app.ensureGatewayCustomer(r.Context(), identity)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.paymentProvider.AttachPaymentMethod(r.Context(), input.StripePaymentMethodId, customerId)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < http.StatusInternalServerError && stripeErr.Msg != "" {
			app.badRequestResponse(w, r, errors.New(stripeErr.Msg))
			return
		}

		app.serverErrorResponse(w, r, fmt.Errorf("attach payment method: %w", err))
		return
	}

	method := &domain.PaymentMethod{
		UserID:                identity.UserID,
		StripePaymentMethodID: &input.StripePaymentMethodId,
		Brand:                 input.Brand,
		Last4:                 input.Last4,
		ExpMonth:              input.ExpMonth,
		ExpYear:               input.ExpYear,
	}

	err = app.paymentMethodRepo.Create(r.Context(), method)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toApiPaymentMethod(method), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) SetDefaultPaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	methodId, err := app.readUUIDParam(r, "paymentMethodId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.paymentMethodRepo.SetDefault(r.Context(), methodId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePaymentMethodHandler removes a saved method. Detaching it from the
// gateway customer is best-effort; the local row is what makes the method
// unusable here.
func (app *Application) DeletePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	identity := app.contextGetIdentity(r)

	methodId, err := app.readUUIDParam(r, "paymentMethodId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	method, err := app.paymentMethodRepo.GetByIdAndUserId(r.Context(), methodId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.paymentMethodRepo.Delete(r.Context(), methodId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if method.HasGatewayToken() {
		err = app.paymentProvider.DetachPaymentMethod(r.Context(), *method.StripePaymentMethodID)
		if err != nil {
			logger.Warn("failed to detach payment method from gateway customer", "payment_method_id", methodId, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func toApiPaymentMethod(m *domain.PaymentMethod) api.PaymentMethod {
	return api.PaymentMethod{
		Id:                    m.ID,
		StripePaymentMethodId: m.StripePaymentMethodID,
		Brand:                 m.Brand,
		Last4:                 m.Last4,
		ExpMonth:              m.ExpMonth,
		ExpYear:               m.ExpYear,
		IsDefault:             m.IsDefault,
		CreatedAt:             m.CreatedAt,
	}
}
