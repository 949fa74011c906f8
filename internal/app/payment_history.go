package app

import (
	"errors"
	"net/http"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
)

// ListPaymentsHandler returns the caller's payments split into settled ones
// and those still waiting for the gateway.
func (app *Application) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	payments, err := app.paymentRepo.GetAllByUserId(r.Context(), identity.UserID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentsResponse{
		Payments:        []api.Payment{},
		PendingPayments: []api.Payment{},
	}

	for i := range payments {
		p := toApiPayment(&payments[i])

		if payments[i].Status.IsTerminal() {
			resp.Payments = append(resp.Payments, p)
		} else {
			resp.PendingPayments = append(resp.PendingPayments, p)
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	paymentId, err := app.readUUIDParam(r, "paymentId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	record, err := app.paymentRepo.GetByIdAndUserId(r.Context(), paymentId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiPayment(record), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiPayment(p *domain.Payment) api.Payment {
	return api.Payment{
		Id:              p.ID,
		BookingId:       p.BookingID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
		Method:          p.Method,
		MethodId:        p.MethodID,
		SessionId:       p.StripeSessionID,
		PaymentIntentId: p.StripeIntentID,
		InvoiceUrl:      p.InvoiceURL,
		ErrorMessage:    p.ErrorMsg,
		Date:            p.Date,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
