package app

import (
	"context"

	"github.com/google/uuid"
)

const receiptTemplate = "payment_receipt.tmpl"

// sendPaymentReceipt emails the payer in the background. Missing contact
// details only skip the email.
func (app *Application) sendPaymentReceipt(ctx context.Context, paymentId uuid.UUID) {
	app.background(ctx, "payment-receipt", func(ctx context.Context) {
		logger := app.logger.With("payment_id", paymentId)

		record, err := app.paymentRepo.GetById(ctx, paymentId)
		if err != nil {
			logger.Error("failed to load payment for receipt", "error", err)
			return
		}

		profile, err := app.profileRepo.GetById(ctx, record.UserID)
		if err != nil {
			logger.Warn("no profile for receipt, skipping", "user_id", record.UserID, "error", err)
			return
		}

		if profile.Email == nil || *profile.Email == "" {
			logger.Info("profile has no email, skipping receipt", "user_id", record.UserID)
			return
		}

		name := "there"
		if profile.FullName != nil && *profile.FullName != "" {
			name = *profile.FullName
		}

		data := map[string]any{
			"name":        name,
			"amount":      record.Amount.StringFixed(2),
			"currency":    record.Currency,
			"serviceType": "cleaning",
			"bookingDate": "",
			"receiptUrl":  "",
			"paymentId":   record.ID.String(),
		}

		booking, err := app.bookingRepo.GetByIdAndUserId(ctx, record.BookingID, record.UserID)
		if err == nil {
			data["serviceType"] = serviceLabel(booking.ServiceType)
			data["bookingDate"] = booking.Date.Format("January 2, 2006")
		}

		if record.InvoiceURL != nil {
			data["receiptUrl"] = *record.InvoiceURL
		}

		err = app.mailer.Send(*profile.Email, receiptTemplate, data)
		if err != nil {
			logger.Error("failed to send payment receipt", "error", err)
			return
		}

		logger.Info("payment receipt sent")
	})
}
