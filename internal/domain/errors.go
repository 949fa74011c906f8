package domain

import "errors"

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrEditConflict          = errors.New("edit conflict")
	ErrCustomerAlreadyLinked = errors.New("a gateway customer is already linked to this user")
	ErrMissingGatewayToken   = errors.New("payment method is not registered with the payment gateway")
	ErrEventAlreadyRecorded  = errors.New("webhook event already recorded")
)
