package service

import "errors"

var (
	ErrInvalidRequest              = errors.New("invalid request")
	ErrPaymentDoesntExist          = errors.New("payment with such id doesn't exist")
	ErrExternalProviderUnavailable = errors.New("external payment service error")
)
