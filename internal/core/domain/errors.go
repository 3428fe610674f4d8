package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Money errors
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnsupportedCurrency  = errors.New("unsupported currency")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrWalletNotFound       = errors.New("no wallet for currency")
	ErrSameCurrency         = errors.New("source and destination currency must differ")
	ErrAmountOutOfRange     = errors.New("amount out of range")
	ErrEmailNotVerified     = errors.New("email address not verified")
	ErrInvalidAccountNumber = errors.New("account number must be exactly 10 digits")
)
