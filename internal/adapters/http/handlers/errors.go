package handlers

import (
	"errors"
	"log"

	"payego/internal/core/domain"
	"payego/internal/core/services"
	"payego/internal/pkg/password"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// failure describes how one service error is reported
type failure struct {
	err     error
	status  int
	field   string // set for 422 responses
	message string
}

var failures = []failure{
	// Auth
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "", "Invalid email or password"},
	{services.ErrUserAlreadyExists, fiber.StatusConflict, "", "An account with this email or username already exists"},
	{services.ErrInvalidEmail, fiber.StatusUnprocessableEntity, "email", "Invalid email address"},
	{password.ErrTooShort, fiber.StatusUnprocessableEntity, "password", "Password must be at least 8 characters"},
	{services.ErrInvalidToken, fiber.StatusBadRequest, "", "Invalid or expired token"},
	{services.ErrTokenExpired, fiber.StatusBadRequest, "", "Invalid or expired token"},
	{services.ErrUnsupportedProvider, fiber.StatusBadRequest, "", "Unsupported identity provider"},
	{services.ErrAlreadyVerified, fiber.StatusConflict, "", "Email already verified"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "", "User not found"},

	// Users & history
	{services.ErrRecipientNotFound, fiber.StatusNotFound, "", "User not found"},
	{services.ErrTransactionNotFound, fiber.StatusNotFound, "", "Transaction not found"},

	// Banks
	{services.ErrBankNotFound, fiber.StatusNotFound, "", "Bank not found"},
	{services.ErrAccountNotResolved, fiber.StatusNotFound, "", "Could not resolve account name"},
	{services.ErrBankAccountNotFound, fiber.StatusNotFound, "", "Bank account not found"},
	{services.ErrBankAccountExists, fiber.StatusConflict, "", "Bank account already added"},
	{domain.ErrInvalidAccountNumber, fiber.StatusUnprocessableEntity, "account_number", "Account number must be exactly 10 digits"},

	// Money
	{domain.ErrInvalidAmount, fiber.StatusUnprocessableEntity, "amount", "Amount must be greater than zero"},
	{domain.ErrUnsupportedCurrency, fiber.StatusUnprocessableEntity, "currency", "Unsupported currency"},
	{domain.ErrSameCurrency, fiber.StatusUnprocessableEntity, "to_currency", "Source and target currency must differ"},
	{domain.ErrInsufficientBalance, fiber.StatusBadRequest, "", "Insufficient balance"},
	{domain.ErrWalletNotFound, fiber.StatusBadRequest, "", "No wallet for this currency"},
	{domain.ErrEmailNotVerified, fiber.StatusForbidden, "", "Please verify your email before withdrawing"},
	{services.ErrUnknownPaymentProvider, fiber.StatusUnprocessableEntity, "provider", "Unsupported payment provider"},
	{services.ErrSelfTransfer, fiber.StatusBadRequest, "", "You cannot transfer to yourself"},
	{services.ErrOrderNotFound, fiber.StatusNotFound, "", "Order not found"},
	{services.ErrAlreadyCaptured, fiber.StatusConflict, "", "Order already captured"},
	{services.ErrRateNotFound, fiber.StatusNotFound, "", "Exchange rate not available"},
}

// respondError maps a service error to its HTTP response. Unknown errors
// are logged and reported as 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, f := range failures {
		if !errors.Is(err, f.err) {
			continue
		}
		switch {
		case f.field != "":
			return response.Invalid(c, response.FieldError{Field: f.field, Message: f.message})
		case f.status == fiber.StatusUnauthorized:
			return response.Unauthorized(c, f.message)
		default:
			return response.Error(c, f.status, f.message)
		}
	}

	log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	return response.InternalServerError(c, "Internal server error")
}

// required reports the named fields whose values are empty
func required(fields ...string) []response.FieldError {
	var errs []response.FieldError
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			errs = append(errs, response.FieldError{Field: fields[i], Message: fields[i] + " is required"})
		}
	}
	return errs
}

// userID returns the authenticated user set by the auth middleware
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
