package forms

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"payego/internal/core/domain"
	"payego/internal/pkg/password"
)

// Field names used in FieldErrors.
const (
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldFromCurrency    = "from_currency"
	FieldToCurrency      = "to_currency"
	FieldProvider        = "provider"
	FieldRecipient       = "recipient"
	FieldBankCode        = "bank_code"
	FieldAccountNumber   = "account_number"
	FieldBankAccount     = "bank_account_id"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldToken           = "token"
	FieldForm            = "form"
)

// FieldErrors are local validation failures keyed by field. They never
// involve a network call.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, ", ")
}

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidAccountNumber reports whether s is exactly ten digits.
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// ValidEmail reports whether s is a bare e-mail address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

// amountIn parses raw and checks it against [min, max]. It returns the
// amount and records any problem under FieldAmount.
func amountIn(fe FieldErrors, raw string, min, max decimal.Decimal) decimal.Decimal {
	amount, err := domain.ParseAmount(raw)
	if err != nil {
		fe.Add(FieldAmount, "Please enter a valid amount")
		return decimal.Zero
	}
	if amount.LessThan(min) || amount.GreaterThan(max) {
		fe.Add(FieldAmount, fmt.Sprintf("Amount must be between %s and %s", min.String(), max.String()))
	}
	return amount
}

func currencyIn(fe FieldErrors, field, currency string, limits domain.Limits) {
	if currency == "" {
		fe.Add(field, "Please select a currency")
		return
	}
	if !limits.Supports(currency) {
		fe.Add(field, fmt.Sprintf("%s is not supported", currency))
	}
}

// checkBalance blocks amounts above the balance of the wallet for currency.
// A missing wallet is itself a failure.
func checkBalance(fe FieldErrors, wallets []domain.Wallet, currency string, amount decimal.Decimal) {
	if currency == "" {
		return
	}
	w := domain.FindWallet(wallets, currency)
	if w == nil {
		fe.Add(FieldCurrency, fmt.Sprintf("You don't have a %s wallet", currency))
		return
	}
	if domain.MinorUnits(amount) > w.Balance {
		fe.Add(FieldAmount, "Insufficient balance. Available: "+domain.FormatMinor(w.Balance, w.Currency))
	}
}

func passwordPolicy(fe FieldErrors, field, pw string) {
	if pw == "" {
		fe.Add(field, "Password is required")
		return
	}
	if err := password.ValidatePassword(pw); err != nil {
		fe.Add(field, "Password must be at least 8 characters")
	}
}

func emailField(fe FieldErrors, email string) {
	switch {
	case email == "":
		fe.Add(FieldEmail, "Email is required")
	case !ValidEmail(email):
		fe.Add(FieldEmail, "Please enter a valid email address")
	}
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
