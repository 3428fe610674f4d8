package api

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payego/internal/core/domain"
)

// Contract violations in 2xx bodies.
var (
	ErrMissingField  = errors.New("missing field")
	ErrInvalidRecord = errors.New("invalid record")
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// ---------- auth ----------

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type SocialLoginRequest struct {
	IDToken  string `json:"id_token"`
	Provider string `json:"provider"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TokenResponse is returned by login, register and social login.
type TokenResponse struct {
	Token string `json:"token"`
}

func (r *TokenResponse) Validate() error {
	if r.Token == "" {
		return missing("token")
	}
	return nil
}

// MessageResponse is the {"message": ...} body of informational endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

func (r *MessageResponse) Validate() error { return nil }

// ---------- user ----------

type UserResponse struct {
	domain.User
}

func (r *UserResponse) Validate() error {
	if r.ID == "" {
		return missing("id")
	}
	if r.Email == "" {
		return missing("email")
	}
	return nil
}

type WalletsResponse struct {
	Wallets []domain.Wallet `json:"wallets"`
}

func (r *WalletsResponse) Validate() error {
	if r.Wallets == nil {
		return missing("wallets")
	}
	for i, w := range r.Wallets {
		if w.Currency == "" {
			return fmt.Errorf("%w: wallets[%d] has no currency", ErrInvalidRecord, i)
		}
	}
	return nil
}

type BankAccountsResponse struct {
	BankAccounts []domain.BankAccount `json:"bank_accounts"`
}

func (r *BankAccountsResponse) Validate() error {
	if r.BankAccounts == nil {
		return missing("bank_accounts")
	}
	for i, b := range r.BankAccounts {
		if b.ID == "" {
			return fmt.Errorf("%w: bank_accounts[%d] has no id", ErrInvalidRecord, i)
		}
	}
	return nil
}

type BanksResponse struct {
	Banks []domain.Bank `json:"banks"`
}

func (r *BanksResponse) Validate() error {
	if r.Banks == nil {
		return missing("banks")
	}
	for i, b := range r.Banks {
		if b.Code == "" {
			return fmt.Errorf("%w: banks[%d] has no code", ErrInvalidRecord, i)
		}
	}
	return nil
}

type AccountNameResponse struct {
	AccountName string `json:"account_name"`
}

func (r *AccountNameResponse) Validate() error {
	if r.AccountName == "" {
		return missing("account_name")
	}
	return nil
}

type ResolvedUserResponse struct {
	domain.ResolvedUser
}

func (r *ResolvedUserResponse) Validate() error {
	if r.ID == "" {
		return missing("id")
	}
	return nil
}

type AddBankRequest struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Currency      string `json:"currency"`
}

type BankAccountResponse struct {
	Message     string              `json:"message,omitempty"`
	BankAccount *domain.BankAccount `json:"bank_account"`
}

func (r *BankAccountResponse) Validate() error {
	if r.BankAccount == nil || r.BankAccount.ID == "" {
		return missing("bank_account.id")
	}
	return nil
}

// ---------- transactions ----------

type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int64                `json:"total,omitempty"`
	Page         int                  `json:"page,omitempty"`
	Limit        int                  `json:"limit,omitempty"`
}

func (r *TransactionsResponse) Validate() error {
	if r.Transactions == nil {
		return missing("transactions")
	}
	for i := range r.Transactions {
		if err := validateTransaction(&r.Transactions[i]); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	return nil
}

type TransactionResponse struct {
	domain.Transaction
}

func (r *TransactionResponse) Validate() error {
	return validateTransaction(&r.Transaction)
}

func validateTransaction(t *domain.Transaction) error {
	if t.ID == "" {
		return missing("id")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, t.Status)
	}
	return nil
}

// ---------- money movement ----------

// Provider is a top-up payment provider.
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPayPal Provider = "paypal"
)

func (p Provider) Valid() bool {
	return p == ProviderStripe || p == ProviderPayPal
}

// Request contracts carry major-unit decimals; amounts are converted to
// minor units only when the wire body is built.

type TopUpRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Provider       Provider
	IdempotencyKey string
}

func (r TopUpRequest) wire() interface{} {
	return struct {
		Amount   int64    `json:"amount"`
		Currency string   `json:"currency"`
		Provider Provider `json:"provider"`
	}{domain.MinorUnits(r.Amount), r.Currency, r.Provider}
}

type TopUpResponse struct {
	TransactionID string `json:"transaction_id"`
	ClientSecret  string `json:"client_secret,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	ApprovalURL   string `json:"approval_url,omitempty"`
}

func (r *TopUpResponse) Validate() error {
	if r.TransactionID == "" {
		return missing("transaction_id")
	}
	return nil
}

type InternalTransferRequest struct {
	Amount         decimal.Decimal
	Currency       string
	RecipientID    string
	Description    string
	IdempotencyKey string
}

func (r InternalTransferRequest) wire() interface{} {
	return struct {
		Amount      int64  `json:"amount"`
		Currency    string `json:"currency"`
		RecipientID string `json:"recipient_id"`
		Description string `json:"description,omitempty"`
	}{domain.MinorUnits(r.Amount), r.Currency, r.RecipientID, r.Description}
}

type ExternalTransferRequest struct {
	Amount         decimal.Decimal
	Currency       string
	BankCode       string
	AccountNumber  string
	AccountName    string
	Description    string
	IdempotencyKey string
}

func (r ExternalTransferRequest) wire() interface{} {
	return struct {
		Amount        int64  `json:"amount"`
		Currency      string `json:"currency"`
		BankCode      string `json:"bank_code"`
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
		Description   string `json:"description,omitempty"`
	}{domain.MinorUnits(r.Amount), r.Currency, r.BankCode, r.AccountNumber, r.AccountName, r.Description}
}

type WithdrawRequest struct {
	BankAccountID  string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

func (r WithdrawRequest) wire() interface{} {
	return struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}{domain.MinorUnits(r.Amount), r.Currency}
}

type ConvertRequest struct {
	Amount         decimal.Decimal
	FromCurrency   string
	ToCurrency     string
	IdempotencyKey string
}

func (r ConvertRequest) wire() interface{} {
	return struct {
		Amount       int64  `json:"amount"`
		FromCurrency string `json:"from_currency"`
		ToCurrency   string `json:"to_currency"`
	}{domain.MinorUnits(r.Amount), r.FromCurrency, r.ToCurrency}
}

// TransactionRefResponse acknowledges a money movement.
type TransactionRefResponse struct {
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}

func (r *TransactionRefResponse) Validate() error {
	if r.TransactionID == "" {
		return missing("transaction_id")
	}
	return nil
}

type ConvertResponse struct {
	TransactionID   string  `json:"transaction_id"`
	ConvertedAmount int64   `json:"converted_amount"`
	ExchangeRate    float64 `json:"exchange_rate"`
}

func (r *ConvertResponse) Validate() error {
	if r.TransactionID == "" {
		return missing("transaction_id")
	}
	return nil
}

type ExchangeRateResponse struct {
	domain.ExchangeRate
}

func (r *ExchangeRateResponse) Validate() error {
	if r.From == "" || r.To == "" {
		return missing("from/to")
	}
	if r.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive", ErrInvalidRecord)
	}
	return nil
}

type CapturePayPalRequest struct {
	OrderID string `json:"order_id"`
}

type CaptureResponse struct {
	TransactionID string                   `json:"transaction_id"`
	Status        domain.TransactionStatus `json:"status"`
}

func (r *CaptureResponse) Validate() error {
	if r.TransactionID == "" {
		return missing("transaction_id")
	}
	return nil
}
