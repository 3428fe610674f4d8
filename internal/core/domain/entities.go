package domain

import "time"

// User is the identity returned by GET /api/user/current.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	CreatedAt       time.Time  `json:"created_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
}

// IsEmailVerified reports whether the user has confirmed their e-mail address.
func (u *User) IsEmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// Wallet holds a balance in minor units for one currency.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BankAccount is an external account the user can withdraw to.
type BankAccount struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	BankName          string    `json:"bank_name"`
	AccountNumber     string    `json:"account_number"`
	AccountHolderName string    `json:"account_holder_name"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// Bank is an entry of the bank directory.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ResolvedUser is the target of an internal transfer.
type ResolvedUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ExchangeRate converts one unit of From into Rate units of To.
type ExchangeRate struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// TransactionIntent classifies a transaction.
type TransactionIntent string

const (
	IntentTopUp              TransactionIntent = "TopUp"
	IntentPayout             TransactionIntent = "Payout"
	IntentTransfer           TransactionIntent = "Transfer"
	IntentConversion         TransactionIntent = "Conversion"
	IntentWithdrawal         TransactionIntent = "Withdrawal"
	IntentInternalTransfer   TransactionIntent = "InternalTransfer"
	IntentExternalTransfer   TransactionIntent = "ExternalTransfer"
	IntentCurrencyConversion TransactionIntent = "CurrencyConversion"
)

// Valid reports whether the intent is one the client knows how to render.
func (i TransactionIntent) Valid() bool {
	switch i {
	case IntentTopUp, IntentPayout, IntentTransfer, IntentConversion, IntentWithdrawal,
		IntentInternalTransfer, IntentExternalTransfer, IntentCurrencyConversion:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "Pending"
	StatusCompleted TransactionStatus = "Completed"
	StatusFailed    TransactionStatus = "Failed"
	StatusReversed  TransactionStatus = "Reversed"
)

// Valid reports whether the status is a known lifecycle state.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusReversed:
		return true
	}
	return false
}

// Transaction is a ledger entry as seen by the client. Amount is signed minor units.
type Transaction struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	WalletID  *string                `json:"wallet_id,omitempty"`
	Intent    TransactionIntent      `json:"intent"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	Status    TransactionStatus      `json:"status"`
	Reference string                 `json:"reference"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// FindWallet returns the wallet holding currency, or nil.
func FindWallet(wallets []Wallet, currency string) *Wallet {
	for i := range wallets {
		if wallets[i].Currency == currency {
			return &wallets[i]
		}
	}
	return nil
}
