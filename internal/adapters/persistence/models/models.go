// Package models holds the sandbox server's database tables.
package models

import (
	"time"

	"payego/internal/core/domain"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID              string     `gorm:"primaryKey;size:36"`
	Username        string     `gorm:"size:50;index"`
	Email           string     `gorm:"uniqueIndex;size:100;not null"`
	Password        string     `gorm:"size:255"`
	Provider        string     `gorm:"size:20"` // "" for password accounts
	VerifyToken     string     `gorm:"size:64;index"`
	EmailVerifiedAt *time.Time `gorm:"index"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToResponse() *domain.User {
	return &domain.User{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		CreatedAt:       u.CreatedAt,
		EmailVerifiedAt: u.EmailVerifiedAt,
	}
}

func (u *User) ToResolved() *domain.ResolvedUser {
	return &domain.ResolvedUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
	}
}

// PasswordReset represents password_resets table
type PasswordReset struct {
	Token     string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"size:36;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Used      bool      `gorm:"default:false"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}

// RevokedToken represents revoked_tokens table. Access tokens are stored
// by hash, never in the clear.
type RevokedToken struct {
	TokenHash string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// ============================================================
// Wallet & Ledger Tables
// ============================================================

// Wallet represents wallets table. A user holds one wallet per currency.
type Wallet struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_wallet_user_currency"`
	Currency  string    `gorm:"size:3;not null;uniqueIndex:idx_wallet_user_currency"`
	Balance   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) ToDomain() domain.Wallet {
	return domain.Wallet{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  w.Currency,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func WalletFromDomain(w *domain.Wallet) *Wallet {
	return &Wallet{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  w.Currency,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// BankAccount represents bank_accounts table
type BankAccount struct {
	ID                string    `gorm:"primaryKey;size:36"`
	UserID            string    `gorm:"size:36;index;not null"`
	BankName          string    `gorm:"size:100;not null"`
	AccountNumber     string    `gorm:"size:20;not null"`
	AccountHolderName string    `gorm:"size:150"`
	Currency          string    `gorm:"size:3"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

func (a *BankAccount) ToDomain() domain.BankAccount {
	return domain.BankAccount{
		ID:                a.ID,
		UserID:            a.UserID,
		BankName:          a.BankName,
		AccountNumber:     a.AccountNumber,
		AccountHolderName: a.AccountHolderName,
		Currency:          a.Currency,
		CreatedAt:         a.CreatedAt,
	}
}

func BankAccountFromDomain(a *domain.BankAccount) *BankAccount {
	return &BankAccount{
		ID:                a.ID,
		UserID:            a.UserID,
		BankName:          a.BankName,
		AccountNumber:     a.AccountNumber,
		AccountHolderName: a.AccountHolderName,
		Currency:          a.Currency,
		CreatedAt:         a.CreatedAt,
	}
}

// Transaction represents transactions table. Seq keeps insertion order for
// history pages; ID is the public identifier.
type Transaction struct {
	Seq       uint64                 `gorm:"primaryKey;autoIncrement"`
	ID        string                 `gorm:"uniqueIndex;size:36;not null"`
	UserID    string                 `gorm:"size:36;index;not null"`
	WalletID  *string                `gorm:"size:36"`
	Intent    string                 `gorm:"size:30;not null"`
	Amount    int64                  `gorm:"not null"`
	Currency  string                 `gorm:"size:3;not null"`
	Status    string                 `gorm:"size:20;index;not null"`
	Reference string                 `gorm:"size:64"`
	Metadata  map[string]interface{} `gorm:"serializer:json;type:text"`
	CreatedAt time.Time              `gorm:"autoCreateTime"`
	UpdatedAt time.Time              `gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) ToDomain() domain.Transaction {
	return domain.Transaction{
		ID:        t.ID,
		UserID:    t.UserID,
		WalletID:  t.WalletID,
		Intent:    domain.TransactionIntent(t.Intent),
		Amount:    t.Amount,
		Currency:  t.Currency,
		Status:    domain.TransactionStatus(t.Status),
		Reference: t.Reference,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func TransactionFromDomain(t *domain.Transaction) *Transaction {
	return &Transaction{
		ID:        t.ID,
		UserID:    t.UserID,
		WalletID:  t.WalletID,
		Intent:    string(t.Intent),
		Amount:    t.Amount,
		Currency:  t.Currency,
		Status:    string(t.Status),
		Reference: t.Reference,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// Transaction metadata keys.
const (
	MetaProvider        = "provider"
	MetaPaymentID       = "payment_id"
	MetaRecipientID     = "recipient_id"
	MetaSenderID        = "sender_id"
	MetaDescription     = "description"
	MetaBankCode        = "bank_code"
	MetaAccountNumber   = "account_number"
	MetaAccountName     = "account_name"
	MetaBankAccountID   = "bank_account_id"
	MetaToCurrency      = "to_currency"
	MetaConvertedAmount = "converted_amount"
	MetaExchangeRate    = "exchange_rate"
)

// Idempotency represents idempotency_keys table: the stored outcome of a
// keyed request.
type Idempotency struct {
	Scope       string    `gorm:"primaryKey;size:255"`
	Key         string    `gorm:"size:100;not null"`
	UserID      string    `gorm:"size:36;index;not null"`
	Method      string    `gorm:"size:10;not null"`
	Path        string    `gorm:"size:100;not null"`
	Status      int       `gorm:"not null"`
	ContentType string    `gorm:"size:100"`
	Body        []byte    `gorm:"type:blob"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Idempotency) TableName() string {
	return "idempotency_keys"
}

func IdempotencyScope(userID, method, path, key string) string {
	return userID + " " + method + " " + path + " " + key
}

// All lists every table for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&PasswordReset{},
		&RevokedToken{},
		&Wallet{},
		&BankAccount{},
		&Transaction{},
		&Idempotency{},
	}
}
