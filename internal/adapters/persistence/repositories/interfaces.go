package repositories

import (
	"context"
	"time"

	"payego/internal/adapters/persistence/models"
	"payego/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByVerifyToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// Entry is one side of a balance movement in minor units. Negative deltas
// debit an existing wallet; positive deltas credit it, opening it if needed.
type Entry struct {
	UserID   string
	Currency string
	Delta    int64
}

// WalletRepository defines wallet repository interface
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	ListByUser(ctx context.Context, userID string) ([]domain.Wallet, error)
	GetByUserCurrency(ctx context.Context, userID, currency string) (*domain.Wallet, error)
	// Apply moves balances atomically: either every entry is applied or none.
	Apply(ctx context.Context, entries ...Entry) error
}

// BankAccountRepository defines bank account repository interface
type BankAccountRepository interface {
	Create(ctx context.Context, account *domain.BankAccount) error
	GetByID(ctx context.Context, id string) (*domain.BankAccount, error)
	ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error)
	ExistsByUserAccount(ctx context.Context, userID, bankName, accountNumber string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// TransactionRepository defines ledger repository interface
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	// ListByUser returns the user's transactions newest first.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Transaction, int64, error)
	ListByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error)
}

// TokenRepository defines the password reset and revoked token store
type TokenRepository interface {
	CreateReset(ctx context.Context, reset *models.PasswordReset) error
	GetReset(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkResetUsed(ctx context.Context, token string) error
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// IdempotencyRepository defines the keyed request replay store
type IdempotencyRepository interface {
	Get(ctx context.Context, scope string) (*models.Idempotency, error)
	Save(ctx context.Context, record *models.Idempotency) error
}
