package services

import (
	"context"
	"errors"
	"strings"

	"payego/internal/adapters/persistence/models"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/core/domain"
	"payego/internal/pkg/pagination"
)

// User service errors
var (
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// UserService serves the signed-in user's own records
type UserService struct {
	userRepo        repositories.UserRepository
	walletRepo      repositories.WalletRepository
	bankAccountRepo repositories.BankAccountRepository
	transactionRepo repositories.TransactionRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	bankAccountRepo repositories.BankAccountRepository,
	transactionRepo repositories.TransactionRepository,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		bankAccountRepo: bankAccountRepo,
		transactionRepo: transactionRepo,
	}
}

// TransactionPage is one page of history
type TransactionPage struct {
	Transactions []domain.Transaction
	Total        int64
	Params       *pagination.Params
}

// Current gets the signed-in user
func (s *UserService) Current(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// Wallets lists the user's wallets
func (s *UserService) Wallets(ctx context.Context, userID string) ([]domain.Wallet, error) {
	return s.walletRepo.ListByUser(ctx, userID)
}

// BankAccounts lists the user's saved bank accounts
func (s *UserService) BankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	return s.bankAccountRepo.ListByUser(ctx, userID)
}

// Resolve finds a transfer recipient by email, username or ID
func (s *UserService) Resolve(ctx context.Context, identifier string) (*domain.ResolvedUser, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrRecipientNotFound
	}

	lookups := []func(context.Context, string) (*models.User, error){
		s.userRepo.GetByEmail,
		s.userRepo.GetByUsername,
		s.userRepo.GetByID,
	}
	for _, lookup := range lookups {
		user, err := lookup(ctx, identifier)
		if err == nil {
			return user.ToResolved(), nil
		}
		if !errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrRecipientNotFound
}

// Transactions lists one page of the user's history, newest first
func (s *UserService) Transactions(ctx context.Context, userID string, params *pagination.Params) (*TransactionPage, error) {
	txs, total, err := s.transactionRepo.ListByUser(ctx, userID, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{Transactions: txs, Total: total, Params: params}, nil
}

// Transaction gets one of the user's transactions. Other users' transactions
// are reported as missing.
func (s *UserService) Transaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}
