package repositories

import (
	"context"

	"gorm.io/gorm"

	"payego/internal/adapters/persistence/models"
	"payego/internal/core/domain"
)

// bankAccountRepository implements BankAccountRepository interface
type bankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankAccountRepository{db: db}
}

// Create saves a bank account
func (r *bankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	row := models.BankAccountFromDomain(account)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	account.CreatedAt = row.CreatedAt
	return nil
}

// GetByID gets a bank account by ID
func (r *bankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	var row models.BankAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	a := row.ToDomain()
	return &a, nil
}

// ListByUser lists a user's bank accounts, oldest first
func (r *bankAccountRepository) ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	var rows []models.BankAccount
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]domain.BankAccount, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, rows[i].ToDomain())
	}
	return accounts, nil
}

// ExistsByUserAccount checks whether the user already saved this account
func (r *bankAccountRepository) ExistsByUserAccount(ctx context.Context, userID, bankName, accountNumber string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BankAccount{}).
		Where("user_id = ? AND account_number = ? AND LOWER(bank_name) = LOWER(?)", userID, accountNumber, bankName).
		Count(&n).Error
	return n > 0, err
}

// Delete removes a bank account
func (r *bankAccountRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.BankAccount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
