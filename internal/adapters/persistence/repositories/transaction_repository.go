package repositories

import (
	"context"

	"gorm.io/gorm"

	"payego/internal/adapters/persistence/models"
	"payego/internal/core/domain"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends a transaction to the ledger. IDs are unique.
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	row := models.TransactionFromDomain(tx)
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var n int64
		if err := db.Model(&models.Transaction{}).Where("id = ?", tx.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateKey
		}
		return db.Create(row).Error
	})
	if err != nil {
		return err
	}
	tx.CreatedAt, tx.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

// GetByID gets a transaction by ID
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	tx := row.ToDomain()
	return &tx, nil
}

// Update replaces a stored transaction's mutable fields
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	row := models.TransactionFromDomain(tx)
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", tx.ID).
		Select("status", "reference", "metadata", "wallet_id", "amount", "updated_at").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListByUser lists a user's transactions newest first with pagination
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Transaction, int64, error) {
	var rows []models.Transaction
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	// Count total
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get transactions with pagination
	if err := q.Order("seq DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toTransactions(rows), total, nil
}

// ListByStatus lists every transaction in one status, oldest first
func (r *transactionRepository) ListByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

func toTransactions(rows []models.Transaction) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		txs = append(txs, rows[i].ToDomain())
	}
	return txs
}
