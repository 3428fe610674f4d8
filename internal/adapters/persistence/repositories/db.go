package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"payego/internal/adapters/persistence/models"
)

// Storage errors. The database is opened with TranslateError, so driver
// constraint violations surface as ErrDuplicateKey.
var (
	ErrRecordNotFound = gorm.ErrRecordNotFound
	ErrDuplicateKey   = gorm.ErrDuplicatedKey
)

// Migrate creates or updates every sandbox table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Counts returns the number of stored records per table
func Counts(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	tables := map[string]interface{}{
		"users":         &models.User{},
		"wallets":       &models.Wallet{},
		"bank_accounts": &models.BankAccount{},
		"transactions":  &models.Transaction{},
	}

	counts := make(map[string]int64, len(tables))
	for name, model := range tables {
		var n int64
		if err := db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, nil
}

func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}
