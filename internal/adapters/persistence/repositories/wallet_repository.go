package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"payego/internal/adapters/persistence/models"
	"payego/internal/core/domain"
)

// walletRepository implements WalletRepository interface
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// Create opens a wallet. A user holds at most one wallet per currency.
func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := findWallet(tx, wallet.UserID, wallet.Currency)
		switch {
		case err == nil:
			return ErrDuplicateKey
		case !errors.Is(err, ErrRecordNotFound):
			return err
		}

		if wallet.ID == "" {
			wallet.ID = uuid.NewString()
		}
		row := models.WalletFromDomain(wallet)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		*wallet = row.ToDomain()
		return nil
	})
}

// ListByUser lists a user's wallets ordered by currency
func (r *walletRepository) ListByUser(ctx context.Context, userID string) ([]domain.Wallet, error) {
	var rows []models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("currency").Find(&rows).Error; err != nil {
		return nil, err
	}

	wallets := make([]domain.Wallet, 0, len(rows))
	for i := range rows {
		wallets = append(wallets, rows[i].ToDomain())
	}
	return wallets, nil
}

// GetByUserCurrency gets a user's wallet for one currency
func (r *walletRepository) GetByUserCurrency(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	row, err := findWallet(r.db.WithContext(ctx), userID, currency)
	if err != nil {
		return nil, err
	}
	w := row.ToDomain()
	return &w, nil
}

// Apply moves balances in one database transaction. Entries for the same
// wallet are netted first; debits are guarded in the UPDATE itself so a
// concurrent apply can never overdraw.
func (r *walletRepository) Apply(ctx context.Context, entries ...Entry) error {
	type slot struct{ user, currency string }
	net := make(map[slot]int64)
	for _, e := range entries {
		net[slot{e.UserID, e.Currency}] += e.Delta
	}

	// Fixed order so concurrent applies lock rows the same way
	slots := make([]slot, 0, len(net))
	for s := range net {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].user != slots[j].user {
			return slots[i].user < slots[j].user
		}
		return slots[i].currency < slots[j].currency
	})

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, s := range slots {
			delta := net[s]
			q := tx.Model(&models.Wallet{}).Where("user_id = ? AND currency = ?", s.user, s.currency)
			if delta < 0 {
				q = q.Where("balance >= ?", -delta)
			}
			res := q.UpdateColumns(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", delta),
				"updated_at": now,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				continue
			}

			_, err := findWallet(tx, s.user, s.currency)
			switch {
			case err == nil:
				return domain.ErrInsufficientBalance
			case !errors.Is(err, ErrRecordNotFound):
				return err
			case delta < 0:
				return domain.ErrWalletNotFound
			}

			row := &models.Wallet{ID: uuid.NewString(), UserID: s.user, Currency: s.currency, Balance: delta, CreatedAt: now, UpdatedAt: now}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func findWallet(db *gorm.DB, userID, currency string) (*models.Wallet, error) {
	var w models.Wallet
	if err := db.Where("user_id = ? AND currency = ?", userID, currency).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}
