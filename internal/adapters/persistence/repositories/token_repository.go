package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"payego/internal/adapters/persistence/models"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// CreateReset stores a password reset token
func (r *tokenRepository) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

// GetReset gets a password reset by token
func (r *tokenRepository) GetReset(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

// MarkResetUsed consumes a password reset token
func (r *tokenRepository) MarkResetUsed(ctx context.Context, token string) error {
	res := r.db.WithContext(ctx).Model(&models.PasswordReset{}).Where("token = ?", token).Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Revoke ends an access token before its expiry
func (r *tokenRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{TokenHash: hashToken(token), ExpiresAt: expiresAt}).Error
}

// IsRevoked checks if an access token was revoked
func (r *tokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_hash = ?", hashToken(token)).Count(&n).Error
	return n > 0, err
}

// DeleteExpired drops revoked tokens and resets past their lifetime
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", now).Delete(&models.RevokedToken{})
		if res.Error != nil {
			return res.Error
		}
		n += res.RowsAffected

		res = tx.Where("expires_at < ?", now).Delete(&models.PasswordReset{})
		if res.Error != nil {
			return res.Error
		}
		n += res.RowsAffected
		return nil
	})
	return int(n), err
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
