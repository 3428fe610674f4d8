package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"payego/internal/adapters/persistence/models"
)

// idempotencyRepository implements IdempotencyRepository interface
type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

// Get gets the stored outcome for a request scope
func (r *idempotencyRepository) Get(ctx context.Context, scope string) (*models.Idempotency, error) {
	var rec models.Idempotency
	if err := r.db.WithContext(ctx).Where("scope = ?", scope).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save stores the first outcome for a scope; later saves are ignored.
func (r *idempotencyRepository) Save(ctx context.Context, record *models.Idempotency) error {
	if record.Scope == "" {
		record.Scope = models.IdempotencyScope(record.UserID, record.Method, record.Path, record.Key)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
}
