package dealers

import (
	"context"

	"github.com/evdms-platform/evdms-backend/internal/repo"
	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes dealer persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a dealers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a dealer by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dealer, error) {
	var dealer models.Dealer
	if err := r.DB(ctx).First(&dealer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dealer, nil
}

// ListActive returns every active dealer ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Dealer, error) {
	var out []models.Dealer
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
