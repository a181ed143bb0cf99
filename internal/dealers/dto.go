package dealers

import (
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	"github.com/evdms-platform/evdms-backend/pkg/types"
	"github.com/google/uuid"
)

// DealerDTO is the wire shape of a dealership.
type DealerDTO struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Region    string        `json:"region"`
	Address   types.Address `json:"address"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FromModel maps the persistence model to its wire shape.
func FromModel(d *models.Dealer) *DealerDTO {
	if d == nil {
		return nil
	}
	return &DealerDTO{
		ID:        d.ID,
		Name:      d.Name,
		Region:    d.Region,
		Address:   d.Address,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
