package models

import (
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/types"
	"github.com/google/uuid"
)

// Dealer is the dealership a dealer_manager or dealer_staff user belongs to.
type Dealer struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string        `gorm:"type:text;not null"`
	Region    string        `gorm:"type:text;not null;default:''"`
	Address   types.Address `gorm:"column:address;type:address_t;not null"`
	IsActive  bool          `gorm:"column:is_active;not null"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
