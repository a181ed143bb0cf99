package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity for every EVDMS actor:
// platform admins, EVM staff, and dealer personnel.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FullName     string     `gorm:"column:full_name;not null"`
	Role         string     `gorm:"column:role;not null"`
	DealerID     *uuid.UUID `gorm:"column:dealer_id;type:uuid"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
