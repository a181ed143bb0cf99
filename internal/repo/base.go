package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base holds the GORM handle shared by the user and dealer repositories.
// Repositories embed it and reach the database through DB so every query
// carries the request context.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection for embedding in a repository.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to the request context when one is supplied.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
