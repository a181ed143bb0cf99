package users

import (
	"context"
	"testing"
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	"github.com/evdms-platform/evdms-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  dealer_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newUser(t *testing.T, db *gorm.DB, email string, role enums.Role, dealerID *uuid.UUID, created time.Time) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		FullName:     "User " + email,
		Role:         string(role),
		DealerID:     dealerID,
		IsActive:     true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindByEmailIsCaseInsensitive(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	created := newUser(t, db, "Ana@EVDMS.app", enums.RoleAdmin, nil, time.Now())

	found, err := repo.FindByEmail(context.Background(), "  ana@evdms.APP ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail(context.Background(), "nobody@evdms.app")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	user := newUser(t, db, "ana@evdms.app", enums.RoleAdmin, nil, time.Now())
	at := time.Now().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), user.ID, at))

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
}

func TestRepositoryListAllPagination(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := newUser(t, db, "a@evdms.app", enums.RoleAdmin, nil, base)
	middle := newUser(t, db, "b@evdms.app", enums.RoleEVMStaff, nil, base.Add(time.Minute))
	newest := newUser(t, db, "c@evdms.app", enums.RoleDealerManager, nil, base.Add(2*time.Minute))

	first, err := repo.ListAll(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, newest.ID, first.Items[0].ID)
	assert.Equal(t, middle.ID, first.Items[1].ID)
	require.NotEmpty(t, first.Cursor)

	second, err := repo.ListAll(context.Background(), pagination.Params{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, oldest.ID, second.Items[0].ID)
	assert.Empty(t, second.Cursor)

	_, err = repo.ListAll(context.Background(), pagination.Params{Cursor: "not base64"})
	assert.Error(t, err)
}

func TestRepositoryListByDealerFiltersInactive(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	dealerID := uuid.New()
	active := newUser(t, db, "m@evdms.app", enums.RoleDealerManager, &dealerID, time.Now())
	suspended := &models.User{
		ID:           uuid.New(),
		Email:        "s@evdms.app",
		PasswordHash: "x",
		FullName:     "Suspended Staff",
		Role:         string(enums.RoleDealerStaff),
		DealerID:     &dealerID,
		IsActive:     false,
	}
	require.NoError(t, db.Create(suspended).Error)
	newUser(t, db, "other@evdms.app", enums.RoleDealerStaff, nil, time.Now())

	members, err := repo.ListByDealer(context.Background(), dealerID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, active.ID, members[0].ID)
}
