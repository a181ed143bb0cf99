package dealers

import (
	"context"
	"testing"

	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	"github.com/evdms-platform/evdms-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDealersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS dealers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  region TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newDealer(t *testing.T, db *gorm.DB, name string, active bool) *models.Dealer {
	t.Helper()

	dealer := &models.Dealer{
		ID:     uuid.New(),
		Name:   name,
		Region: "southwest",
		Address: types.Address{
			Line1:      "500 Charging Way",
			City:       "Austin",
			State:      "TX",
			PostalCode: "78701",
			Country:    "US",
			Lat:        30.2672,
			Lng:        -97.7431,
		},
		IsActive: active,
	}
	require.NoError(t, db.Create(dealer).Error)
	return dealer
}

func TestRepositoryFindByIDRoundTripsAddress(t *testing.T) {
	db := setupDealersTestDB(t)
	repo := NewRepository(db)

	created := newDealer(t, db, "Volt Motors", true)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, found.Name)
	assert.Equal(t, "500 Charging Way", found.Address.Line1)
	assert.Equal(t, "Austin", found.Address.City)
	assert.InDelta(t, 30.2672, found.Address.Lat, 0.0001)
}

func TestRepositoryListActiveSkipsInactive(t *testing.T) {
	db := setupDealersTestDB(t)
	repo := NewRepository(db)

	newDealer(t, db, "Amp Autos", true)
	newDealer(t, db, "Volt Motors", true)
	newDealer(t, db, "Closed Cars", false)

	active, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Amp Autos", active[0].Name)
	assert.Equal(t, "Volt Motors", active[1].Name)
}
