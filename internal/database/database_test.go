package database

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost:5432/qurux"))
	assert.True(t, IsPostgres("postgresql://localhost/qurux"))
	assert.False(t, IsPostgres("qurux.db"))
	assert.False(t, IsPostgres(":memory:"))
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:database_%s?mode=memory&cache=shared", t.Name())
	db, err := Connect(dsn, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	for _, table := range []string{"salons", "services", "profiles", "accounts", "bookings", "booking_slots"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("booking_slots", "idx_booking_slots_active"))
}
