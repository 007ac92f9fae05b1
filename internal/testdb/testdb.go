// Package testdb opens isolated in-memory databases for package tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated pure-Go SQLite database private to t.
// A single connection serializes transactions the way row locks would.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// Slot inserts an open training slot starting on start (YYYY-MM-DD)
func Slot(t testing.TB, db *gorm.DB, label, start string) *models.TrainingSlot {
	t.Helper()
	d, err := models.ParseDate(start)
	require.NoError(t, err)
	slot := &models.TrainingSlot{Label: label, StartDate: d, IsActive: true}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

// College inserts a master college
func College(t testing.TB, db *gorm.DB, name string) *models.College {
	t.Helper()
	c := &models.College{CollegeDetails: models.CollegeDetails{Name: name, City: "Bathinda"}}
	require.NoError(t, db.Create(c).Error)
	return c
}
