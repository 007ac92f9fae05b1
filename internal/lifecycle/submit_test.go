package lifecycle

import (
	"testing"

	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func activeSQL(db *gorm.DB) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var app models.Application
		return activeQuery(tx, "stu-1").Find(&app)
	})
}

func TestActiveLookupIndexHint(t *testing.T) {
	my, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "rcf:rcf@tcp(127.0.0.1:3306)/rcf",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sql := activeSQL(my)
	assert.Contains(t, sql, "USE INDEX")
	assert.Contains(t, sql, models.StudentStatusIndex)
	assert.Contains(t, sql, "student_id = 'stu-1'")

	// other dialects plan the composite index on their own
	sql = activeSQL(testdb.New(t))
	assert.NotContains(t, sql, "USE INDEX")
	assert.Contains(t, sql, "student_id")
}
