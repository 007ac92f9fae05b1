package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func healthConfig() *config.Config {
	return &config.Config{DBType: "mysql", DBDatabase: "rcf", AuthzURL: "http://authorizer:8080"}
}

func TestHealthCheckHealthy(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()

	result := healthCheck(context.Background(), healthConfig(), db, func(string) error { return nil }, logging.Discard())

	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Authorizer)
	assert.Equal(t, "rcf", result.Details["database_name"])
	assert.Empty(t, result.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	result := healthCheck(context.Background(), healthConfig(), db, func(string) error { return nil }, logging.Discard())

	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Database)
	assert.Equal(t, "ok", result.Authorizer)
	assert.Contains(t, result.ErrorMessage, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckBothDown(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	result := healthCheck(context.Background(), healthConfig(), db, func(string) error {
		return errors.New("dial tcp: i/o timeout")
	}, logging.Discard())

	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Authorizer)
	assert.Contains(t, result.ErrorMessage, "Database ping failed")
	assert.Contains(t, result.ErrorMessage, "; Authorizer ping failed")
}
