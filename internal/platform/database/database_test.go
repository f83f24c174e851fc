package database_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/keystone-api/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantEngine database.Engine
		wantPath   string
		wantErr    bool
	}{
		{"ado style", "Data Source=app.db", database.EngineSQLite, "app.db", false},
		{"ado style with options", "Data Source=/tmp/x/app.db;Cache=Shared", database.EngineSQLite, "/tmp/x/app.db", false},
		{"file uri", "file:data/app.db?mode=rwc", database.EngineSQLite, "data/app.db", false},
		{"bare path", "security.db", database.EngineSQLite, "security.db", false},
		{"memory", "Data Source=:memory:", database.EngineSQLite, "", false},
		{"postgres url", "postgres://u:p@localhost:5432/db", database.EnginePostgres, "", false},
		{"postgresql url", "postgresql://localhost/db", database.EnginePostgres, "", false},
		{"key value dsn", "host=localhost user=app dbname=app", database.EnginePostgres, "", false},
		{"empty", "   ", "", "", true},
		{"empty data source", "Data Source=", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target, err := database.ParseConnectionString(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantEngine, target.Engine)
			assert.Equal(t, tc.wantPath, target.Path)
			assert.NotEmpty(t, target.DSN)
		})
	}
}

func openTemp(t *testing.T) (*database.Context, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	c, err := database.Open("test", "Data Source="+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func TestOpenCreatesFileAndEnsureCreatedIsIdempotent(t *testing.T) {
	c, path := openTemp(t)
	assert.Equal(t, database.EngineSQLite, c.Engine)

	ctx := context.Background()
	created, err := c.EnsureCreated(ctx, &widget{})
	require.NoError(t, err)
	assert.True(t, created, "first ensure should create the table")

	created, err = c.EnsureCreated(ctx, &widget{})
	require.NoError(t, err)
	assert.False(t, created, "second ensure should be a no-op")

	assert.True(t, c.DB.Migrator().HasTable(&widget{}))
	require.NoError(t, c.Ping(ctx))

	_, err = os.Stat(path)
	assert.NoError(t, err, "sqlite file should exist")
}

func TestUniqueViolationMapsToDuplicate(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()
	_, err := c.EnsureCreated(ctx, &widget{})
	require.NoError(t, err)

	require.NoError(t, c.DB.Create(&widget{Name: "a"}).Error)
	err = c.DB.Create(&widget{Name: "a"}).Error
	require.Error(t, err)

	assert.True(t, database.IsUniqueViolation(err))
	assert.ErrorIs(t, database.MapError(err), errDuplicate())
}

func TestRunInTransactionRollsBack(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()
	_, err := c.EnsureCreated(ctx, &widget{})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = database.RunInTransaction(ctx, c.DB, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "rolled-back"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, c.DB.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)

	err = database.RunInTransaction(ctx, c.DB, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	})
	require.NoError(t, err)
	require.NoError(t, c.DB.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCloseNil(t *testing.T) {
	var c *database.Context
	assert.NoError(t, c.Close())
}
