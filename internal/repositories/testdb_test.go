package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func saveComment(t *testing.T, repo *PostgresCommentRepository, author string, parent *models.Comment, at time.Time) *models.Comment {
	t.Helper()

	c := &models.Comment{Content: "by " + author, AuthorID: author, CreatedAt: at, UpdatedAt: at}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, repo.SaveComment(t.Context(), c))
	return c
}
