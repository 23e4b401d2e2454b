package repositories

import (
	"gorm.io/gorm"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

// AutoMigrate creates or updates the relational schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Notification{},
	)
}
