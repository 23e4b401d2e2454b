package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification records a reply to one of the recipient's comments
type Notification struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey" bson:"_id"`
	RecipientID string    `json:"recipientId" gorm:"not null;index" bson:"recipient_id"`
	ActorID     string    `json:"actorId" gorm:"not null" bson:"actor_id"`
	Message     string    `json:"message" gorm:"not null" bson:"message"`
	CommentID   *string   `json:"commentId" gorm:"type:uuid;index" bson:"comment_id"` // the replied-to comment, nil once purged
	IsRead      bool      `json:"isRead" gorm:"not null;default:false;index" bson:"is_read"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null;index" bson:"created_at"`
}

// BeforeCreate assigns the identifier on first insert.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// ListNotificationsQuery carries the paging parameters of the notification listings
type ListNotificationsQuery struct {
	Page  int `query:"page" validate:"min=1"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}
