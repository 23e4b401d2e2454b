package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a node in a forest of reply trees. A nil ParentID marks a top-level post.
type Comment struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	AuthorID  string     `json:"authorId" gorm:"not null;index"`
	ParentID  *string    `json:"parentId" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
	IsDeleted bool       `json:"isDeleted" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"deletedAt" gorm:"index"`

	// Derived on read, never stored.
	Children []*Comment   `json:"children" gorm:"-"`
	Author   *UserCompact `json:"author,omitempty" gorm:"-"`
}

// BeforeCreate assigns the identifier on first insert.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Clone returns a copy of c without its derived fields.
func (c *Comment) Clone() *Comment {
	cp := *c
	cp.Children = nil
	cp.Author = nil
	if c.ParentID != nil {
		parent := *c.ParentID
		cp.ParentID = &parent
	}
	if c.DeletedAt != nil {
		deletedAt := *c.DeletedAt
		cp.DeletedAt = &deletedAt
	}
	return &cp
}

// CreateCommentRequest defines the request body for posting a comment or a reply
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=1000"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,uuid4"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// ListCommentsQuery carries the listing parameters of GET /comments
type ListCommentsQuery struct {
	ParentID string `query:"parentId" validate:"omitempty,uuid4"`
	Page     int    `query:"page" validate:"min=1"`
	Limit    int    `query:"limit" validate:"min=1,max=100"`
}
