// Package policy holds the time-boxed rules for editing, deleting and restoring
// comments. Every function takes the current time explicitly.
package policy

import (
	"time"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

const (
	// EditWindow is how long after posting the author may change the content.
	EditWindow = 15 * time.Minute
	// RestoreWindow is how long after a soft delete the author may undo it.
	RestoreWindow = 15 * time.Minute
	// RetentionWindow is how long a soft-deleted comment is kept before the sweep purges it.
	RetentionWindow = 30 * 24 * time.Hour
)

// CanEdit reports whether c is still inside its edit window at now.
func CanEdit(c *models.Comment, now time.Time) bool {
	return now.Sub(c.CreatedAt) < EditWindow
}

// CanRestore reports whether c is soft-deleted and still inside its restore window at now.
func CanRestore(c *models.Comment, now time.Time) bool {
	if !c.IsDeleted || c.DeletedAt == nil {
		return false
	}
	return now.Sub(*c.DeletedAt) < RestoreWindow
}

// IsAuthor reports whether userID created c.
func IsAuthor(c *models.Comment, userID string) bool {
	return userID != "" && c.AuthorID == userID
}

// RestoreCutoff is the oldest deletion time that can still be restored at now.
func RestoreCutoff(now time.Time) time.Time {
	return now.Add(-RestoreWindow)
}

// PurgeCutoff is the deletion time before which comments are eligible for purging.
func PurgeCutoff(now time.Time, retention time.Duration) time.Time {
	if retention <= 0 {
		retention = RetentionWindow
	}
	return now.Add(-retention)
}
