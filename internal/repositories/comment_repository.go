package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/tree"
)

// CommentRepository persists comment nodes and answers tree queries.
// All writes touch a single row except PurgeSubtrees, which only the retention sweep calls.
type CommentRepository interface {
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentWithDescendants(ctx context.Context, id string) (*models.Comment, error)
	GetDescendantTrees(ctx context.Context, rootIDs []string) ([]*models.Comment, error)
	ListTopLevel(ctx context.Context, offset, limit int) ([]models.Comment, int64, error)
	SaveComment(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, authorID, content string, now time.Time) (bool, error)
	MarkDeleted(ctx context.Context, id, authorID string, now time.Time) (bool, error)
	MarkRestored(ctx context.Context, id, authorID string, cutoff time.Time) (bool, error)
	FindDeletedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Comment, error)
	PurgeSubtrees(ctx context.Context, ids []string) ([]string, error)
}

// Rows are ordered by creation so tree.Build keeps children in insertion order.
// UNION rather than UNION ALL stops the recursion on a corrupted cycle.
const subtreeQuery = `
WITH RECURSIVE subtree AS (
	SELECT * FROM comments WHERE id IN ?
	UNION
	SELECT c.* FROM comments c
	INNER JOIN subtree s ON c.parent_id = s.id
)
SELECT * FROM subtree ORDER BY created_at ASC, id ASC`

const subtreeIDsQuery = `
WITH RECURSIVE subtree AS (
	SELECT id FROM comments WHERE id IN ?
	UNION
	SELECT c.id FROM comments c
	INNER JOIN subtree s ON c.parent_id = s.id
)
SELECT id FROM subtree`

// PostgresCommentRepository implements CommentRepository on top of gorm
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// GetCommentByID returns the comment regardless of its deletion state
func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return &comment, nil
}

// GetCommentWithDescendants returns the comment with its whole reply tree attached,
// deleted nodes included
func (r *PostgresCommentRepository) GetCommentWithDescendants(ctx context.Context, id string) (*models.Comment, error) {
	trees, err := r.GetDescendantTrees(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(trees) == 0 {
		return nil, ErrCommentNotFound
	}
	return trees[0], nil
}

// GetDescendantTrees loads every root in rootIDs with its full reply tree in one query.
// Roots that do not exist are left out.
func (r *PostgresCommentRepository) GetDescendantTrees(ctx context.Context, rootIDs []string) ([]*models.Comment, error) {
	if len(rootIDs) == 0 {
		return []*models.Comment{}, nil
	}
	var rows []models.Comment
	if err := r.db.WithContext(ctx).Raw(subtreeQuery, rootIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load subtrees: %w", err)
	}
	return tree.Build(rows, rootIDs...), nil
}

// ListTopLevel returns one window of non-deleted top-level comments in creation order
// together with their total count
func (r *PostgresCommentRepository) ListTopLevel(ctx context.Context, offset, limit int) ([]models.Comment, int64, error) {
	var comments []models.Comment
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_id IS NULL AND is_deleted = ?", false).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count top-level comments: %w", err)
	}

	err := q.Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list top-level comments: %w", err)
	}
	return comments, total, nil
}

// SaveComment inserts or updates the comment
func (r *PostgresCommentRepository) SaveComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	return nil
}

// UpdateContent rewrites the content if the row is still live and owned by authorID.
// It reports whether a row matched.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, authorID, content string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND author_id = ? AND is_deleted = ?", id, authorID, false).
		Updates(map[string]any{"content": content, "updated_at": now})
	if res.Error != nil {
		return false, fmt.Errorf("update comment %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkDeleted soft-deletes a live comment owned by authorID
func (r *PostgresCommentRepository) MarkDeleted(ctx context.Context, id, authorID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND author_id = ? AND is_deleted = ?", id, authorID, false).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now})
	if res.Error != nil {
		return false, fmt.Errorf("delete comment %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkRestored clears the soft delete of a comment owned by authorID that was deleted after cutoff
func (r *PostgresCommentRepository) MarkRestored(ctx context.Context, id, authorID string, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND author_id = ? AND is_deleted = ? AND deleted_at > ?", id, authorID, true, cutoff).
		Updates(map[string]any{"is_deleted": false, "deleted_at": nil})
	if res.Error != nil {
		return false, fmt.Errorf("restore comment %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FindDeletedOlderThan lists soft-deleted comments whose deletion predates cutoff,
// oldest first. A non-positive limit returns all of them.
func (r *PostgresCommentRepository) FindDeletedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	q := r.db.WithContext(ctx).
		Where("is_deleted = ? AND deleted_at < ?", true, cutoff).
		Order("deleted_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("find expired comments: %w", err)
	}
	return comments, nil
}

// PurgeSubtrees physically removes the given comments and everything below them.
// It returns the ids that were removed.
func (r *PostgresCommentRepository) PurgeSubtrees(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var purged []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(subtreeIDsQuery, ids).Scan(&purged).Error; err != nil {
			return err
		}
		if len(purged) == 0 {
			return nil
		}
		return tx.Where("id IN ?", purged).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("purge comments: %w", err)
	}
	return purged, nil
}
