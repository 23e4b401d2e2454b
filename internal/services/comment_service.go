package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/anonto42/discussion-tree/backend/internal/metrics"
	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/pagination"
	"github.com/anonto42/discussion-tree/backend/internal/policy"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
	"github.com/anonto42/discussion-tree/backend/internal/tree"
)

const (
	msgNotAuthor      = "comment not found or you are not the author"
	msgEditWindow     = "comments can only be edited within 15 minutes of posting"
	msgRestoreWindow  = "comments can only be restored within 15 minutes of deletion"
	msgNotDeleted     = "comment is not soft-deleted and cannot be restored"
	msgRestoreForbid  = "you are not authorized to restore this comment"
	msgConcurrentEdit = "comment was modified concurrently, reload and try again"
)

// Notifier receives reply events. It is called once per reply whose author
// differs from the parent's author.
type Notifier interface {
	NotifyReply(ctx context.Context, recipientUserID, replyingUserID, repliedToCommentID string) error
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// CommentService orchestrates comment creation, reads and the
// Active <-> Deleted state machine.
type CommentService struct {
	comments repositories.CommentRepository
	users    repositories.UserRepository
	notifier Notifier
	logger   *slog.Logger
	now      Clock
}

type CommentServiceOption func(*CommentService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now Clock) CommentServiceOption {
	return func(s *CommentService) { s.now = now }
}

// WithUsers enables author info on reads.
func WithUsers(users repositories.UserRepository) CommentServiceOption {
	return func(s *CommentService) { s.users = users }
}

func NewCommentService(comments repositories.CommentRepository, notifier Notifier, logger *slog.Logger, opts ...CommentServiceOption) *CommentService {
	s := &CommentService{
		comments: comments,
		notifier: notifier,
		logger:   logger.With("component", "comments"),
		now:      systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create posts a top-level comment, or a reply when parentID is set.
func (s *CommentService) Create(ctx context.Context, content, authorID string, parentID *string) (*models.Comment, error) {
	var parent *models.Comment
	if parentID != nil {
		p, err := s.comments.GetCommentByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, repositories.ErrCommentNotFound) {
				return nil, notFound("parent comment not found")
			}
			return nil, err
		}
		parent = p
	}

	now := s.now()
	comment := &models.Comment{
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	if err := s.comments.SaveComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.Children = []*models.Comment{}

	if parent == nil {
		metrics.CommentsCreated.WithLabelValues("top_level").Inc()
		return comment, nil
	}
	metrics.CommentsCreated.WithLabelValues("reply").Inc()

	if parent.AuthorID != authorID && s.notifier != nil {
		if err := s.notifier.NotifyReply(ctx, parent.AuthorID, authorID, parent.ID); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			s.logger.Warn("reply notification failed",
				"recipient", parent.AuthorID,
				"comment_id", parent.ID,
				"reply_id", comment.ID,
				"error", err,
			)
		} else {
			metrics.Notifications.WithLabelValues("sent").Inc()
		}
	}
	return comment, nil
}

// GetByID returns the comment whatever its deletion state, with author info attached.
func (s *CommentService) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return nil, notFound("comment not found")
		}
		return nil, err
	}
	s.attachAuthors(ctx, []*models.Comment{comment})
	return comment, nil
}

// List pages through top-level comments, or through the direct replies of
// parentID when it is non-empty. Every returned item carries its filtered reply tree.
func (s *CommentService) List(ctx context.Context, parentID string, page, limit int) (pagination.Page[*models.Comment], error) {
	if parentID == "" {
		return s.listTopLevel(ctx, page, limit)
	}
	return s.listChildren(ctx, parentID, page, limit)
}

func (s *CommentService) listTopLevel(ctx context.Context, page, limit int) (pagination.Page[*models.Comment], error) {
	top, total, err := s.comments.ListTopLevel(ctx, pagination.Offset(page, limit), limit)
	if err != nil {
		return pagination.Page[*models.Comment]{}, err
	}

	ids := lo.Map(top, func(c models.Comment, _ int) string { return c.ID })
	trees, err := s.comments.GetDescendantTrees(ctx, ids)
	if err != nil {
		return pagination.Page[*models.Comment]{}, err
	}

	items := tree.Filter(trees)
	s.attachAuthors(ctx, items)
	return pagination.New(items, total, page, limit), nil
}

func (s *CommentService) listChildren(ctx context.Context, parentID string, page, limit int) (pagination.Page[*models.Comment], error) {
	root, err := s.comments.GetCommentWithDescendants(ctx, parentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return pagination.Page[*models.Comment]{}, notFound("parent comment not found")
		}
		return pagination.Page[*models.Comment]{}, err
	}

	var children []*models.Comment
	if filtered := tree.Filter([]*models.Comment{root}); len(filtered) > 0 {
		children = filtered[0].Children
	}

	result := pagination.Slice(children, page, limit)
	s.attachAuthors(ctx, result.Data)
	return result, nil
}

// Edit replaces the content of a live comment owned by userID within its edit window.
func (s *CommentService) Edit(ctx context.Context, id, content, userID string) (*models.Comment, error) {
	now := s.now()

	comment, err := s.comments.GetCommentByID(ctx, id)
	if err := s.mutationResult("edit", checkEditable(comment, err, userID, now)); err != nil {
		return nil, err
	}

	ok, err := s.comments.UpdateContent(ctx, id, userID, content, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.mutationResult("edit", s.recheck(ctx, id, func(c *models.Comment, err error) error {
			return checkEditable(c, err, userID, now)
		}))
	}

	metrics.CommentMutations.WithLabelValues("edit", "ok").Inc()
	comment.Content = content
	comment.UpdatedAt = now
	comment.Children = []*models.Comment{}
	s.attachAuthors(ctx, []*models.Comment{comment})
	return comment, nil
}

// Delete soft-deletes a live comment owned by userID. There is no time limit.
func (s *CommentService) Delete(ctx context.Context, id, userID string) error {
	now := s.now()

	comment, err := s.comments.GetCommentByID(ctx, id)
	if err := s.mutationResult("delete", checkLiveOwned(comment, err, userID)); err != nil {
		return err
	}

	ok, err := s.comments.MarkDeleted(ctx, id, userID, now)
	if err != nil {
		return err
	}
	if !ok {
		return s.mutationResult("delete", s.recheck(ctx, id, func(c *models.Comment, err error) error {
			return checkLiveOwned(c, err, userID)
		}))
	}

	metrics.CommentMutations.WithLabelValues("delete", "ok").Inc()
	s.logger.Debug("comment deleted", "comment_id", id)
	return nil
}

// Restore undoes a soft delete made by userID less than 15 minutes ago.
func (s *CommentService) Restore(ctx context.Context, id, userID string) (*models.Comment, error) {
	now := s.now()

	comment, err := s.comments.GetCommentByID(ctx, id)
	if err := s.mutationResult("restore", checkRestorable(comment, err, userID, now)); err != nil {
		return nil, err
	}

	ok, err := s.comments.MarkRestored(ctx, id, userID, policy.RestoreCutoff(now))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.mutationResult("restore", s.recheck(ctx, id, func(c *models.Comment, err error) error {
			return checkRestorable(c, err, userID, now)
		}))
	}

	metrics.CommentMutations.WithLabelValues("restore", "ok").Inc()
	comment.IsDeleted = false
	comment.DeletedAt = nil
	comment.Children = []*models.Comment{}
	s.attachAuthors(ctx, []*models.Comment{comment})
	return comment, nil
}

// recheck runs after a conditional update matched nothing. It re-reads the row and
// reports the precondition that now fails, or a conflict if they all still hold.
func (s *CommentService) recheck(ctx context.Context, id string, check func(*models.Comment, error) error) error {
	comment, err := s.comments.GetCommentByID(ctx, id)
	if err := check(comment, err); err != nil {
		return err
	}
	s.logger.Warn("conditional update lost a race", "comment_id", id)
	return conflict(msgConcurrentEdit)
}

func (s *CommentService) mutationResult(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.CommentMutations.WithLabelValues(op, "not_found").Inc()
	case errors.Is(err, ErrForbidden):
		metrics.CommentMutations.WithLabelValues(op, "forbidden").Inc()
	case errors.Is(err, ErrConflict):
		metrics.CommentMutations.WithLabelValues(op, "conflict").Inc()
	}
	return err
}

func (s *CommentService) attachAuthors(ctx context.Context, nodes []*models.Comment) {
	if s.users == nil || len(nodes) == 0 {
		return
	}
	users, err := s.users.GetUsersByIDs(ctx, tree.AuthorIDs(nodes))
	if err != nil {
		s.logger.Warn("author lookup failed", "error", err)
		return
	}
	byID := lo.KeyBy(users, func(u models.User) string { return u.ID })
	tree.Walk(nodes, func(c *models.Comment) {
		if u, ok := byID[c.AuthorID]; ok {
			compact := u.ToCompact()
			c.Author = &compact
		}
	})
}

// checkLiveOwned maps a lookup result to NotFound unless the comment exists,
// is not deleted and belongs to userID.
func checkLiveOwned(c *models.Comment, lookupErr error, userID string) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, repositories.ErrCommentNotFound) {
			return notFound(msgNotAuthor)
		}
		return fmt.Errorf("load comment: %w", lookupErr)
	}
	if !policy.IsAuthor(c, userID) || c.IsDeleted {
		return notFound(msgNotAuthor)
	}
	return nil
}

func checkEditable(c *models.Comment, lookupErr error, userID string, now time.Time) error {
	if err := checkLiveOwned(c, lookupErr, userID); err != nil {
		return err
	}
	if !policy.CanEdit(c, now) {
		return forbidden(msgEditWindow)
	}
	return nil
}

func checkRestorable(c *models.Comment, lookupErr error, userID string, now time.Time) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, repositories.ErrCommentNotFound) {
			return notFound("comment not found")
		}
		return fmt.Errorf("load comment: %w", lookupErr)
	}
	switch {
	case !policy.IsAuthor(c, userID):
		return forbidden(msgRestoreForbid)
	case !c.IsDeleted:
		return forbidden(msgNotDeleted)
	case !policy.CanRestore(c, now):
		return forbidden(msgRestoreWindow)
	}
	return nil
}
