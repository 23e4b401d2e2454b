package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/pagination"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
)

const previewLength = 50

// NotificationService creates reply notifications and serves them to their recipients.
type NotificationService struct {
	notifications repositories.NotificationRepository
	comments      repositories.CommentRepository
	users         repositories.UserRepository
	logger        *slog.Logger
	now           Clock
}

func NewNotificationService(
	notifications repositories.NotificationRepository,
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		comments:      comments,
		users:         users,
		logger:        logger.With("component", "notifications"),
		now:           systemClock,
	}
}

// NotifyReply records that replyingUserID answered repliedToCommentID, for recipientUserID.
func (s *NotificationService) NotifyReply(ctx context.Context, recipientUserID, replyingUserID, repliedToCommentID string) error {
	replied, err := s.comments.GetCommentByID(ctx, repliedToCommentID)
	if err != nil {
		return fmt.Errorf("load replied-to comment: %w", err)
	}

	actor := replyingUserID
	if s.users != nil {
		if u, err := s.users.GetUserByID(ctx, replyingUserID); err == nil {
			actor = u.Email
		}
	}

	commentID := replied.ID
	notification := &models.Notification{
		RecipientID: recipientUserID,
		ActorID:     replyingUserID,
		Message:     replyMessage(actor, replied.Content),
		CommentID:   &commentID,
		CreatedAt:   s.now(),
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		return err
	}

	s.logger.Debug("reply notification created",
		"recipient", recipientUserID,
		"comment_id", repliedToCommentID,
	)
	return nil
}

// ListUnread pages through the unread notifications of userID, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID string, page, limit int) (pagination.Page[models.Notification], error) {
	return s.list(ctx, userID, true, page, limit)
}

// ListAll pages through every notification of userID, newest first.
func (s *NotificationService) ListAll(ctx context.Context, userID string, page, limit int) (pagination.Page[models.Notification], error) {
	return s.list(ctx, userID, false, page, limit)
}

func (s *NotificationService) list(ctx context.Context, userID string, unreadOnly bool, page, limit int) (pagination.Page[models.Notification], error) {
	items, total, err := s.notifications.GetByRecipientID(ctx, userID, unreadOnly, pagination.Offset(page, limit), limit)
	if err != nil {
		return pagination.Page[models.Notification]{}, err
	}
	return pagination.New(items, total, page, limit), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, userID)
}

// MarkAsRead flags a notification as read. Only its recipient may do so.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.notifications.MarkAsRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return nil, notFound("notification not found or you are not the recipient")
		}
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

func replyMessage(actor, content string) string {
	runes := []rune(content)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return fmt.Sprintf("%s replied to your comment: \"%s...\"", actor, string(runes))
}
