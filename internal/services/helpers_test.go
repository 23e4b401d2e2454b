package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type notifyCall struct {
	recipient, replier, commentID string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) NotifyReply(_ context.Context, recipient, replier, commentID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{recipient, replier, commentID})
	return n.err
}

type testEnv struct {
	db            *gorm.DB
	clock         *fakeClock
	comments      *repositories.PostgresCommentRepository
	users         *repositories.PostgresUserRepository
	notifications repositories.NotificationRepository
	logger        *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &testEnv{
		db:            db,
		clock:         &fakeClock{now: t0},
		comments:      repositories.NewPostgresCommentRepository(db),
		users:         repositories.NewPostgresUserRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) commentService(notifier Notifier, repo repositories.CommentRepository) *CommentService {
	if repo == nil {
		repo = e.comments
	}
	return NewCommentService(repo, notifier, e.logger, WithClock(e.clock.Now), WithUsers(e.users))
}

func (e *testEnv) notificationService() *NotificationService {
	s := NewNotificationService(e.notifications, e.comments, e.users, e.logger)
	s.now = e.clock.Now
	return s
}

func (e *testEnv) user(t *testing.T, email string) string {
	t.Helper()
	u := &models.User{Email: email}
	require.NoError(t, e.users.CreateUser(t.Context(), u))
	return u.ID
}
