package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyMessage(t *testing.T) {
	assert.Equal(t, `bob@example.com replied to your comment: "short..."`, replyMessage("bob@example.com", "short"))

	long := strings.Repeat("é", 60)
	msg := replyMessage("bob", long)
	assert.Equal(t, `bob replied to your comment: "`+strings.Repeat("é", 50)+`..."`, msg)
}

func TestNotificationService_NotifyReply(t *testing.T) {
	env := newTestEnv(t)
	svc := env.notificationService()
	comments := env.commentService(nil, nil)
	ctx := t.Context()

	alice := env.user(t, "alice@example.com")
	parent, err := comments.Create(ctx, "is this thing on", alice, nil)
	require.NoError(t, err)

	require.NoError(t, svc.NotifyReply(ctx, alice, "unknown-user", parent.ID))

	page, err := svc.ListUnread(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	n := page.Data[0]
	assert.Equal(t, "unknown-user", n.ActorID)
	assert.Equal(t, `unknown-user replied to your comment: "is this thing on..."`, n.Message)
	assert.False(t, n.IsRead)

	assert.Error(t, svc.NotifyReply(ctx, alice, "bob", missingID))
}

func TestNotificationService_ReadFlow(t *testing.T) {
	env := newTestEnv(t)
	notifications := env.notificationService()
	comments := env.commentService(notifications, nil)
	ctx := t.Context()

	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	parent, err := comments.Create(ctx, "question", alice, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		_, err := comments.Create(ctx, "answer", bob, &parent.ID)
		require.NoError(t, err)
	}

	count, err := notifications.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := notifications.ListAll(ctx, alice, 1, 2)
	require.NoError(t, err)
	require.Len(t, all.Data, 2)
	assert.True(t, all.HasNextPage)
	assert.True(t, all.Data[0].CreatedAt.After(all.Data[1].CreatedAt), "newest first")
	assert.Contains(t, all.Data[0].Message, "bob@example.com")

	_, err = notifications.MarkAsRead(ctx, all.Data[0].ID, bob)
	assert.ErrorIs(t, err, ErrNotFound)

	read, err := notifications.MarkAsRead(ctx, all.Data[0].ID, alice)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = notifications.MarkAsRead(ctx, all.Data[0].ID, alice)
	require.NoError(t, err, "marking twice is harmless")

	unread, err := notifications.ListUnread(ctx, alice, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread.Total)

	updated, err := notifications.MarkAllAsRead(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = notifications.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = notifications.MarkAsRead(ctx, missingID, alice)
	assert.ErrorIs(t, err, ErrNotFound)
}
