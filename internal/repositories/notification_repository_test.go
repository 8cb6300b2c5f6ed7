package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Listing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateNotification(&models.Notification{
			RecipientID: 1,
			SenderID:    2,
			Type:        models.NotificationLike,
			PostID:      fmt.Sprintf("post-%d", i),
		}))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, repo.CreateNotification(&models.Notification{
		RecipientID: 2,
		SenderID:    1,
		Type:        models.NotificationFollow,
	}))

	notifications, err := repo.GetByRecipientID(1, 3)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	// Newest first.
	assert.Equal(t, "post-4", notifications[0].PostID)

	count, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	notif := &models.Notification{RecipientID: 1, SenderID: 2, Type: models.NotificationLike}
	require.NoError(t, repo.CreateNotification(notif))

	// The wrong recipient cannot mark it read.
	require.NoError(t, repo.MarkAsRead(notif.ID, 2))
	count, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.MarkAsRead(notif.ID, 1))
	count, err = repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(&models.Notification{RecipientID: 1, SenderID: 2, Type: models.NotificationComment}))
	}
	require.NoError(t, repo.CreateNotification(&models.Notification{RecipientID: 2, SenderID: 1, Type: models.NotificationLike}))

	require.NoError(t, repo.MarkAllAsRead(1))

	count, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
