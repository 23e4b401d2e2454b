package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

const notificationsCollection = "notifications"

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection(notificationsCollection)}
}

// EnsureIndexes creates the indexes the listing queries rely on
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "comment_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"recipient_id": recipientID}
	if unreadOnly {
		filter["is_read"] = false
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
}

func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, notificationID, recipientID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": notificationID, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&notification)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	return &notification, nil
}

func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) DetachComments(ctx context.Context, commentIDs []string) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"comment_id": bson.M{"$in": commentIDs}},
		bson.M{"$set": bson.M{"comment_id": nil}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
