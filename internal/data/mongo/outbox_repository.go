package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifesync-ledger/internal/domain/outbox"
)

// OutboxRepository implements the outbox.Repository interface for MongoDB.
// Messages live next to the contacts so both can be written in one transaction.
type OutboxRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewOutboxRepository creates a new MongoDB outbox repository
func NewOutboxRepository(logger *slog.Logger, db *mongo.Database, collectionName string) outbox.Repository {
	return &OutboxRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

// Create stores a new outbox message in pending status.
// The message will be picked up by the outbox poller for processing.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		r.logger.Error("Failed to create outbox message",
			"outbox_id", message.ID,
			"contact_id", message.ContactID,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

// GetPending retrieves a batch of pending outbox messages ordered by creation time.
// This is used by the outbox poller to process messages in FIFO order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"status": outbox.StatusPending}, opts)
	if err != nil {
		r.logger.Error("Failed to query pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to query pending outbox messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*outbox.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode outbox messages: %w", err)
	}
	return messages, nil
}

// UpdateStatus sets the status and the last attempt time of a message
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id string, status outbox.Status) error {
	update := bson.M{"$set": bson.M{"status": status, "last_attempt_at": time.Now().UTC()}}
	return r.updateOne(ctx, id, update, "update outbox message status")
}

// IncrementAttempts records one more failed publish attempt
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_attempt_at": time.Now().UTC()},
	}
	return r.updateOne(ctx, id, update, "increment outbox message attempts")
}

func (r *OutboxRepository) updateOne(ctx context.Context, id string, update bson.M, action string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		r.logger.Error("Failed to "+action, "outbox_id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.MatchedCount == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
