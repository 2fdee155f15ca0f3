package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifesync-ledger/internal/domain/contact"
)

// ContactRepository implements the contact.Repository interface for MongoDB.
// Every query carries the owner id, so foreign contacts are indistinguishable from missing ones.
type ContactRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewContactRepository creates a new MongoDB contact repository
func NewContactRepository(logger *slog.Logger, db *mongo.Database, collectionName string) contact.Repository {
	return &ContactRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

// Create inserts a new contact. Returns ErrDuplicateContact if the id is taken.
func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return contact.ErrDuplicateContact{ContactID: c.ID}
		}
		r.logger.Error("Failed to create contact", "contact_id", c.ID, "error", err)
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetByID loads one contact of the owner. Returns ErrContactNotFound if absent or foreign.
func (r *ContactRepository) GetByID(ctx context.Context, ownerID, contactID string) (*contact.Contact, error) {
	var c contact.Contact
	err := r.collection.FindOne(ctx, bson.M{"_id": contactID, "owner_id": ownerID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, contact.ErrContactNotFound{ContactID: contactID}
		}
		r.logger.Error("Failed to get contact", "contact_id", contactID, "error", err)
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// List returns the owner's contacts, most recently updated first
func (r *ContactRepository) List(ctx context.Context, ownerID string, filter contact.ListFilter) ([]*contact.Contact, error) {
	query := bson.M{"owner_id": ownerID}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}
	if filter.BalanceType != "" {
		query["balance_type"] = filter.BalanceType
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error("Failed to list contacts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	contacts := []*contact.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		r.logger.Error("Failed to decode contacts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, nil
}

// Update replaces the stored contact if its version still equals expectedVersion, then bumps the version.
// Returns ErrContactNotFound if the contact vanished and ErrConflict if someone else wrote first.
func (r *ContactRepository) Update(ctx context.Context, c *contact.Contact, expectedVersion int64) error {
	c.Version = expectedVersion + 1

	filter := bson.M{"_id": c.ID, "owner_id": c.OwnerID, "version": expectedVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, c)
	if err != nil {
		c.Version = expectedVersion
		r.logger.Error("Failed to update contact", "contact_id", c.ID, "error", err)
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	c.Version = expectedVersion
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": c.ID, "owner_id": c.OwnerID})
	if err != nil {
		return fmt.Errorf("failed to check contact after version mismatch: %w", err)
	}
	if count == 0 {
		return contact.ErrContactNotFound{ContactID: c.ID}
	}
	return contact.ErrConflict{ContactID: c.ID}
}

// Delete removes the owner's contact together with its transactions
func (r *ContactRepository) Delete(ctx context.Context, ownerID, contactID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": contactID, "owner_id": ownerID})
	if err != nil {
		r.logger.Error("Failed to delete contact", "contact_id", contactID, "error", err)
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if result.DeletedCount == 0 {
		return contact.ErrContactNotFound{ContactID: contactID}
	}
	return nil
}

// BalanceGroups counts and sums the owner's contacts per balance type in one aggregation
func (r *ContactRepository) BalanceGroups(ctx context.Context, ownerID string) ([]contact.BalanceGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner_id": ownerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$balance_type",
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$current_balance"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate contact balances", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to aggregate contact balances: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []contact.BalanceGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode contact balance groups: %w", err)
	}
	return groups, nil
}

// Scan streams every stored contact in id order
func (r *ContactRepository) Scan(ctx context.Context, fn func(*contact.Contact) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to scan contacts: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var c contact.Contact
		if err := cursor.Decode(&c); err != nil {
			return fmt.Errorf("failed to decode contact during scan: %w", err)
		}
		if err := fn(&c); err != nil {
			return err
		}
	}
	return cursor.Err()
}
