package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifesync-ledger/internal/domain/contact"
)

// legacyLoanDocument mirrors the stored shape of single-axis loan documents
type legacyLoanDocument struct {
	ID           primitive.ObjectID        `bson:"_id"`
	User         primitive.ObjectID        `bson:"user"`
	PersonName   string                    `bson:"personName"`
	PhoneNumber  string                    `bson:"phoneNumber"`
	Relationship string                    `bson:"relationship"`
	Transactions []legacyTransactionRecord `bson:"transactions"`
	CreatedAt    time.Time                 `bson:"createdAt"`
	UpdatedAt    time.Time                 `bson:"updatedAt"`
}

type legacyTransactionRecord struct {
	Type        string    `bson:"type"`
	Amount      float64   `bson:"amount"`
	Description string    `bson:"description"`
	Note        string    `bson:"note"`
	Date        time.Time `bson:"date"`
}

func (d legacyLoanDocument) toDomain() contact.LegacyLoan {
	loan := contact.LegacyLoan{
		ID:           d.ID.Hex(),
		OwnerID:      d.User.Hex(),
		PersonName:   d.PersonName,
		PhoneNumber:  d.PhoneNumber,
		Relationship: d.Relationship,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, t := range d.Transactions {
		loan.Transactions = append(loan.Transactions, contact.LegacyTransaction{
			Type:        t.Type,
			Amount:      t.Amount,
			Description: t.Description,
			Note:        t.Note,
			Date:        t.Date,
		})
	}
	return loan
}

// LegacyRepository reads loan documents in the single-axis format
type LegacyRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewLegacyRepository creates a reader over the legacy loans collection
func NewLegacyRepository(logger *slog.Logger, db *mongo.Database, collectionName string) contact.LegacyRepository {
	return &LegacyRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

// Scan streams every legacy loan in id order
func (r *LegacyRepository) Scan(ctx context.Context, fn func(contact.LegacyLoan) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to scan legacy loans: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc legacyLoanDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Error("Failed to decode legacy loan", "error", err)
			return fmt.Errorf("failed to decode legacy loan: %w", err)
		}
		if err := fn(doc.toDomain()); err != nil {
			return err
		}
	}
	return cursor.Err()
}
