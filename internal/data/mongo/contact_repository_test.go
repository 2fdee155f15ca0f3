package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/money"
)

func sampleContact() *contact.Contact {
	now := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	c := &contact.Contact{
		ID:      "contact-1",
		OwnerID: "owner-1",
		Name:    "Ali",
		Transactions: []contact.Transaction{
			{ID: "t1", Date: now, Kind: contact.KindCredit, Direction: contact.DirectionLent, Amount: 30000, Note: "rent"},
		},
		Version:   2,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Recompute()
	return c
}

func TestContactRepository_Create(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("Success", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), sampleContact())
		assert.NoError(mt, err)
	})

	mt.Run("DuplicateID", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Create(context.Background(), sampleContact())
		assert.ErrorIs(mt, err, contact.ErrDuplicateContact{ContactID: "contact-1"})
	})
}

func TestContactRepository_GetByID(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("Found", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		stored := sampleContact()
		mt.AddMockResponses(cursor(mt, toDoc(mt, stored)))

		got, err := repo.GetByID(context.Background(), "owner-1", "contact-1")

		require.NoError(mt, err)
		assert.Equal(mt, stored.ID, got.ID)
		assert.Equal(mt, money.Amount(30000), got.CurrentBalance)
		assert.Equal(mt, contact.BalanceOwed, got.BalanceType)
		require.Len(mt, got.Transactions, 1)
		assert.Equal(mt, "rent", got.Transactions[0].Note)
		assert.True(mt, stored.UpdatedAt.Equal(got.UpdatedAt))
	})

	mt.Run("NotFound", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(cursor(mt))

		_, err := repo.GetByID(context.Background(), "someone-else", "contact-1")

		assert.ErrorIs(mt, err, contact.ErrContactNotFound{ContactID: "contact-1"})
	})

	mt.Run("ServerError", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		_, err := repo.GetByID(context.Background(), "owner-1", "contact-1")

		require.Error(mt, err)
		assert.False(mt, errors.Is(err, contact.ErrContactNotFound{}))
	})
}

func TestContactRepository_List(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("ReturnsDecodedContacts", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		a, b := sampleContact(), sampleContact()
		b.ID = "contact-2"
		mt.AddMockResponses(cursor(mt, toDoc(mt, a), toDoc(mt, b)))

		got, err := repo.List(context.Background(), "owner-1", contact.ListFilter{Search: "a.i", BalanceType: contact.BalanceOwed})

		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "contact-2", got[1].ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		assert.Equal(mt, "owner-1", filter.Lookup("owner_id").StringValue())
		assert.Equal(mt, "owed", filter.Lookup("balance_type").StringValue())
		assert.Equal(mt, `a\.i`, filter.Lookup("name", "$regex").StringValue(), "search text is matched literally")
	})

	mt.Run("EmptyIsNotNil", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(cursor(mt))

		got, err := repo.List(context.Background(), "owner-1", contact.ListFilter{})

		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})
}

func TestContactRepository_Update(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("VersionMatches", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		c := sampleContact()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.Update(context.Background(), c, 2)

		require.NoError(mt, err)
		assert.Equal(mt, int64(3), c.Version)
	})

	mt.Run("StaleVersionIsConflict", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		c := sampleContact()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			cursor(mt, bson.D{{Key: "n", Value: 1}}),
		)

		err := repo.Update(context.Background(), c, 2)

		assert.ErrorIs(mt, err, contact.ErrConflict{ContactID: "contact-1"})
		assert.Equal(mt, int64(2), c.Version, "version is restored after a failed write")
	})

	mt.Run("VanishedIsNotFound", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			cursor(mt),
		)

		err := repo.Update(context.Background(), sampleContact(), 2)

		assert.ErrorIs(mt, err, contact.ErrContactNotFound{})
	})
}

func TestContactRepository_Delete(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("Deleted", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), "owner-1", "contact-1"))
	})

	mt.Run("Missing", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), "owner-1", "contact-1")
		assert.ErrorIs(mt, err, contact.ErrContactNotFound{})
	})
}

func TestContactRepository_BalanceGroups(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("FoldsIntoStats", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(cursor(mt,
			bson.D{{Key: "_id", Value: "owe"}, {Key: "count", Value: int32(1)}, {Key: "total", Value: int64(10000)}},
			bson.D{{Key: "_id", Value: "owed"}, {Key: "count", Value: int32(1)}, {Key: "total", Value: int64(5000)}},
			bson.D{{Key: "_id", Value: "settled"}, {Key: "count", Value: int32(1)}, {Key: "total", Value: int64(0)}},
		))

		groups, err := repo.BalanceGroups(context.Background(), "owner-1")

		require.NoError(mt, err)
		stats, err := contact.NewStats(groups)
		require.NoError(mt, err)
		assert.Equal(mt, contact.Stats{TotalContacts: 3, TotalOwe: 10000, TotalOwed: 5000, TotalSettled: 1}, stats)
	})
}

func TestContactRepository_Scan(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("VisitsEveryContact", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		a, b := sampleContact(), sampleContact()
		b.ID = "contact-2"
		mt.AddMockResponses(cursor(mt, toDoc(mt, a), toDoc(mt, b)))

		var ids []string
		err := repo.Scan(context.Background(), func(c *contact.Contact) error {
			ids = append(ids, c.ID)
			return nil
		})

		require.NoError(mt, err)
		assert.Equal(mt, []string{"contact-1", "contact-2"}, ids)
	})

	mt.Run("StopsOnCallbackError", func(mt *mtest.T) {
		repo := NewContactRepository(testLogger, mt.DB, mt.Coll.Name())
		mt.AddMockResponses(cursor(mt, toDoc(mt, sampleContact()), toDoc(mt, sampleContact())))
		stop := errors.New("stop")

		calls := 0
		err := repo.Scan(context.Background(), func(*contact.Contact) error {
			calls++
			return stop
		})

		assert.ErrorIs(mt, err, stop)
		assert.Equal(mt, 1, calls)
	})
}
