package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestEntryFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{oid, oid.Hex()}}, "user_id": "u1"}, entryFilter("u1", oid.Hex()))
	assert.Equal(t, bson.M{"_id": "legacy-id", "user_id": "u1"}, entryFilter("u1", "legacy-id"))
}

func TestFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	at := primitive.NewDateTimeFromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	doc := fromBSON(bson.M{
		"_id":                 oid,
		"user_id":             "u1",
		models.FieldTitle:     "A",
		models.FieldCreatedAt: at,
	})

	assert.Equal(t, oid.Hex(), doc.ID)
	assert.Equal(t, models.Fields{models.FieldTitle: "A", models.FieldCreatedAt: at}, doc.Fields)
	assert.Equal(t, "7", fromBSON(bson.M{"_id": int32(7)}).ID)
	assert.Empty(t, fromBSON(bson.M{}).ID)
}

// Runs against a real MongoDB when MONGO_TEST_URI is set.
func TestMongo_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	db := client.Database("diary_test_" + uuid.NewString()[:8])
	t.Cleanup(func() { db.Drop(context.Background()) })

	s := NewMongo(db)
	require.NoError(t, s.EnsureIndexes(ctx))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	oldID, err := s.CreateEntry(ctx, "u1", fields("old", base))
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, "u1", fields("new", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, "u2", fields("other", base))
	require.NoError(t, err)

	docs, err := s.ListEntries(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, titles(docs))
	assert.IsType(t, primitive.DateTime(0), docs[0].Fields[models.FieldCreatedAt])

	doc, found, err := s.GetEntry(ctx, "u1", oldID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, oldID, doc.ID)

	_, found, err = s.GetEntry(ctx, "u2", oldID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.DeleteEntry(ctx, "u1", oldID))
	require.NoError(t, s.DeleteEntry(ctx, "u1", oldID))
	docs, err = s.ListEntries(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, titles(docs))

	// imported record whose string id looks like an ObjectID
	legacyID := primitive.NewObjectID().Hex()
	_, err = s.col.InsertOne(ctx, bson.M{fieldID: legacyID, fieldUserID: "u1", "title": "imported"})
	require.NoError(t, err)

	doc, found, err = s.GetEntry(ctx, "u1", legacyID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, legacyID, doc.ID)

	require.NoError(t, s.DeleteEntry(ctx, "u1", legacyID))
	_, found, err = s.GetEntry(ctx, "u1", legacyID)
	require.NoError(t, err)
	assert.False(t, found)
}
