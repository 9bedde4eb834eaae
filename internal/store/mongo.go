package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// EntriesCollection holds the entries of all users, keyed by user_id.
	EntriesCollection = "entries"

	fieldID     = "_id"
	fieldUserID = "user_id"
)

// Mongo stores entries in a MongoDB collection.
type Mongo struct {
	col *mongo.Collection
}

// NewMongo creates a store over db's entries collection.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{col: db.Collection(EntriesCollection)}
}

// EnsureIndexes creates the index used by ListEntries.
// Called on startup and by the migrate command.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: fieldUserID, Value: 1},
				{Key: models.FieldCreatedAt, Value: -1},
			},
			Options: options.Index().SetName("idx_user_created_at"),
		},
	}

	for _, m := range indexes {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Mongo) ListEntries(ctx context.Context, userID string) ([]models.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: models.FieldCreatedAt, Value: -1}})

	cur, err := s.col.Find(ctx, bson.M{fieldUserID: userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]models.Document, 0)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			// undecodable records are skipped like unmappable ones
			continue
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Mongo) CreateEntry(ctx context.Context, userID string, fields models.Fields) (string, error) {
	id := primitive.NewObjectID()

	doc := bson.M{
		fieldID:     id,
		fieldUserID: userID,
	}
	for k, v := range fields {
		if k == fieldID || k == fieldUserID {
			continue
		}
		doc[k] = v
	}

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *Mongo) DeleteEntry(ctx context.Context, userID, entryID string) error {
	_, err := s.col.DeleteOne(ctx, entryFilter(userID, entryID))
	return err
}

func (s *Mongo) GetEntry(ctx context.Context, userID, entryID string) (models.Document, bool, error) {
	var raw bson.M
	err := s.col.FindOne(ctx, entryFilter(userID, entryID)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, err
	}
	return fromBSON(raw), true, nil
}

// entryFilter matches ObjectID ids and the string ids of imported records.
// A hex string may be either, so both forms are matched.
func entryFilter(userID, entryID string) bson.M {
	var id interface{} = entryID
	if oid, err := primitive.ObjectIDFromHex(entryID); err == nil {
		id = bson.M{"$in": bson.A{oid, entryID}}
	}
	return bson.M{fieldID: id, fieldUserID: userID}
}

func fromBSON(raw bson.M) models.Document {
	var id string
	switch v := raw[fieldID].(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	case nil:
	default:
		id = fmt.Sprint(v)
	}

	fields := make(models.Fields, len(raw))
	for k, v := range raw {
		if k == fieldID || k == fieldUserID {
			continue
		}
		fields[k] = v
	}
	return models.Document{ID: id, Fields: fields}
}
