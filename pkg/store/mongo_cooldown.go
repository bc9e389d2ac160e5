package store

import (
	"context"
	"time"

	"applicant-api-io/api/pkg/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCooldownStore relies on a unique index on user_id: an upsert that
// finds no elapsed claim collides with the existing document.
type mongoCooldownStore struct {
	cooldownCollection *mongo.Collection
}

func NewMongoCooldownStore(db *mongo.Database, collection string) CooldownStore {
	return &mongoCooldownStore{cooldownCollection: db.Collection(collection)}
}

func (s *mongoCooldownStore) Claim(ctx context.Context, userID primitive.ObjectID, now time.Time, period time.Duration) (bool, error) {
	filter := bson.M{
		"user_id":           userID,
		"last_submitted_at": bson.M{"$lte": now.Add(-period)},
	}
	update := bson.M{"$set": bson.M{"last_submitted_at": now}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	err := s.cooldownCollection.FindOneAndUpdate(ctx, filter, update, opts).Err()
	if err == nil {
		return true, nil
	}
	if isDuplicateKey(err) {
		return false, nil
	}
	return false, err
}

func (s *mongoCooldownStore) LastSubmitted(ctx context.Context, userID primitive.ObjectID) (time.Time, error) {
	var current models.ApplicationCooldown
	if err := s.cooldownCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&current); err != nil {
		return time.Time{}, notFound(err)
	}
	return current.LastSubmittedAt, nil
}

func (s *mongoCooldownStore) Release(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	_, err := s.cooldownCollection.DeleteOne(ctx, bson.M{"user_id": userID, "last_submitted_at": at})
	return err
}
