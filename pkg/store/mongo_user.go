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

type mongoUserStore struct {
	userCollection *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database, collection string) UserStore {
	return &mongoUserStore{userCollection: db.Collection(collection)}
}

// UpsertByPhone marks the phone's account verified, creating it on first
// sign-in.
func (s *mongoUserStore) UpsertByPhone(ctx context.Context, phone string, now time.Time) (*models.User, error) {
	update := bson.M{
		"$set":         bson.M{"is_verified": true, "last_login": now, "modified_at": now},
		"$setOnInsert": bson.M{"phone": phone, "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var user models.User
	err := s.userCollection.FindOneAndUpdate(ctx, bson.M{"phone": phone}, update, opts).Decode(&user)
	if err != nil && isDuplicateKey(err) {
		err = s.userCollection.FindOneAndUpdate(ctx, bson.M{"phone": phone}, update, opts).Decode(&user)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.userCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
