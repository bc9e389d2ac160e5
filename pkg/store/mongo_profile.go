package store

import (
	"context"
	"time"

	"applicant-api-io/api/pkg/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProfileStore struct {
	profileCollection *mongo.Collection
}

func NewMongoProfileStore(db *mongo.Database, collection string) ProfileStore {
	return &mongoProfileStore{profileCollection: db.Collection(collection)}
}

func (s *mongoProfileStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	err := s.profileCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (s *mongoProfileStore) UpsertSections(ctx context.Context, userID primitive.ObjectID, version int64, sections Sections, now time.Time) (*models.Profile, error) {
	set := bson.M{"modified_at": now}
	for key, value := range sections {
		set[key] = value
	}

	update := bson.M{
		"$set":         set,
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
	}
	filter := bson.M{"user_id": userID, "version": version}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if version == 0 {
		// profiles written before versioning have no version field
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
		opts.SetUpsert(true)
	}

	var profile models.Profile
	err := s.profileCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&profile)
	if err != nil {
		// a stale version either misses the filter or, on the insert path,
		// collides with the unique user_id index
		if errors.Is(err, mongo.ErrNoDocuments) || isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &profile, nil
}

func (s *mongoProfileStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	err := s.profileCollection.FindOneAndDelete(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}
