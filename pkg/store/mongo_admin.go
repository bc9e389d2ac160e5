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

// mongoAdminStore keeps at most one admin: every document carries
// singleton=true under a unique index.
type mongoAdminStore struct {
	adminCollection *mongo.Collection
}

func NewMongoAdminStore(db *mongo.Database, collection string) AdminStore {
	return &mongoAdminStore{adminCollection: db.Collection(collection)}
}

func (s *mongoAdminStore) Create(ctx context.Context, admin models.Admin) (*models.Admin, error) {
	if admin.Id.IsZero() {
		admin.Id = primitive.NewObjectID()
	}
	admin.Singleton = true
	if _, err := s.adminCollection.InsertOne(ctx, admin); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &admin, nil
}

func (s *mongoAdminStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoAdminStore) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoAdminStore) findOne(ctx context.Context, filter bson.M) (*models.Admin, error) {
	var admin models.Admin
	if err := s.adminCollection.FindOne(ctx, filter).Decode(&admin); err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (s *mongoAdminStore) VerifyEmail(ctx context.Context, token string, now time.Time) (*models.Admin, error) {
	filter := bson.M{
		"verify_token":        token,
		"verify_token_expiry": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"email_verified": true, "modified_at": now},
		"$unset": bson.M{"verify_token": "", "verify_token_expiry": ""},
	}
	return s.findAndUpdate(ctx, filter, update)
}

func (s *mongoAdminStore) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	update := bson.M{"$set": bson.M{"reset_token": token, "reset_token_expiry": expiry}}
	res, err := s.adminCollection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoAdminStore) ResetPassword(ctx context.Context, email, token, passwordHash string, now time.Time) (*models.Admin, error) {
	filter := bson.M{
		"email":              email,
		"reset_token":        token,
		"reset_token_expiry": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "modified_at": now},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	}
	return s.findAndUpdate(ctx, filter, update)
}

func (s *mongoAdminStore) TouchLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := s.adminCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": now}})
	return err
}

func (s *mongoAdminStore) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Admin, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var admin models.Admin
	if err := s.adminCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&admin); err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}
