package indexer

import (
	"applicant-api-io/api/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func index(collection, name string, keys bson.D, unique bool) IndexDefinition {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return IndexDefinition{
		Collection: collection,
		Index:      mongo.IndexModel{Keys: keys, Options: opts},
	}
}

// Definitions lists every index the stores rely on. The unique ones carry
// invariants: one profile and one cooldown claim per user, one user per
// phone, a single administrator.
func Definitions() []IndexDefinition {
	return []IndexDefinition{
		index(common.ProfileCollection, "profile_user_unique", bson.D{{Key: "user_id", Value: 1}}, true),
		index(common.ProfileCollection, "profile_basic_phone", bson.D{{Key: "basic.phone", Value: 1}}, false),

		index(common.ApplicationCooldownCollection, "cooldown_user_unique", bson.D{{Key: "user_id", Value: 1}}, true),

		index(common.UserCollection, "user_phone_unique", bson.D{{Key: "phone", Value: 1}}, true),

		index(common.AdminCollection, "admin_singleton_unique", bson.D{{Key: "singleton", Value: 1}}, true),
		index(common.AdminCollection, "admin_email_unique", bson.D{{Key: "email", Value: 1}}, true),

		index(common.ApplicationCollection, "application_number_unique", bson.D{{Key: "application_number", Value: 1}}, true),
		index(common.ApplicationCollection, "application_user_submitted", bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}}, false),
		index(common.ApplicationCollection, "application_status_submitted", bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}}, false),
		index(common.ApplicationCollection, "application_submitted", bson.D{{Key: "submitted_at", Value: -1}}, false),
	}
}
