package store

import (
	"context"
	"regexp"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoApplicationStore struct {
	applicationCollection *mongo.Collection
	profileCollection     string
}

// NewMongoApplicationStore creates an ApplicationStore. Joins read display
// fields from profileCollection.
func NewMongoApplicationStore(db *mongo.Database, collection, profileCollection string) ApplicationStore {
	return &mongoApplicationStore{
		applicationCollection: db.Collection(collection),
		profileCollection:     profileCollection,
	}
}

var newestFirst = bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *mongoApplicationStore) Insert(ctx context.Context, app models.Application) (*models.Application, error) {
	if app.Id.IsZero() {
		app.Id = primitive.NewObjectID()
	}
	if _, err := s.applicationCollection.InsertOne(ctx, app); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &app, nil
}

func (s *mongoApplicationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var app models.Application
	if err := s.applicationCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *mongoApplicationStore) LatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.Application, error) {
	var app models.Application
	opts := options.FindOne().SetSort(newestFirst)
	if err := s.applicationCollection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&app); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *mongoApplicationStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Application, error) {
	cursor, err := s.applicationCollection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	apps := []models.Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *mongoApplicationStore) FindByNumber(ctx context.Context, userID primitive.ObjectID, number string) (*models.Application, error) {
	var app models.Application
	filter := bson.M{"user_id": userID, "application_number": number}
	if err := s.applicationCollection.FindOne(ctx, filter).Decode(&app); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *mongoApplicationStore) ApplyReview(ctx context.Context, id primitive.ObjectID, from []models.ApplicationStatus, d models.ReviewDecision) (*models.Application, error) {
	set := bson.M{
		"status":      d.Status,
		"reviewed_at": d.ReviewedAt,
		"reviewed_by": d.ReviewedBy,
	}
	update := bson.M{"$set": set}
	if d.Status == models.ApplicationStatusRejected {
		set["rejection_reason"] = d.RejectionReason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}
	if d.AdminNotes != "" {
		set["admin_notes"] = d.AdminNotes
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var app models.Application
	if err := s.applicationCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&app); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *mongoApplicationStore) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus) (*models.Application, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var app models.Application
	if err := s.applicationCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&app); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *mongoApplicationStore) DeleteIfStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) error {
	res, err := s.applicationCollection.DeleteOne(ctx, bson.M{"_id": id, "status": status})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// withProfile joins each application with its owner's profile and replaces
// the joined document by its display summary.
func (s *mongoApplicationStore) withProfile() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         s.profileCollection,
			"localField":   "user_id",
			"foreignField": "user_id",
			"as":           "profile",
		}},
		{"$unwind": bson.M{"path": "$profile", "preserveNullAndEmptyArrays": true}},
		{"$addFields": bson.M{
			"profile": bson.M{
				"name":          bson.M{"$ifNull": []any{"$profile.basic.full_name", ""}},
				"email":         bson.M{"$ifNull": []any{"$profile.basic.email", ""}},
				"phone":         bson.M{"$ifNull": []any{"$profile.basic.phone", ""}},
				"profile_image": bson.M{"$ifNull": []any{"$profile.basic.profile_pic_file.url", ""}},
			},
		}},
	}
}

func (s *mongoApplicationStore) GetView(ctx context.Context, id primitive.ObjectID) (*models.ApplicationView, error) {
	pipeline := append([]bson.M{{"$match": bson.M{"_id": id}}}, s.withProfile()...)

	cursor, err := s.applicationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var views []models.ApplicationView
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (s *mongoApplicationStore) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := s.applicationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.ApplicationStatus `bson:"_id"`
		Count  int64                    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(models.StatusCounts, len(models.ApplicationStatuses))
	for _, s := range models.ApplicationStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *mongoApplicationStore) Recent(ctx context.Context, limit int) ([]models.RecentApplication, error) {
	pipeline := []bson.M{
		{"$sort": newestFirst},
		{"$limit": int64(limit)},
	}
	pipeline = append(pipeline, s.withProfile()...)
	pipeline = append(pipeline, bson.M{"$project": bson.M{
		"application_number": 1,
		"name":               "$profile.name",
		"email":              "$profile.email",
		"phone":              "$profile.phone",
		"profile_image":      "$profile.profile_image",
		"submitted_date":     "$submitted_at",
		"status":             1,
		"admin_notes":        1,
		"rejection_reason":   1,
	}})

	cursor, err := s.applicationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recent := []models.RecentApplication{}
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

func (s *mongoApplicationStore) Search(ctx context.Context, filter models.ApplicationFilter, page util.PaginationArgs) ([]models.ApplicationView, int64, error) {
	match := bson.M{}
	if filter.Status != "" {
		match["status"] = filter.Status
	}
	if filter.Range.From != nil || filter.Range.To != nil {
		window := bson.M{}
		if filter.Range.From != nil {
			window["$gte"] = *filter.Range.From
		}
		if filter.Range.To != nil {
			window["$lte"] = *filter.Range.To
		}
		match["submitted_at"] = window
	}

	pipeline := []bson.M{{"$match": match}}
	pipeline = append(pipeline, s.withProfile()...)
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		pipeline = append(pipeline, bson.M{"$match": bson.M{"$or": []bson.M{
			{"profile.name": pattern},
			{"profile.email": pattern},
			{"profile.phone": pattern},
		}}})
	}
	pipeline = append(pipeline, bson.M{"$facet": bson.M{
		"items": []bson.M{
			{"$sort": newestFirst},
			{"$skip": page.Skip()},
			{"$limit": int64(page.Limit)},
		},
		"total": []bson.M{{"$count": "count"}},
	}})

	cursor, err := s.applicationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Items []models.ApplicationView `bson:"items"`
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, err
	}

	views := []models.ApplicationView{}
	var total int64
	if len(result) > 0 {
		if result[0].Items != nil {
			views = result[0].Items
		}
		if len(result[0].Total) > 0 {
			total = result[0].Total[0].Count
		}
	}
	return views, total, nil
}
