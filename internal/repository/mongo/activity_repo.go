package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/repository"
)

const activityCollectionName = "activities"

type mongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// InsertMany upserts on (userId, externalId) when an external id is present so re-syncs are idempotent.
func (r *mongoActivityRepository) InsertMany(ctx context.Context, activities []domain.CompletedActivity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		if a.ID == primitive.NilObjectID {
			a.ID = primitive.NewObjectID()
		}
		a.CreatedAt = now
		if a.ExternalID == "" {
			models = append(models, mongo.NewInsertOneModel().SetDocument(a))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"userId": a.UserID, "externalId": a.ExternalID}).
			SetUpdate(bson.M{"$setOnInsert": a}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return int(result.InsertedCount + result.UpsertedCount), nil
}

func (r *mongoActivityRepository) ListByUserRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.CompletedActivity, error) {
	filter := bson.M{"userId": userID}
	if dateRange := dateFilter(from, to); len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	activities := []domain.CompletedActivity{}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func EnsureActivityIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"externalId": bson.M{"$type": "string"},
			}),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
