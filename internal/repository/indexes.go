package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the secondary indexes the repositories query by.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"questions":              {{Keys: bson.D{{Key: "taxonomyId", Value: 1}, {Key: "order", Value: 1}}}},
		"personality_types":      {{Keys: bson.D{{Key: "taxonomyId", Value: 1}, {Key: "order", Value: 1}}}},
		"compatibility_profiles": {{Keys: bson.D{{Key: "taxonomyId", Value: 1}, {Key: "key", Value: 1}}}},
		"profiles": {{Keys: bson.D{
			{Key: "subjectId", Value: 1},
			{Key: "taxonomyId", Value: 1},
			{Key: "completedAt", Value: -1},
		}}},
		"child_links": {{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "childId", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
