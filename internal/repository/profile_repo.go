package repository

import (
	"context"
	"readingcompass/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileRepo stores classification results. It never overwrites a record.
type ProfileRepo interface {
	Create(ctx context.Context, record *model.ProfileRecord) (bool, error)
	Get(ctx context.Context, id string) (*model.ProfileRecord, error)
	Latest(ctx context.Context, subjectID, taxonomyID string) (*model.ProfileRecord, error)
	History(ctx context.Context, subjectID, taxonomyID string, limit int) ([]*model.ProfileRecord, error)
}

type profileRepo struct {
	collection *mongo.Collection
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db *mongo.Database) ProfileRepo {
	return &profileRepo{
		collection: db.Collection("profiles"),
	}
}

// Create inserts record and reports whether it was new. Inserting an id that
// already exists leaves the stored record untouched and returns false.
func (r *profileRepo) Create(ctx context.Context, record *model.ProfileRecord) (bool, error) {
	_, err := r.collection.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *profileRepo) Get(ctx context.Context, id string) (*model.ProfileRecord, error) {
	var record model.ProfileRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func newestFirst() bson.D {
	return bson.D{{Key: "completedAt", Value: -1}, {Key: "_id", Value: -1}}
}

func (r *profileRepo) Latest(ctx context.Context, subjectID, taxonomyID string) (*model.ProfileRecord, error) {
	var record model.ProfileRecord
	opts := options.FindOne().SetSort(newestFirst())
	err := r.collection.FindOne(ctx, bson.M{"subjectId": subjectID, "taxonomyId": taxonomyID}, opts).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *profileRepo) History(ctx context.Context, subjectID, taxonomyID string, limit int) ([]*model.ProfileRecord, error) {
	opts := options.Find().SetSort(newestFirst())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	var records []*model.ProfileRecord
	err := findAll(ctx, r.collection, bson.M{"subjectId": subjectID, "taxonomyId": taxonomyID}, opts, &records)
	return records, err
}
