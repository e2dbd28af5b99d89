package repository

import (
	"context"
	"fmt"
	"readingcompass/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaxonomyRepo handles MongoDB operations for authored taxonomies
type TaxonomyRepo interface {
	GetMeta(ctx context.Context, taxonomyID string) (*model.TaxonomyMeta, error)
	ListQuestions(ctx context.Context, taxonomyID string) ([]model.QuestionDoc, error)
	ListTypes(ctx context.Context, taxonomyID string) ([]model.TypeDoc, error)
	ListCompatibility(ctx context.Context, taxonomyID string) ([]model.CompatibilityDoc, error)
	Upsert(ctx context.Context, doc *model.TaxonomyDocument) error
}

type taxonomyRepo struct {
	taxonomies    *mongo.Collection
	questions     *mongo.Collection
	types         *mongo.Collection
	compatibility *mongo.Collection
}

// NewTaxonomyRepo creates a new taxonomy repository
func NewTaxonomyRepo(db *mongo.Database) TaxonomyRepo {
	return &taxonomyRepo{
		taxonomies:    db.Collection("taxonomies"),
		questions:     db.Collection("questions"),
		types:         db.Collection("personality_types"),
		compatibility: db.Collection("compatibility_profiles"),
	}
}

func (r *taxonomyRepo) GetMeta(ctx context.Context, taxonomyID string) (*model.TaxonomyMeta, error) {
	var meta model.TaxonomyMeta
	err := r.taxonomies.FindOne(ctx, bson.M{"_id": taxonomyID}).Decode(&meta)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *taxonomyRepo) ListQuestions(ctx context.Context, taxonomyID string) ([]model.QuestionDoc, error) {
	var out []model.QuestionDoc
	err := findAll(ctx, r.questions, bson.M{"taxonomyId": taxonomyID}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}), &out)
	return out, err
}

func (r *taxonomyRepo) ListTypes(ctx context.Context, taxonomyID string) ([]model.TypeDoc, error) {
	var out []model.TypeDoc
	err := findAll(ctx, r.types, bson.M{"taxonomyId": taxonomyID}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}), &out)
	return out, err
}

func (r *taxonomyRepo) ListCompatibility(ctx context.Context, taxonomyID string) ([]model.CompatibilityDoc, error) {
	var out []model.CompatibilityDoc
	err := findAll(ctx, r.compatibility, bson.M{"taxonomyId": taxonomyID}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}), &out)
	return out, err
}

// Upsert replaces the stored taxonomy with doc. Rows no longer present in
// doc are removed. Rows are written before the header, so until the header
// carries the new revision readers see rows that do not match it and can
// tell the publish is still running.
func (r *taxonomyRepo) Upsert(ctx context.Context, doc *model.TaxonomyDocument) error {
	meta, questions, types, compat := doc.Split(time.Now().UTC())

	qIDs := make([]string, len(questions))
	qModels := make([]mongo.WriteModel, len(questions))
	for i := range questions {
		qIDs[i] = questions[i].ID
		qModels[i] = replaceModel(questions[i].ID, &questions[i])
	}
	if err := r.syncRows(ctx, r.questions, meta.ID, qIDs, qModels); err != nil {
		return fmt.Errorf("upsert questions: %w", err)
	}

	tIDs := make([]string, len(types))
	tModels := make([]mongo.WriteModel, len(types))
	for i := range types {
		tIDs[i] = types[i].ID
		tModels[i] = replaceModel(types[i].ID, &types[i])
	}
	if err := r.syncRows(ctx, r.types, meta.ID, tIDs, tModels); err != nil {
		return fmt.Errorf("upsert types: %w", err)
	}

	cIDs := make([]string, len(compat))
	cModels := make([]mongo.WriteModel, len(compat))
	for i := range compat {
		cIDs[i] = compat[i].ID
		cModels[i] = replaceModel(compat[i].ID, &compat[i])
	}
	if err := r.syncRows(ctx, r.compatibility, meta.ID, cIDs, cModels); err != nil {
		return fmt.Errorf("upsert compatibility: %w", err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.taxonomies.ReplaceOne(ctx, bson.M{"_id": meta.ID}, meta, opts); err != nil {
		return fmt.Errorf("upsert taxonomy %s: %w", meta.ID, err)
	}
	return nil
}

func (r *taxonomyRepo) syncRows(ctx context.Context, coll *mongo.Collection, taxonomyID string, keep []string, models []mongo.WriteModel) error {
	if len(models) > 0 {
		if _, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return err
		}
	}
	_, err := coll.DeleteMany(ctx, bson.M{"taxonomyId": taxonomyID, "_id": bson.M{"$nin": keep}})
	return err
}

func replaceModel(id string, doc interface{}) mongo.WriteModel {
	return mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true)
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out interface{}) error {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
