package repository

import (
	"context"
	"readingcompass/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LinkRepo records which children a parent may view.
type LinkRepo interface {
	Link(ctx context.Context, parentID, childID string) error
	IsLinked(ctx context.Context, parentID, childID string) (bool, error)
	Children(ctx context.Context, parentID string) ([]string, error)
}

type linkRepo struct {
	collection *mongo.Collection
}

// NewLinkRepo creates a new link repository
func NewLinkRepo(db *mongo.Database) LinkRepo {
	return &linkRepo{
		collection: db.Collection("child_links"),
	}
}

func (r *linkRepo) Link(ctx context.Context, parentID, childID string) error {
	// $setOnInsert keeps the original createdAt on repeat links.
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.RowID(parentID, childID)},
		bson.M{"$setOnInsert": bson.M{
			"parentId":  parentID,
			"childId":   childID,
			"createdAt": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *linkRepo) IsLinked(ctx context.Context, parentID, childID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"parentId": parentID, "childId": childID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *linkRepo) Children(ctx context.Context, parentID string) ([]string, error) {
	var links []model.ChildLink
	opts := options.Find().SetSort(bson.D{{Key: "childId", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"parentId": parentID}, opts, &links); err != nil {
		return nil, err
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ChildID
	}
	return ids, nil
}
