package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogRepository is the read side of the product catalog plus the two
// stock mutations checkout and cancellation need.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// DecrementStock removes qty units only if at least qty are available.
	DecrementStock(ctx context.Context, id string, qty int) error
	RestoreStock(ctx context.Context, id string, qty int) error
}

type MongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{collection: db.Collection("products")}
}

func (r *MongoCatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

// EachProduct streams the whole collection in batches of batchSize. A decode
// failure stops the scan.
func (r *MongoCatalogRepository) EachProduct(ctx context.Context, batchSize int32, fn func(*models.Product) error) error {
	cur, err := r.collection.Find(ctx, bson.M{}, options.Find().SetBatchSize(batchSize))
	if err != nil {
		return fmt.Errorf("scan products: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		if err := fn(&p); err != nil {
			return err
		}
	}
	return cur.Err()
}

func (r *MongoCatalogRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": -qty}})
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count product %s: %w", id, err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

func (r *MongoCatalogRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock": qty}})
	if err != nil {
		return fmt.Errorf("restore stock %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
