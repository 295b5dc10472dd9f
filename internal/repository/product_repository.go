package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/models"
)

// MongoProductRepository stores products in a MongoDB collection. Field-scoped
// writes rely on MongoDB's single-document atomicity ($set, $inc with a guard
// in the filter).
type MongoProductRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoProductRepository(collection *mongo.Collection, timeout time.Duration) *MongoProductRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoProductRepository{
		collection: collection,
		timeout:    timeout,
	}
}

// Create inserts a new product and assigns its id.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	const op = "MongoProductRepository.Create"
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	product.ID = primitive.NewObjectID()
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, product)
	return classify(op, err)
}

// FindByID returns a product by id.
func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "MongoProductRepository.FindByID"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product); err != nil {
		return nil, classify(op, err)
	}
	return &product, nil
}

// Snapshot reads the full product set.
func (r *MongoProductRepository) Snapshot(ctx context.Context) ([]models.Product, error) {
	const op = "MongoProductRepository.Snapshot"
	return r.find(ctx, op, bson.M{}, nil)
}

// FindActive lists products that expire after now, optionally by category.
func (r *MongoProductRepository) FindActive(ctx context.Context, now time.Time, category string) ([]models.Product, error) {
	const op = "MongoProductRepository.FindActive"

	filter := bson.M{"expiryDate": bson.M{"$gt": now}}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	return r.find(ctx, op, filter, opts)
}

func (r *MongoProductRepository) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, classify(op, err)
	}
	return products, nil
}

// SetCurrentPrice updates the effective price. No upsert: a record removed by
// the sweeper stays removed.
func (r *MongoProductRepository) SetCurrentPrice(ctx context.Context, id string, price float64) error {
	const op = "MongoProductRepository.SetCurrentPrice"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"currentPrice": price,
			"updatedAt":    time.Now(),
		}},
	)
	if err != nil {
		return classify(op, err)
	}
	if result.MatchedCount == 0 {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}
	return nil
}

// ApplyPurchase is a conditional decrement: the stock guard lives in the filter
// so the check and the $inc are one atomic document update.
func (r *MongoProductRepository) ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error {
	const op = "MongoProductRepository.ApplyPurchase"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":        objID,
			"stockLevel": bson.M{"$gte": qty},
		},
		bson.M{
			"$inc": bson.M{
				"stockLevel":    -qty,
				"unitsSold":     qty,
				"salesVelocity": velocityDelta,
			},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return classify(op, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the product is gone or the guard rejected it.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}
	return apperr.Wrap(op, apperr.ErrOutOfStock)
}

// DeleteExpired removes every product whose expiry is at or before now.
func (r *MongoProductRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "MongoProductRepository.DeleteExpired"
	return r.deleteMany(ctx, op, bson.M{"expiryDate": bson.M{"$lte": now}})
}

// DeleteOutOfStock removes products with no stock left.
func (r *MongoProductRepository) DeleteOutOfStock(ctx context.Context) (int64, error) {
	const op = "MongoProductRepository.DeleteOutOfStock"
	return r.deleteMany(ctx, op, bson.M{"stockLevel": bson.M{"$lte": 0}})
}

func (r *MongoProductRepository) deleteMany(ctx context.Context, op string, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, classify(op, err)
	}
	return result.DeletedCount, nil
}

// Delete removes a single product.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	const op = "MongoProductRepository.Delete"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return classify(op, err)
	}
	if result.DeletedCount == 0 {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}
	return nil
}

// classify maps driver errors onto the shared taxonomy. Anything that is not a
// missing document, a duplicate or a caller cancellation is a store failure and
// may be retried.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(op, apperr.ErrNotFound)
	case errors.Is(err, context.Canceled), mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(op, err)
	default:
		return apperr.Transient(op, err)
	}
}
