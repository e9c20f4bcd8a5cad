package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

const collectionPickups = "pickup_requests"

// pickupDocument stores the derived active flag next to the request so the
// unique index can be restricted to requests still awaiting pickup.
type pickupDocument struct {
	domain.PickupRequest `bson:",inline"`
	Active               bool `bson:"active"`
}

func toDocument(req *domain.PickupRequest) pickupDocument {
	return pickupDocument{PickupRequest: *req, Active: req.Active()}
}

type PickupRepository struct {
	col *mongo.Collection
}

func NewPickupRepository(db *mongo.Database) *PickupRepository {
	return &PickupRepository{col: db.Collection(collectionPickups)}
}

// Create inserts a new pickup request. A second active request for the same
// (event, subscriber) is rejected by the unique partial index.
func (r *PickupRepository) Create(ctx context.Context, req *domain.PickupRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDocument(req)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert pickup %s/%s: active request exists: %w", req.EventID, req.SubscriberID, err)
		}
		return fmt.Errorf("insert pickup: %w", err)
	}
	return nil
}

// FindActive returns the requested or notified pickup of subscriberID for
// eventID, or domain.ErrNotFound.
func (r *PickupRepository) FindActive(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"event_id": eventID, "subscriber_id": subscriberID, "active": true}

	var doc pickupDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find pickup: %w", err)
	}
	return &doc.PickupRequest, nil
}

// ListActive returns the active pickups of eventID ordered by plan sequence.
func (r *PickupRepository) ListActive(ctx context.Context, eventID string) ([]*domain.PickupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"event_id": eventID, "active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	defer cur.Close(ctx)

	var docs []pickupDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pickups: %w", err)
	}

	out := make([]*domain.PickupRequest, len(docs))
	for i := range docs {
		out[i] = &docs[i].PickupRequest
	}
	return out, nil
}

// Update replaces the stored request with req.
func (r *PickupRepository) Update(ctx context.Context, req *domain.PickupRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": req.ID}, toDocument(req))
	if err != nil {
		return fmt.Errorf("update pickup: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes on the pickup_requests collection.
func (r *PickupRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, pickupIndexes())
	return err
}

// pickupIndexes allows one active request per (event, subscriber) and keeps
// the ordered active listing of an event indexed.
func pickupIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "subscriber_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_pickup").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "active", Value: 1}, {Key: "sequence", Value: 1}}},
	}
}
