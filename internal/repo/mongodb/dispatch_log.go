package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

const dispatchLogCollection = "dispatch_logs"

// DispatchLogRepository is an append-only audit trail of dispatches.
type DispatchLogRepository interface {
	Append(ctx context.Context, record *models.DispatchRecord) error
	ListRecent(ctx context.Context, limit int64) ([]*models.DispatchRecord, error)
	EnsureIndexes(ctx context.Context) error
}

type dispatchLogRepo struct {
	collection *mongo.Collection
}

// NewDispatchLogRepository returns a no-op repository when db is nil.
func NewDispatchLogRepository(db *DB) DispatchLogRepository {
	if db == nil {
		return noopDispatchLog{}
	}
	return &dispatchLogRepo{
		collection: db.Database.Collection(dispatchLogCollection),
	}
}

func (r *dispatchLogRepo) Append(ctx context.Context, record *models.DispatchRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to append dispatch log: %w", err)
	}
	return nil
}

func (r *dispatchLogRepo) ListRecent(ctx context.Context, limit int64) ([]*models.DispatchRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatch logs: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.DispatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode dispatch logs: %w", err)
	}
	return records, nil
}

func (r *dispatchLogRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "torrent_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatch log indexes: %w", err)
	}
	return nil
}

type noopDispatchLog struct{}

func (noopDispatchLog) Append(context.Context, *models.DispatchRecord) error { return nil }

func (noopDispatchLog) ListRecent(context.Context, int64) ([]*models.DispatchRecord, error) {
	return nil, nil
}

func (noopDispatchLog) EnsureIndexes(context.Context) error { return nil }
