package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewConnection(ctx context.Context, uri, database string) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName("torrent-bot").
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(database),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
