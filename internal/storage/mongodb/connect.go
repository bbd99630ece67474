package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// One client per process. The driver pools connections internally.
var (
	clientMu sync.Mutex
	client   *mongo.Client
)

// Connect returns the shared client, dialing it on first use. A failed
// attempt leaves nothing cached so the next call dials again.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		return client, nil
	}
	if cfg.Private.MongoURI == "" {
		return nil, fmt.Errorf("mongo uri is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Public.Mongo.ConnectTimeout)
	defer cancel()

	logger.Log.Info("connecting to mongodb", "database", cfg.Public.Mongo.Database)
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Private.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	logger.Log.Info("connected to mongodb")

	client = c
	return client, nil
}

// Disconnect closes the shared client, if any.
func Disconnect(ctx context.Context) error {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	logger.Log.Info("disconnected from mongodb")
	return nil
}
