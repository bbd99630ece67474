package mongodb

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	threadsCollection     = "threads"
	communitiesCollection = "communities"
)

type Storage struct {
	client      *mongo.Client
	db          *mongo.Database
	users       *mongo.Collection
	threads     *mongo.Collection
	communities *mongo.Collection
	cfg         *config.Config
}

// New connects (or reuses the shared connection), binds collections and
// makes sure the indexes exist.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	c, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := c.Database(cfg.Public.Mongo.Database)
	s := &Storage{
		client:      c,
		db:          db,
		users:       db.Collection(usersCollection),
		threads:     db.Collection(threadsCollection),
		communities: db.Collection(communitiesCollection),
		cfg:         cfg,
	}

	if err := s.createIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) createIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	threadIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "parentId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "author", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "community", Value: 1}},
		},
	}
	if _, err := s.threads.Indexes().CreateMany(ctx, threadIndexes); err != nil {
		return fmt.Errorf("failed to create threads indexes: %w", err)
	}

	communityIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	if _, err := s.communities.Indexes().CreateMany(ctx, communityIndexes); err != nil {
		return fmt.Errorf("failed to create communities indexes: %w", err)
	}
	return nil
}

// opCtx bounds ctx by the configured operation timeout unless the caller
// already set a deadline.
func (s *Storage) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Public.Mongo.OperationTimeout)
}

// withTransaction runs fn inside a session transaction when transactions are
// enabled, otherwise it simply calls fn.
func (s *Storage) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.cfg.Public.Mongo.UseTransactions {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Cleanup() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Disconnect(ctx); err != nil {
		logger.Log.Error("failed to close storage", "error", err)
		return err
	}
	return nil
}

// isNext reports whether more documents exist past the current page.
func isNext(total int64, skip, returned int) bool {
	return total-int64(returned) > int64(skip)
}

// pageSkip saturates at math.MaxInt instead of overflowing into a negative
// skip the server would reject.
func pageSkip(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	if pageSize > 0 && page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
