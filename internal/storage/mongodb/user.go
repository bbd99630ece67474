package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateUser upserts the profile keyed by the identity provider id and marks
// it onboarded.
func (s *Storage) UpdateUser(ctx context.Context, data domain.UserUpdateData) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"username":  strings.ToLower(data.Username),
			"name":      data.Name,
			"bio":       data.Bio,
			"image":     data.Image,
			"onboarded": true,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"threads":     bson.A{},
			"communities": bson.A{},
			"createdAt":   now,
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"id": data.UserId}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "username") {
		return internal_errors.BadRequest("Username is taken")
	}
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *Storage) FetchUser(ctx context.Context, userId domain.ExternalId) (domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"id": userId}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *Storage) checkUserExists(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if n == 0 {
		return internal_errors.NotFound("User not found")
	}
	return nil
}

// FetchUserPosts returns the profile with its threads in the order they were
// created, each with comments and their authors.
func (s *Storage) FetchUserPosts(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error) {
	user, err := s.FetchUser(ctx, userId)
	if err != nil {
		return domain.UserThreads{}, err
	}
	if len(user.Threads) == 0 {
		return domain.UserThreads{User: user, Threads: []domain.ThreadView{}}, nil
	}

	threads, err := s.findThreadsByIds(ctx, user.Threads)
	if err != nil {
		return domain.UserThreads{}, err
	}
	views, err := s.populateThreads(ctx, orderByIds(threads, user.Threads), 1)
	if err != nil {
		return domain.UserThreads{}, err
	}
	return domain.UserThreads{User: user, Threads: views}, nil
}

// searchFilter matches fields case-insensitively against the literal search
// string. An empty string matches everything.
func searchFilter(searchString string, fields ...string) bson.M {
	if searchString == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(searchString), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"$or": or}
}

func sortOrder(asc bool) int {
	if asc {
		return 1
	}
	return -1
}

// FetchUsers searches users by username or name, excluding the requesting user.
func (s *Storage) FetchUsers(ctx context.Context, search domain.UserSearch) (domain.UserPage, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	filter := searchFilter(search.SearchString, "username", "name")
	filter["id"] = bson.M{"$ne": search.UserId}

	skip := pageSkip(search.PageNumber, search.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: sortOrder(search.SortAsc)}}).
		SetSkip(int64(skip)).
		SetLimit(int64(search.PageSize))
	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return domain.UserPage{}, fmt.Errorf("failed to fetch users: %w", err)
	}
	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return domain.UserPage{}, fmt.Errorf("failed to decode users: %w", err)
	}
	total, err := s.users.CountDocuments(ctx, filter)
	if err != nil {
		return domain.UserPage{}, fmt.Errorf("failed to count users: %w", err)
	}
	return domain.UserPage{Users: users, IsNext: isNext(total, skip, len(users))}, nil
}

// GetActivity returns comments left by other users on userId's threads,
// newest first.
func (s *Storage) GetActivity(ctx context.Context, userId primitive.ObjectID, limit int) ([]domain.ThreadView, error) {
	replies, err := func() ([]domain.Thread, error) {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		cur, err := s.threads.Find(ctx, bson.M{"author": userId}, options.Find().SetProjection(bson.M{"children": 1}))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user threads: %w", err)
		}
		var own []domain.Thread
		if err := cur.All(ctx, &own); err != nil {
			return nil, fmt.Errorf("failed to decode user threads: %w", err)
		}
		var childIds []primitive.ObjectID
		for _, t := range own {
			childIds = append(childIds, t.Children...)
		}
		if len(childIds) == 0 {
			return nil, nil
		}

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		if limit > 0 {
			opts.SetLimit(int64(limit))
		}
		cur, err = s.threads.Find(ctx, bson.M{
			"_id":    bson.M{"$in": childIds},
			"author": bson.M{"$ne": userId},
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch replies: %w", err)
		}
		var replies []domain.Thread
		if err := cur.All(ctx, &replies); err != nil {
			return nil, fmt.Errorf("failed to decode replies: %w", err)
		}
		return replies, nil
	}()
	if err != nil {
		return nil, err
	}
	return s.populateThreads(ctx, replies, 0)
}
