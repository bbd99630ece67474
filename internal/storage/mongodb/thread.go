package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateThread stores a new top-level thread and links it to its author and,
// when the community resolves, to the community.
func (s *Storage) CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error) {
	if err := s.checkUserExists(ctx, creationData.Author); err != nil {
		return primitive.NilObjectID, err
	}

	var communityId *primitive.ObjectID
	if creationData.CommunityId != nil {
		community, err := s.findCommunity(ctx, *creationData.CommunityId)
		if err != nil && !internal_errors.IsNotFound(err) {
			return primitive.NilObjectID, err
		}
		if err == nil {
			communityId = &community.Id
		}
	}

	thread := domain.Thread{
		Id:        primitive.NewObjectID(),
		Text:      creationData.Text,
		Author:    creationData.Author,
		Community: communityId,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}

	err := s.withTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		if _, err := s.threads.InsertOne(ctx, thread); err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": thread.Author},
			bson.M{"$push": bson.M{"threads": thread.Id}},
		); err != nil {
			return fmt.Errorf("failed to link thread to author: %w", err)
		}
		if communityId != nil {
			if _, err := s.communities.UpdateOne(ctx,
				bson.M{"_id": *communityId},
				bson.M{"$push": bson.M{"threads": thread.Id}},
			); err != nil {
				return fmt.Errorf("failed to link thread to community: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return thread.Id, nil
}

// FetchPosts returns a page of top-level threads, newest first.
func (s *Storage) FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	skip := pageSkip(page, pageSize)
	filter := bson.M{"parentId": nil} // matches null and missing

	threads, total, err := func() ([]domain.Thread, int64, error) {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64(skip)).
			SetLimit(int64(pageSize))
		cur, err := s.threads.Find(ctx, filter, opts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
		}
		var threads []domain.Thread
		if err := cur.All(ctx, &threads); err != nil {
			return nil, 0, fmt.Errorf("failed to decode posts: %w", err)
		}
		total, err := s.threads.CountDocuments(ctx, filter)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count posts: %w", err)
		}
		return threads, total, nil
	}()
	if err != nil {
		return domain.ThreadPage{}, err
	}

	posts, err := s.populateThreads(ctx, threads, 1)
	if err != nil {
		return domain.ThreadPage{}, err
	}
	return domain.ThreadPage{Posts: posts, IsNext: isNext(total, skip, len(posts))}, nil
}

// GetThread returns the stored thread without populating references.
func (s *Storage) GetThread(ctx context.Context, id primitive.ObjectID) (domain.Thread, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var thread domain.Thread
	err := s.threads.FindOne(ctx, bson.M{"_id": id}).Decode(&thread)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Thread{}, internal_errors.NotFound("Thread not found")
	}
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return thread, nil
}

// FetchThreadById returns the thread with two levels of comments.
func (s *Storage) FetchThreadById(ctx context.Context, id primitive.ObjectID) (domain.ThreadView, error) {
	thread, err := s.GetThread(ctx, id)
	if err != nil {
		return domain.ThreadView{}, err
	}
	views, err := s.populateThreads(ctx, []domain.Thread{thread}, 2)
	if err != nil {
		return domain.ThreadView{}, err
	}
	return views[0], nil
}

// AddCommentToThread stores a comment and appends it to the parent's children.
func (s *Storage) AddCommentToThread(ctx context.Context, creationData domain.CommentCreationData) (primitive.ObjectID, error) {
	parent, err := s.GetThread(ctx, creationData.ThreadId)
	if err != nil {
		return primitive.NilObjectID, err
	}

	comment := domain.Thread{
		Id:        primitive.NewObjectID(),
		Text:      creationData.Text,
		Author:    creationData.Author,
		ParentId:  &parent.Id,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}

	err = s.withTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		if _, err := s.threads.InsertOne(ctx, comment); err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		if _, err := s.threads.UpdateOne(ctx,
			bson.M{"_id": parent.Id},
			bson.M{"$push": bson.M{"children": comment.Id}},
		); err != nil {
			return fmt.Errorf("failed to link comment to thread: %w", err)
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return comment.Id, nil
}

// DeleteThread removes the thread with all of its descendants and every
// reference to them.
func (s *Storage) DeleteThread(ctx context.Context, id primitive.ObjectID) error {
	root, err := s.GetThread(ctx, id)
	if err != nil {
		return err
	}

	tree, err := s.collectThreadTree(ctx, []domain.Thread{root})
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(ctx context.Context) error {
		if err := s.deleteThreadTree(ctx, tree); err != nil {
			return err
		}
		if root.ParentId == nil {
			return nil
		}
		ctx, cancel := s.opCtx(ctx)
		defer cancel()
		if _, err := s.threads.UpdateOne(ctx,
			bson.M{"_id": *root.ParentId},
			bson.M{"$pull": bson.M{"children": root.Id}},
		); err != nil {
			return fmt.Errorf("failed to unlink thread from parent: %w", err)
		}
		return nil
	})
}

// threadTree is a set of threads scheduled for deletion with the distinct
// users and communities referencing them.
type threadTree struct {
	ids         []primitive.ObjectID
	authors     []primitive.ObjectID
	communities []primitive.ObjectID
}

// collectThreadTree walks down from roots breadth-first, one query per level.
func (s *Storage) collectThreadTree(ctx context.Context, roots []domain.Thread) (threadTree, error) {
	var tree threadTree
	seenAuthors := make(map[primitive.ObjectID]struct{})
	seenCommunities := make(map[primitive.ObjectID]struct{})
	seen := make(map[primitive.ObjectID]struct{})

	add := func(t domain.Thread) bool {
		if _, ok := seen[t.Id]; ok {
			return false
		}
		seen[t.Id] = struct{}{}
		tree.ids = append(tree.ids, t.Id)
		if _, ok := seenAuthors[t.Author]; !ok {
			seenAuthors[t.Author] = struct{}{}
			tree.authors = append(tree.authors, t.Author)
		}
		if t.Community != nil {
			if _, ok := seenCommunities[*t.Community]; !ok {
				seenCommunities[*t.Community] = struct{}{}
				tree.communities = append(tree.communities, *t.Community)
			}
		}
		return true
	}

	var frontier []primitive.ObjectID
	for _, r := range roots {
		if add(r) {
			frontier = append(frontier, r.Id)
		}
	}

	projection := options.Find().SetProjection(bson.M{"_id": 1, "author": 1, "community": 1})
	for len(frontier) > 0 {
		children, err := func() ([]domain.Thread, error) {
			ctx, cancel := s.opCtx(ctx)
			defer cancel()
			cur, err := s.threads.Find(ctx, bson.M{"parentId": bson.M{"$in": frontier}}, projection)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch child threads: %w", err)
			}
			var children []domain.Thread
			if err := cur.All(ctx, &children); err != nil {
				return nil, fmt.Errorf("failed to decode child threads: %w", err)
			}
			return children, nil
		}()
		if err != nil {
			return threadTree{}, err
		}

		frontier = frontier[:0]
		for _, c := range children {
			if add(c) {
				frontier = append(frontier, c.Id)
			}
		}
	}
	return tree, nil
}

func (s *Storage) deleteThreadTree(ctx context.Context, tree threadTree) error {
	if len(tree.ids) == 0 {
		return nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.threads.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tree.ids}}); err != nil {
		return fmt.Errorf("failed to delete threads: %w", err)
	}
	pull := bson.M{"$pull": bson.M{"threads": bson.M{"$in": tree.ids}}}
	if len(tree.authors) > 0 {
		if _, err := s.users.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": tree.authors}}, pull); err != nil {
			return fmt.Errorf("failed to unlink threads from users: %w", err)
		}
	}
	if len(tree.communities) > 0 {
		if _, err := s.communities.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": tree.communities}}, pull); err != nil {
			return fmt.Errorf("failed to unlink threads from communities: %w", err)
		}
	}
	return nil
}
