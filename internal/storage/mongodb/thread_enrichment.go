package mongodb

import (
	"context"
	"fmt"

	"github.com/jisap/threads-clone/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	authorProjection    = bson.M{"_id": 1, "id": 1, "name": 1, "username": 1, "image": 1}
	communityProjection = bson.M{"_id": 1, "id": 1, "name": 1, "image": 1}
)

// populateThreads turns stored threads into views with author, community and
// children filled in. depth is how many levels of children are loaded: 0 loads
// none, 1 loads direct comments, 2 loads comments of comments.
//
// Each level costs one query, authors and communities one query each for the
// whole tree.
func (s *Storage) populateThreads(ctx context.Context, threads []domain.Thread, depth int) ([]domain.ThreadView, error) {
	if len(threads) == 0 {
		return []domain.ThreadView{}, nil
	}

	byId := make(map[primitive.ObjectID]*domain.Thread)
	for i := range threads {
		byId[threads[i].Id] = &threads[i]
	}

	level := threads
	for d := 0; d < depth; d++ {
		var childIds []primitive.ObjectID
		for _, t := range level {
			childIds = append(childIds, t.Children...)
		}
		if len(childIds) == 0 {
			break
		}
		children, err := s.findThreadsByIds(ctx, childIds)
		if err != nil {
			return nil, err
		}
		for i := range children {
			byId[children[i].Id] = &children[i]
		}
		level = children
	}

	authorIds := make([]primitive.ObjectID, 0, len(byId))
	var communityIds []primitive.ObjectID
	for _, t := range byId {
		authorIds = append(authorIds, t.Author)
		if t.Community != nil {
			communityIds = append(communityIds, *t.Community)
		}
	}
	authors, err := s.fetchAuthors(ctx, authorIds)
	if err != nil {
		return nil, err
	}
	communities, err := s.fetchCommunitySummaries(ctx, communityIds)
	if err != nil {
		return nil, err
	}

	var build func(t *domain.Thread, d int) domain.ThreadView
	build = func(t *domain.Thread, d int) domain.ThreadView {
		view := domain.ThreadView{
			Id:        t.Id,
			Text:      t.Text,
			ParentId:  t.ParentId,
			Author:    authors[t.Author],
			CreatedAt: t.CreatedAt,
			Children:  []domain.ThreadView{},
		}
		if view.Author.Id.IsZero() {
			view.Author.Id = t.Author // author deleted, keep the reference
		}
		if t.Community != nil {
			if c, ok := communities[*t.Community]; ok {
				view.Community = &c
			}
		}
		if d < depth {
			for _, childId := range t.Children {
				if child, ok := byId[childId]; ok {
					view.Children = append(view.Children, build(child, d+1))
				}
			}
		}
		return view
	}

	views := make([]domain.ThreadView, len(threads))
	for i := range threads {
		views[i] = build(&threads[i], 0)
	}
	return views, nil
}

func (s *Storage) findThreadsByIds(ctx context.Context, ids []primitive.ObjectID) ([]domain.Thread, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cur, err := s.threads.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}
	var threads []domain.Thread
	if err := cur.All(ctx, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode threads: %w", err)
	}
	return threads, nil
}

// orderByIds returns threads in the order of ids, skipping ids not found.
func orderByIds(threads []domain.Thread, ids []primitive.ObjectID) []domain.Thread {
	byId := make(map[primitive.ObjectID]domain.Thread, len(threads))
	for _, t := range threads {
		byId[t.Id] = t
	}
	ordered := make([]domain.Thread, 0, len(threads))
	for _, id := range ids {
		if t, ok := byId[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

func (s *Storage) fetchAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.AuthorSummary, error) {
	result := make(map[primitive.ObjectID]domain.AuthorSummary)
	if len(ids) == 0 {
		return result, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(authorProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authors: %w", err)
	}
	var authors []domain.AuthorSummary
	if err := cur.All(ctx, &authors); err != nil {
		return nil, fmt.Errorf("failed to decode authors: %w", err)
	}
	for _, a := range authors {
		result[a.Id] = a
	}
	return result, nil
}

func (s *Storage) fetchCommunitySummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.CommunitySummary, error) {
	result := make(map[primitive.ObjectID]domain.CommunitySummary)
	if len(ids) == 0 {
		return result, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cur, err := s.communities.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(communityProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch communities: %w", err)
	}
	var communities []domain.CommunitySummary
	if err := cur.All(ctx, &communities); err != nil {
		return nil, fmt.Errorf("failed to decode communities: %w", err)
	}
	for _, c := range communities {
		result[c.Id] = c
	}
	return result, nil
}
