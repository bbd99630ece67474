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

func (s *Storage) findCommunity(ctx context.Context, communityId domain.ExternalId) (domain.Community, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var community domain.Community
	err := s.communities.FindOne(ctx, bson.M{"id": communityId}).Decode(&community)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Community{}, internal_errors.NotFound("Community not found")
	}
	if err != nil {
		return domain.Community{}, fmt.Errorf("failed to fetch community: %w", err)
	}
	return community, nil
}

// CreateCommunity stores a community created by the user with the given
// identity provider id and links it to that user.
func (s *Storage) CreateCommunity(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error) {
	creator, err := s.FetchUser(ctx, creationData.CreatedById)
	if err != nil {
		return primitive.NilObjectID, err
	}

	community := domain.Community{
		Id:         primitive.NewObjectID(),
		ExternalId: creationData.ExternalId,
		Username:   creationData.Username,
		Name:       creationData.Name,
		Image:      creationData.Image,
		Bio:        creationData.Bio,
		CreatedBy:  creator.Id,
		Threads:    []primitive.ObjectID{},
		Members:    []primitive.ObjectID{},
		CreatedAt:  time.Now().UTC(),
	}

	err = s.withTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		if _, err := s.communities.InsertOne(ctx, community); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return internal_errors.Conflict("Community already exists")
			}
			return fmt.Errorf("failed to insert community: %w", err)
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": creator.Id},
			bson.M{"$addToSet": bson.M{"communities": community.Id}},
		); err != nil {
			return fmt.Errorf("failed to link community to creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return community.Id, nil
}

// FetchCommunityDetails returns the community with its creator and members.
func (s *Storage) FetchCommunityDetails(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error) {
	community, err := s.findCommunity(ctx, communityId)
	if err != nil {
		return domain.CommunityDetails{}, err
	}

	ids := append([]primitive.ObjectID{community.CreatedBy}, community.Members...)
	authors, err := s.fetchAuthors(ctx, ids)
	if err != nil {
		return domain.CommunityDetails{}, err
	}

	details := domain.CommunityDetails{Community: community, Members: []domain.AuthorSummary{}}
	if creator, ok := authors[community.CreatedBy]; ok {
		details.Creator = &creator
	}
	for _, id := range community.Members {
		if member, ok := authors[id]; ok {
			details.Members = append(details.Members, member)
		}
	}
	return details, nil
}

// FetchCommunityPosts returns the community's threads in the order they were
// posted, each with comments and their authors.
func (s *Storage) FetchCommunityPosts(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error) {
	var community domain.Community
	err := func() error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()
		return s.communities.FindOne(ctx, bson.M{"_id": id}).Decode(&community)
	}()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, internal_errors.NotFound("Community not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community: %w", err)
	}
	if len(community.Threads) == 0 {
		return []domain.ThreadView{}, nil
	}

	threads, err := s.findThreadsByIds(ctx, community.Threads)
	if err != nil {
		return nil, err
	}
	return s.populateThreads(ctx, orderByIds(threads, community.Threads), 1)
}

// FetchCommunities searches communities by username or name.
func (s *Storage) FetchCommunities(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	filter := searchFilter(search.SearchString, "username", "name")
	skip := pageSkip(search.PageNumber, search.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: sortOrder(search.SortAsc)}}).
		SetSkip(int64(skip)).
		SetLimit(int64(search.PageSize))
	cur, err := s.communities.Find(ctx, filter, opts)
	if err != nil {
		return domain.CommunityPage{}, fmt.Errorf("failed to fetch communities: %w", err)
	}
	communities := []domain.Community{}
	if err := cur.All(ctx, &communities); err != nil {
		return domain.CommunityPage{}, fmt.Errorf("failed to decode communities: %w", err)
	}
	total, err := s.communities.CountDocuments(ctx, filter)
	if err != nil {
		return domain.CommunityPage{}, fmt.Errorf("failed to count communities: %w", err)
	}
	return domain.CommunityPage{Communities: communities, IsNext: isNext(total, skip, len(communities))}, nil
}

// AddMemberToCommunity links the user and the community both ways. Adding an
// existing member is a no-op.
func (s *Storage) AddMemberToCommunity(ctx context.Context, communityId, memberId domain.ExternalId) error {
	community, err := s.findCommunity(ctx, communityId)
	if err != nil {
		return err
	}
	user, err := s.FetchUser(ctx, memberId)
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		if _, err := s.communities.UpdateOne(ctx,
			bson.M{"_id": community.Id},
			bson.M{"$addToSet": bson.M{"members": user.Id}},
		); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": user.Id},
			bson.M{"$addToSet": bson.M{"communities": community.Id}},
		); err != nil {
			return fmt.Errorf("failed to link community to member: %w", err)
		}
		return nil
	})
}

// RemoveUserFromCommunity unlinks the user and the community both ways.
func (s *Storage) RemoveUserFromCommunity(ctx context.Context, userId, communityId domain.ExternalId) error {
	user, err := s.FetchUser(ctx, userId)
	if err != nil {
		return err
	}
	community, err := s.findCommunity(ctx, communityId)
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()

		if _, err := s.communities.UpdateOne(ctx,
			bson.M{"_id": community.Id},
			bson.M{"$pull": bson.M{"members": user.Id}},
		); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": user.Id},
			bson.M{"$pull": bson.M{"communities": community.Id}},
		); err != nil {
			return fmt.Errorf("failed to unlink community from member: %w", err)
		}
		return nil
	})
}

func (s *Storage) UpdateCommunityInfo(ctx context.Context, data domain.CommunityUpdateData) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.communities.UpdateOne(ctx,
		bson.M{"id": data.ExternalId},
		bson.M{"$set": bson.M{"name": data.Name, "username": data.Username, "image": data.Image}},
	)
	if err != nil {
		return fmt.Errorf("failed to update community: %w", err)
	}
	if res.MatchedCount == 0 {
		return internal_errors.NotFound("Community not found")
	}
	return nil
}

// DeleteCommunity removes the community, every thread posted in it with all
// their comments, and its id from members' community lists.
func (s *Storage) DeleteCommunity(ctx context.Context, communityId domain.ExternalId) error {
	community, err := s.findCommunity(ctx, communityId)
	if err != nil {
		return err
	}

	roots, err := func() ([]domain.Thread, error) {
		ctx, cancel := s.opCtx(ctx)
		defer cancel()
		cur, err := s.threads.Find(ctx, bson.M{"community": community.Id},
			options.Find().SetProjection(bson.M{"_id": 1, "author": 1, "community": 1}))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch community threads: %w", err)
		}
		var roots []domain.Thread
		if err := cur.All(ctx, &roots); err != nil {
			return nil, fmt.Errorf("failed to decode community threads: %w", err)
		}
		return roots, nil
	}()
	if err != nil {
		return err
	}
	tree, err := s.collectThreadTree(ctx, roots)
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(ctx context.Context) error {
		if err := s.deleteThreadTree(ctx, tree); err != nil {
			return err
		}
		ctx, cancel := s.opCtx(ctx)
		defer cancel()
		if _, err := s.communities.DeleteOne(ctx, bson.M{"_id": community.Id}); err != nil {
			return fmt.Errorf("failed to delete community: %w", err)
		}
		if _, err := s.users.UpdateMany(ctx,
			bson.M{"communities": community.Id},
			bson.M{"$pull": bson.M{"communities": community.Id}},
		); err != nil {
			return fmt.Errorf("failed to unlink community from users: %w", err)
		}
		return nil
	})
}
