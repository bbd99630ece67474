package service

import (
	"context"
	"strings"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommunityService interface {
	Create(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error)
	Update(ctx context.Context, data domain.CommunityUpdateData) error
	Delete(ctx context.Context, communityId domain.ExternalId) error
	AddMember(ctx context.Context, communityId, memberId domain.ExternalId) error
	RemoveMember(ctx context.Context, userId, communityId domain.ExternalId) error
	Details(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error)
	Posts(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error)
	Search(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error)
}

type Community struct {
	storage CommunityStorage
	cfg     config.Pagination
}

type CommunityStorage interface {
	CreateCommunity(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error)
	UpdateCommunityInfo(ctx context.Context, data domain.CommunityUpdateData) error
	DeleteCommunity(ctx context.Context, communityId domain.ExternalId) error
	AddMemberToCommunity(ctx context.Context, communityId, memberId domain.ExternalId) error
	RemoveUserFromCommunity(ctx context.Context, userId, communityId domain.ExternalId) error
	FetchCommunityDetails(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error)
	FetchCommunityPosts(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error)
	FetchCommunities(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error)
}

func NewCommunity(storage CommunityStorage, cfg config.Pagination) CommunityService {
	return &Community{storage, cfg}
}

func (c *Community) Create(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error) {
	if creationData.ExternalId == "" {
		return primitive.NilObjectID, internal_errors.BadRequest("Community id is required")
	}
	if creationData.CreatedById == "" {
		return primitive.NilObjectID, internal_errors.BadRequest("Community creator is required")
	}
	id, err := c.storage.CreateCommunity(ctx, creationData)
	return id, fail("Error creating community", err)
}

func (c *Community) Update(ctx context.Context, data domain.CommunityUpdateData) error {
	if data.ExternalId == "" {
		return internal_errors.BadRequest("Community id is required")
	}
	return fail("Error updating community information", c.storage.UpdateCommunityInfo(ctx, data))
}

func (c *Community) Delete(ctx context.Context, communityId domain.ExternalId) error {
	return fail("Error deleting community", c.storage.DeleteCommunity(ctx, communityId))
}

func (c *Community) AddMember(ctx context.Context, communityId, memberId domain.ExternalId) error {
	return fail("Error adding member to community", c.storage.AddMemberToCommunity(ctx, communityId, memberId))
}

func (c *Community) RemoveMember(ctx context.Context, userId, communityId domain.ExternalId) error {
	return fail("Error removing user from community", c.storage.RemoveUserFromCommunity(ctx, userId, communityId))
}

func (c *Community) Details(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error) {
	details, err := c.storage.FetchCommunityDetails(ctx, communityId)
	return details, fail("Error fetching community details", err)
}

func (c *Community) Posts(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error) {
	posts, err := c.storage.FetchCommunityPosts(ctx, id)
	return posts, fail("Error fetching community posts", err)
}

func (c *Community) Search(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error) {
	search.PageNumber = clampPage(search.PageNumber)
	search.PageSize = pageSizeOrDefault(search.PageSize, c.cfg.CommunitiesPerPage)
	if pastLastPage(search.PageNumber, search.PageSize) {
		return domain.CommunityPage{}, nil
	}
	search.SearchString = strings.TrimSpace(search.SearchString)

	page, err := c.storage.FetchCommunities(ctx, search)
	return page, fail("Error fetching communities", err)
}
