package service

import (
	"context"
	"strings"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	Update(ctx context.Context, data domain.UserUpdateData) error
	Get(ctx context.Context, userId domain.ExternalId) (domain.User, error)
	GetPosts(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error)
	Search(ctx context.Context, search domain.UserSearch) (domain.UserPage, error)
	Activity(ctx context.Context, userId primitive.ObjectID) ([]domain.ThreadView, error)
}

type User struct {
	storage   UserStorage
	validator UserValidator
	cfg       config.Pagination
}

type UserStorage interface {
	UpdateUser(ctx context.Context, data domain.UserUpdateData) error
	FetchUser(ctx context.Context, userId domain.ExternalId) (domain.User, error)
	FetchUserPosts(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error)
	FetchUsers(ctx context.Context, search domain.UserSearch) (domain.UserPage, error)
	GetActivity(ctx context.Context, userId primitive.ObjectID, limit int) ([]domain.ThreadView, error)
}

type UserValidator interface {
	Name(name string) error
	Username(username string) error
	Bio(bio string) error
	Image(image string) error
}

func NewUser(storage UserStorage, validator UserValidator, cfg config.Pagination) UserService {
	return &User{storage, validator, cfg}
}

// Update creates or updates the profile and marks it onboarded.
func (u *User) Update(ctx context.Context, data domain.UserUpdateData) error {
	data.Username = strings.TrimSpace(data.Username)
	data.Name = strings.TrimSpace(data.Name)
	data.Bio = strings.TrimSpace(data.Bio)

	if err := u.validator.Image(data.Image); err != nil {
		return err
	}
	if err := u.validator.Name(data.Name); err != nil {
		return err
	}
	if err := u.validator.Username(data.Username); err != nil {
		return err
	}
	if err := u.validator.Bio(data.Bio); err != nil {
		return err
	}
	return fail("Failed to create/update user", u.storage.UpdateUser(ctx, data))
}

func (u *User) Get(ctx context.Context, userId domain.ExternalId) (domain.User, error) {
	user, err := u.storage.FetchUser(ctx, userId)
	return user, fail("Failed to fetch user", err)
}

func (u *User) GetPosts(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error) {
	posts, err := u.storage.FetchUserPosts(ctx, userId)
	return posts, fail("Error fetching user threads", err)
}

func (u *User) Search(ctx context.Context, search domain.UserSearch) (domain.UserPage, error) {
	search.PageNumber = clampPage(search.PageNumber)
	search.PageSize = pageSizeOrDefault(search.PageSize, u.cfg.UsersPerPage)
	if pastLastPage(search.PageNumber, search.PageSize) {
		return domain.UserPage{}, nil
	}
	search.SearchString = strings.TrimSpace(search.SearchString)

	page, err := u.storage.FetchUsers(ctx, search)
	return page, fail("Error fetching users", err)
}

// Activity lists replies other users left on userId's threads.
func (u *User) Activity(ctx context.Context, userId primitive.ObjectID) ([]domain.ThreadView, error) {
	replies, err := u.storage.GetActivity(ctx, userId, u.cfg.ActivityLimit)
	return replies, fail("Error fetching activity", err)
}
