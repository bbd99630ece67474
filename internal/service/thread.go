package service

import (
	"context"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ThreadService interface {
	Create(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error)
	FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error)
	Get(ctx context.Context, id string) (domain.ThreadView, error)
	AddComment(ctx context.Context, threadId string, text string, author primitive.ObjectID) (primitive.ObjectID, error)
	Delete(ctx context.Context, id string, requester primitive.ObjectID) error
}

type Thread struct {
	storage   ThreadStorage
	validator ThreadValidator
	cfg       config.Pagination
}

type ThreadStorage interface {
	CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error)
	FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error)
	GetThread(ctx context.Context, id primitive.ObjectID) (domain.Thread, error)
	FetchThreadById(ctx context.Context, id primitive.ObjectID) (domain.ThreadView, error)
	AddCommentToThread(ctx context.Context, creationData domain.CommentCreationData) (primitive.ObjectID, error)
	DeleteThread(ctx context.Context, id primitive.ObjectID) error
}

type ThreadValidator interface {
	ThreadText(text string) error
	CommentText(text string) error
}

func NewThread(storage ThreadStorage, validator ThreadValidator, cfg config.Pagination) ThreadService {
	return &Thread{storage, validator, cfg}
}

func (b *Thread) Create(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error) {
	if err := b.validator.ThreadText(creationData.Text); err != nil {
		return primitive.NilObjectID, err
	}
	id, err := b.storage.CreateThread(ctx, creationData)
	return id, fail("Error creating thread", err)
}

func (b *Thread) FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	page = clampPage(page)
	pageSize = pageSizeOrDefault(pageSize, b.cfg.ThreadsPerPage)
	if pastLastPage(page, pageSize) {
		return domain.ThreadPage{}, nil
	}

	posts, err := b.storage.FetchPosts(ctx, page, pageSize)
	return posts, fail("Error fetching posts", err)
}

func (b *Thread) Get(ctx context.Context, id string) (domain.ThreadView, error) {
	oid, err := ParseId(id)
	if err != nil {
		return domain.ThreadView{}, err
	}
	thread, err := b.storage.FetchThreadById(ctx, oid)
	return thread, fail("Error fetching Thread", err)
}

func (b *Thread) AddComment(ctx context.Context, threadId string, text string, author primitive.ObjectID) (primitive.ObjectID, error) {
	oid, err := ParseId(threadId)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if err := b.validator.CommentText(text); err != nil {
		return primitive.NilObjectID, err
	}
	id, err := b.storage.AddCommentToThread(ctx, domain.CommentCreationData{ThreadId: oid, Text: text, Author: author})
	return id, fail("Error adding comment to thread", err)
}

// Delete removes the thread with its comments. Only the author may delete it.
func (b *Thread) Delete(ctx context.Context, id string, requester primitive.ObjectID) error {
	oid, err := ParseId(id)
	if err != nil {
		return err
	}
	thread, err := b.storage.GetThread(ctx, oid)
	if err != nil {
		return fail("Failed to delete thread", err)
	}
	if thread.Author != requester {
		return internal_errors.Forbidden("Only the author can delete this thread")
	}
	return fail("Failed to delete thread", b.storage.DeleteThread(ctx, oid))
}
