package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockThreadStorage mocks the ThreadStorage interface.
type MockThreadStorage struct {
	createThreadFunc       func(creationData domain.ThreadCreationData) (primitive.ObjectID, error)
	fetchPostsFunc         func(page, pageSize int) (domain.ThreadPage, error)
	getThreadFunc          func(id primitive.ObjectID) (domain.Thread, error)
	fetchThreadByIdFunc    func(id primitive.ObjectID) (domain.ThreadView, error)
	addCommentToThreadFunc func(creationData domain.CommentCreationData) (primitive.ObjectID, error)
	deleteThreadFunc       func(id primitive.ObjectID) error
}

func (m *MockThreadStorage) CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error) {
	if m.createThreadFunc != nil {
		return m.createThreadFunc(creationData)
	}
	return primitive.NewObjectID(), nil
}

func (m *MockThreadStorage) FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	if m.fetchPostsFunc != nil {
		return m.fetchPostsFunc(page, pageSize)
	}
	return domain.ThreadPage{}, nil
}

func (m *MockThreadStorage) GetThread(ctx context.Context, id primitive.ObjectID) (domain.Thread, error) {
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) FetchThreadById(ctx context.Context, id primitive.ObjectID) (domain.ThreadView, error) {
	if m.fetchThreadByIdFunc != nil {
		return m.fetchThreadByIdFunc(id)
	}
	return domain.ThreadView{Id: id}, nil
}

func (m *MockThreadStorage) AddCommentToThread(ctx context.Context, creationData domain.CommentCreationData) (primitive.ObjectID, error) {
	if m.addCommentToThreadFunc != nil {
		return m.addCommentToThreadFunc(creationData)
	}
	return primitive.NewObjectID(), nil
}

func (m *MockThreadStorage) DeleteThread(ctx context.Context, id primitive.ObjectID) error {
	if m.deleteThreadFunc != nil {
		return m.deleteThreadFunc(id)
	}
	return nil
}

var testPagination = config.Pagination{ThreadsPerPage: 30, UsersPerPage: 25, CommunitiesPerPage: 25, ActivityLimit: 50}

func testValidator() *Validator {
	return NewValidator(config.Validation{ThreadTextMinLen: 3, ThreadTextMaxLen: 100, NameMinLen: 3, NameMaxLen: 30, BioMaxLen: 1000})
}

func TestThreadCreate(t *testing.T) {
	author := primitive.NewObjectID()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		expected := primitive.NewObjectID()
		var got domain.ThreadCreationData
		storage := &MockThreadStorage{createThreadFunc: func(creationData domain.ThreadCreationData) (primitive.ObjectID, error) {
			got = creationData
			return expected, nil
		}}
		s := NewThread(storage, testValidator(), testPagination)

		id, err := s.Create(ctx, domain.ThreadCreationData{Text: "hello", Author: author})
		require.NoError(t, err)
		assert.Equal(t, expected, id)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, author, got.Author)
	})

	t.Run("TextTooShort", func(t *testing.T) {
		called := false
		storage := &MockThreadStorage{createThreadFunc: func(domain.ThreadCreationData) (primitive.ObjectID, error) {
			called = true
			return primitive.NilObjectID, nil
		}}
		s := NewThread(storage, testValidator(), testPagination)

		_, err := s.Create(ctx, domain.ThreadCreationData{Text: " a ", Author: author})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
		assert.False(t, called, "storage must not be called for invalid input")
	})

	t.Run("StorageError", func(t *testing.T) {
		storage := &MockThreadStorage{createThreadFunc: func(domain.ThreadCreationData) (primitive.ObjectID, error) {
			return primitive.NilObjectID, errors.New("connection reset")
		}}
		s := NewThread(storage, testValidator(), testPagination)

		_, err := s.Create(ctx, domain.ThreadCreationData{Text: "hello", Author: author})
		require.Error(t, err)
		assert.Equal(t, "Error creating thread: connection reset", err.Error())
		var actionErr *internal_errors.ActionError
		assert.ErrorAs(t, err, &actionErr)
	})

	t.Run("AuthorNotFoundPassesThrough", func(t *testing.T) {
		storage := &MockThreadStorage{createThreadFunc: func(domain.ThreadCreationData) (primitive.ObjectID, error) {
			return primitive.NilObjectID, internal_errors.NotFound("User not found")
		}}
		s := NewThread(storage, testValidator(), testPagination)

		_, err := s.Create(ctx, domain.ThreadCreationData{Text: "hello", Author: author})
		require.Error(t, err)
		assert.Equal(t, "User not found", err.Error())
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestThreadFetchPosts(t *testing.T) {
	testCases := []struct {
		name             string
		page, pageSize   int
		expectedPage     int
		expectedPageSize int
	}{
		{name: "Defaults", page: 0, pageSize: 0, expectedPage: 1, expectedPageSize: 30},
		{name: "Negative page", page: -3, pageSize: 10, expectedPage: 1, expectedPageSize: 10},
		{name: "Explicit", page: 4, pageSize: 5, expectedPage: 4, expectedPageSize: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPage, gotSize int
			storage := &MockThreadStorage{fetchPostsFunc: func(page, pageSize int) (domain.ThreadPage, error) {
				gotPage, gotSize = page, pageSize
				return domain.ThreadPage{IsNext: true}, nil
			}}
			s := NewThread(storage, testValidator(), testPagination)

			result, err := s.FetchPosts(context.Background(), tc.page, tc.pageSize)
			require.NoError(t, err)
			assert.True(t, result.IsNext)
			assert.Equal(t, tc.expectedPage, gotPage)
			assert.Equal(t, tc.expectedPageSize, gotSize)
		})
	}

	t.Run("Offset overflow", func(t *testing.T) {
		storage := &MockThreadStorage{fetchPostsFunc: func(page, pageSize int) (domain.ThreadPage, error) {
			t.Fatal("storage must not be queried")
			return domain.ThreadPage{}, nil
		}}
		s := NewThread(storage, testValidator(), testPagination)

		for _, page := range []int{math.MaxInt, math.MaxInt/30 + 2} {
			result, err := s.FetchPosts(context.Background(), page, 30)
			require.NoError(t, err)
			assert.Empty(t, result.Posts)
			assert.False(t, result.IsNext)
		}
	})
}

func TestThreadGet(t *testing.T) {
	ctx := context.Background()
	s := NewThread(&MockThreadStorage{}, testValidator(), testPagination)

	t.Run("MalformedId", func(t *testing.T) {
		_, err := s.Get(ctx, "not-an-id")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
	})

	t.Run("Success", func(t *testing.T) {
		id := primitive.NewObjectID()
		view, err := s.Get(ctx, id.Hex())
		require.NoError(t, err)
		assert.Equal(t, id, view.Id)
	})

	t.Run("NotFound", func(t *testing.T) {
		storage := &MockThreadStorage{fetchThreadByIdFunc: func(primitive.ObjectID) (domain.ThreadView, error) {
			return domain.ThreadView{}, internal_errors.NotFound("Thread not found")
		}}
		s := NewThread(storage, testValidator(), testPagination)
		_, err := s.Get(ctx, primitive.NewObjectID().Hex())
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestThreadAddComment(t *testing.T) {
	ctx := context.Background()
	parent := primitive.NewObjectID()
	author := primitive.NewObjectID()

	var got domain.CommentCreationData
	storage := &MockThreadStorage{addCommentToThreadFunc: func(creationData domain.CommentCreationData) (primitive.ObjectID, error) {
		got = creationData
		return primitive.NewObjectID(), nil
	}}
	s := NewThread(storage, testValidator(), testPagination)

	_, err := s.AddComment(ctx, parent.Hex(), "ok", author)
	require.NoError(t, err)
	assert.Equal(t, parent, got.ThreadId)
	assert.Equal(t, author, got.Author)

	_, err = s.AddComment(ctx, parent.Hex(), "   ", author)
	assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))

	_, err = s.AddComment(ctx, "zzz", "text", author)
	assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
}

func TestThreadDelete(t *testing.T) {
	ctx := context.Background()
	author := primitive.NewObjectID()
	threadId := primitive.NewObjectID()

	newService := func(deleted *bool) ThreadService {
		storage := &MockThreadStorage{
			getThreadFunc: func(id primitive.ObjectID) (domain.Thread, error) {
				if id != threadId {
					return domain.Thread{}, internal_errors.NotFound("Thread not found")
				}
				return domain.Thread{Id: id, Author: author}, nil
			},
			deleteThreadFunc: func(id primitive.ObjectID) error {
				*deleted = true
				return nil
			},
		}
		return NewThread(storage, testValidator(), testPagination)
	}

	t.Run("Author", func(t *testing.T) {
		deleted := false
		require.NoError(t, newService(&deleted).Delete(ctx, threadId.Hex(), author))
		assert.True(t, deleted)
	})

	t.Run("NotAuthor", func(t *testing.T) {
		deleted := false
		err := newService(&deleted).Delete(ctx, threadId.Hex(), primitive.NewObjectID())
		assert.Equal(t, http.StatusForbidden, internal_errors.StatusCode(err))
		assert.False(t, deleted)
	})

	t.Run("NotFound", func(t *testing.T) {
		deleted := false
		err := newService(&deleted).Delete(ctx, primitive.NewObjectID().Hex(), author)
		assert.True(t, internal_errors.IsNotFound(err))
		assert.False(t, deleted)
	})
}
