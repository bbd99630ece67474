package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	"github.com/jisap/threads-clone/internal/markdown"
	mw "github.com/jisap/threads-clone/internal/middleware"
	"github.com/jisap/threads-clone/web"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockThreadService struct {
	MockCreate     func(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error)
	MockFetchPosts func(ctx context.Context, page, pageSize int) (domain.ThreadPage, error)
	MockGet        func(ctx context.Context, id string) (domain.ThreadView, error)
	MockAddComment func(ctx context.Context, threadId string, text string, author primitive.ObjectID) (primitive.ObjectID, error)
	MockDelete     func(ctx context.Context, id string, requester primitive.ObjectID) error
}

func (m *MockThreadService) Create(ctx context.Context, creationData domain.ThreadCreationData) (primitive.ObjectID, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, creationData)
	}
	return primitive.NewObjectID(), nil
}

func (m *MockThreadService) FetchPosts(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	if m.MockFetchPosts != nil {
		return m.MockFetchPosts(ctx, page, pageSize)
	}
	return domain.ThreadPage{}, nil
}

func (m *MockThreadService) Get(ctx context.Context, id string) (domain.ThreadView, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.ThreadView{}, nil
}

func (m *MockThreadService) AddComment(ctx context.Context, threadId string, text string, author primitive.ObjectID) (primitive.ObjectID, error) {
	if m.MockAddComment != nil {
		return m.MockAddComment(ctx, threadId, text, author)
	}
	return primitive.NewObjectID(), nil
}

func (m *MockThreadService) Delete(ctx context.Context, id string, requester primitive.ObjectID) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id, requester)
	}
	return nil
}

type MockUserService struct {
	MockUpdate   func(ctx context.Context, data domain.UserUpdateData) error
	MockGet      func(ctx context.Context, userId domain.ExternalId) (domain.User, error)
	MockGetPosts func(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error)
	MockSearch   func(ctx context.Context, search domain.UserSearch) (domain.UserPage, error)
	MockActivity func(ctx context.Context, userId primitive.ObjectID) ([]domain.ThreadView, error)
}

func (m *MockUserService) Update(ctx context.Context, data domain.UserUpdateData) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, data)
	}
	return nil
}

func (m *MockUserService) Get(ctx context.Context, userId domain.ExternalId) (domain.User, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, userId)
	}
	return domain.User{}, nil
}

func (m *MockUserService) GetPosts(ctx context.Context, userId domain.ExternalId) (domain.UserThreads, error) {
	if m.MockGetPosts != nil {
		return m.MockGetPosts(ctx, userId)
	}
	return domain.UserThreads{}, nil
}

func (m *MockUserService) Search(ctx context.Context, search domain.UserSearch) (domain.UserPage, error) {
	if m.MockSearch != nil {
		return m.MockSearch(ctx, search)
	}
	return domain.UserPage{}, nil
}

func (m *MockUserService) Activity(ctx context.Context, userId primitive.ObjectID) ([]domain.ThreadView, error) {
	if m.MockActivity != nil {
		return m.MockActivity(ctx, userId)
	}
	return nil, nil
}

type MockCommunityService struct {
	MockCreate       func(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error)
	MockUpdate       func(ctx context.Context, data domain.CommunityUpdateData) error
	MockDelete       func(ctx context.Context, communityId domain.ExternalId) error
	MockAddMember    func(ctx context.Context, communityId, memberId domain.ExternalId) error
	MockRemoveMember func(ctx context.Context, userId, communityId domain.ExternalId) error
	MockDetails      func(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error)
	MockPosts        func(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error)
	MockSearch       func(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error)
}

func (m *MockCommunityService) Create(ctx context.Context, creationData domain.CommunityCreationData) (primitive.ObjectID, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, creationData)
	}
	return primitive.NewObjectID(), nil
}

func (m *MockCommunityService) Update(ctx context.Context, data domain.CommunityUpdateData) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, data)
	}
	return nil
}

func (m *MockCommunityService) Delete(ctx context.Context, communityId domain.ExternalId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, communityId)
	}
	return nil
}

func (m *MockCommunityService) AddMember(ctx context.Context, communityId, memberId domain.ExternalId) error {
	if m.MockAddMember != nil {
		return m.MockAddMember(ctx, communityId, memberId)
	}
	return nil
}

func (m *MockCommunityService) RemoveMember(ctx context.Context, userId, communityId domain.ExternalId) error {
	if m.MockRemoveMember != nil {
		return m.MockRemoveMember(ctx, userId, communityId)
	}
	return nil
}

func (m *MockCommunityService) Details(ctx context.Context, communityId domain.ExternalId) (domain.CommunityDetails, error) {
	if m.MockDetails != nil {
		return m.MockDetails(ctx, communityId)
	}
	return domain.CommunityDetails{}, nil
}

func (m *MockCommunityService) Posts(ctx context.Context, id primitive.ObjectID) ([]domain.ThreadView, error) {
	if m.MockPosts != nil {
		return m.MockPosts(ctx, id)
	}
	return nil, nil
}

func (m *MockCommunityService) Search(ctx context.Context, search domain.CommunitySearch) (domain.CommunityPage, error) {
	if m.MockSearch != nil {
		return m.MockSearch(ctx, search)
	}
	return domain.CommunityPage{}, nil
}

type MockUploader struct {
	MockUpload func(ctx context.Context, file *domain.PendingFile) (string, error)
}

func (m *MockUploader) Upload(ctx context.Context, file *domain.PendingFile) (string, error) {
	if m.MockUpload != nil {
		return m.MockUpload(ctx, file)
	}
	return "/media/ab/abcdef.png", nil
}

type MockPinger struct {
	MockPing func(ctx context.Context) error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	if m.MockPing != nil {
		return m.MockPing(ctx)
	}
	return nil
}

type testDeps struct {
	threads     *MockThreadService
	users       *MockUserService
	communities *MockCommunityService
	uploader    *MockUploader
	pinger      *MockPinger
}

func testPublicConfig() config.Public {
	return config.Public{
		Pagination: config.Pagination{ThreadsPerPage: 30, UsersPerPage: 25, CommunitiesPerPage: 25, ActivityLimit: 50},
		Auth:       config.Auth{SignInURL: "https://accounts.example.com/sign-in"},
		Upload: config.Upload{
			Backend:          "fs",
			MaxFileSize:      1 << 20,
			AllowedMimeTypes: []string{"image/png", "image/jpeg"},
		},
		Validation: config.Validation{
			ThreadTextMinLen: 3,
			ThreadTextMaxLen: 10_000,
			NameMinLen:       3,
			NameMaxLen:       30,
			BioMaxLen:        1000,
		},
	}
}

func newTestHandler(t *testing.T) (*Handler, *testDeps) {
	t.Helper()
	templates, err := LoadTemplates(web.Templates, web.TemplatesDir)
	require.NoError(t, err)

	deps := &testDeps{
		threads:     &MockThreadService{},
		users:       &MockUserService{},
		communities: &MockCommunityService{},
		uploader:    &MockUploader{},
		pinger:      &MockPinger{},
	}
	h := New(templates, testPublicConfig(), markdown.New(), deps.threads, deps.users, deps.communities, deps.uploader, nil, deps.pinger)
	return h, deps
}

func testUser() *domain.User {
	return &domain.User{
		Id:         primitive.NewObjectID(),
		ExternalId: "user_2abc",
		Username:   "jdoe",
		Name:       "Jane Doe",
		Bio:        "hello there",
		Image:      "https://img.example.com/jane.png",
		Onboarded:  true,
	}
}

func author(u *domain.User) domain.AuthorSummary {
	return domain.AuthorSummary{Id: u.Id, ExternalId: u.ExternalId, Name: u.Name, Username: u.Username, Image: u.Image}
}

func testThread(a domain.AuthorSummary, text string) domain.ThreadView {
	return domain.ThreadView{
		Id:        primitive.NewObjectID(),
		Text:      text,
		Author:    a,
		CreatedAt: time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC),
	}
}

// signedIn attaches the identity and the loaded profile of u to req.
func signedIn(req *http.Request, u *domain.User) *http.Request {
	identity := &domain.Identity{Id: u.ExternalId, Name: u.Name, Username: u.Username}
	req = req.WithContext(mw.WithIdentity(req.Context(), identity))
	return withUser(req, u)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}
