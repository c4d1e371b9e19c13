package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/middleware"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/moderation"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (m *mockBlogRepo) ListBlogs(ctx context.Context, filter repositories.BlogFilter) ([]models.Blog, error) {
	args := m.Called(ctx, filter)
	blogs, _ := args.Get(0).([]models.Blog)
	return blogs, args.Error(1)
}

func (m *mockBlogRepo) CountBlogs(ctx context.Context, filter repositories.BlogFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBlogRepo) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockBlogRepo) TrendingTags(ctx context.Context, limit int) ([]repositories.TagCount, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]repositories.TagCount)
	return out, args.Error(1)
}

func (m *mockBlogRepo) IncrementLikesCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBlogRepo) DecrementLikesCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBlogRepo) IncrementCommentsCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCommentRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *mockCommentRepo) GetLastCommentByAuthor(ctx context.Context, authorID uint) (*models.Comment, error) {
	args := m.Called(ctx, authorID)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

type mockUserRepo struct {
	repositories.UserRepository
	mock.Mock
}

func (m *mockUserRepo) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetUsersByIDs(ids []uint) (map[uint]models.User, error) {
	args := m.Called(ids)
	out, _ := args.Get(0).(map[uint]models.User)
	return out, args.Error(1)
}

type mockLikeRepo struct {
	repositories.LikeRepository
	mock.Mock
}

func (m *mockLikeRepo) Toggle(blogID string, userID uint) (repositories.ToggleResult, error) {
	args := m.Called(blogID, userID)
	return args.Get(0).(repositories.ToggleResult), args.Error(1)
}

type mockBookmarkRepo struct {
	repositories.BookmarkRepository
	mock.Mock
}

func (m *mockBookmarkRepo) Toggle(userID uint, blogID string) (repositories.ToggleResult, error) {
	args := m.Called(userID, blogID)
	return args.Get(0).(repositories.ToggleResult), args.Error(1)
}

type mockNotificationRepo struct {
	repositories.NotificationRepository
	mock.Mock
}

func (m *mockNotificationRepo) Create(n *models.Notification) error {
	return m.Called(n).Error(0)
}

type mockAnnouncementRepo struct {
	repositories.AnnouncementRepository
	mock.Mock
}

func (m *mockAnnouncementRepo) GetActive(now time.Time) (*models.Announcement, error) {
	args := m.Called(now)
	a, _ := args.Get(0).(*models.Announcement)
	return a, args.Error(1)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) Related(ctx context.Context, blogID string) ([]recommend.Ranked, error) {
	args := m.Called(ctx, blogID)
	out, _ := args.Get(0).([]recommend.Ranked)
	return out, args.Error(1)
}

func (m *mockRecommender) PersonalFeed(ctx context.Context, userID uint) ([]recommend.Ranked, bool) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]recommend.Ranked)
	return out, args.Bool(1)
}

type allowModerator struct{}

func (allowModerator) Check(context.Context, string, moderation.Meta) moderation.Decision {
	return moderation.Decision{Allowed: true}
}

type openCooldowns struct{}

func (openCooldowns) Acquire(context.Context, string, uint, time.Duration) (bool, time.Duration, error) {
	return true, 0, nil
}

func (openCooldowns) Release(context.Context, string, uint) {}

// memorySuggestions is a SuggestionCache holding summaries in a map
type memorySuggestions map[string]ai.Summary

func (m memorySuggestions) Get(_ context.Context, key string, dst any) error {
	v, ok := m[key]
	if !ok {
		return cache.ErrMiss
	}
	*dst.(*ai.Summary) = v
	return nil
}

func (m memorySuggestions) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key] = value.(ai.Summary)
	return nil
}

// requestContext builds an echo context with one path parameter and an optional signed in user
func requestContext(e *echo.Echo, method, body, param, value string, userID uint, role models.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if param != "" {
		c.SetParamNames(param)
		c.SetParamValues(value)
	}
	if userID != 0 {
		c.Set(middleware.UserContextKey, &models.JwtCustomClaims{UserID: userID, Role: role})
	}
	return c, rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}
