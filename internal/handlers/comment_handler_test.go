package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCommentRepo struct {
	repositories.CommentRepository
	mock.Mock
}

func (m *mockCommentRepo) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockCommentRepo) HasReplies(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCommentRepo) SoftDeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCommentRepo) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCommentRepo) SetReaction(ctx context.Context, id string, userID uint, r models.Reaction) (map[string]models.Reaction, error) {
	args := m.Called(ctx, id, userID, r)
	out, _ := args.Get(0).(map[string]models.Reaction)
	return out, args.Error(1)
}

func (m *mockCommentRepo) RemoveReaction(ctx context.Context, id string, userID uint) (map[string]models.Reaction, error) {
	args := m.Called(ctx, id, userID)
	out, _ := args.Get(0).(map[string]models.Reaction)
	return out, args.Error(1)
}

type mockBlogRepo struct {
	repositories.BlogRepository
	mock.Mock
}

func (m *mockBlogRepo) GetBlogByID(ctx context.Context, id string) (*models.Blog, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Blog)
	return b, args.Error(1)
}

func (m *mockBlogRepo) DecrementCommentsCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type commentFixture struct {
	e        *echo.Echo
	comments *mockCommentRepo
	blogs    *mockBlogRepo
	handler  *CommentHandler
	blog     *models.Blog
	comment  *models.Comment
}

func newCommentFixture() *commentFixture {
	e := echo.New()
	e.Validator = validators.NewValidator()

	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1}
	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		BlogID:    blog.ID,
		AuthorID:  2,
		Content:   "nice read",
		Reactions: map[string]models.Reaction{},
	}
	comments := &mockCommentRepo{}
	blogs := &mockBlogRepo{}
	h := NewCommentHandler(comments, blogs, nil, nil, nil, nil, zerolog.Nop())
	return &commentFixture{e: e, comments: comments, blogs: blogs, handler: h, blog: blog, comment: comment}
}

func (f *commentFixture) context(method, body string, userID uint, role models.Role) (echo.Context, *httptest.ResponseRecorder) {
	return requestContext(f.e, method, body, "id", f.comment.ID.Hex(), userID, role)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	return body.Data
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestDeleteComment_WithRepliesLeavesTombstone(t *testing.T) {
	f := newCommentFixture()
	id := f.comment.ID.Hex()
	f.comments.On("GetCommentByID", mock.Anything, id).Return(f.comment, nil)
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)
	f.comments.On("HasReplies", mock.Anything, id).Return(true, nil)
	f.comments.On("SoftDeleteComment", mock.Anything, id).Return(nil)

	c, rec := f.context(http.MethodDelete, "", 2, models.RoleUser)
	require.NoError(t, f.handler.DeleteComment(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, true, data["tombstone"])
	f.comments.AssertNotCalled(t, "DeleteComment", mock.Anything, mock.Anything)
	f.blogs.AssertNotCalled(t, "DecrementCommentsCount", mock.Anything, mock.Anything)
}

func TestDeleteComment_LeafIsRemoved(t *testing.T) {
	f := newCommentFixture()
	id := f.comment.ID.Hex()
	f.comments.On("GetCommentByID", mock.Anything, id).Return(f.comment, nil)
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)
	f.comments.On("HasReplies", mock.Anything, id).Return(false, nil)
	f.comments.On("DeleteComment", mock.Anything, id).Return(nil)
	f.blogs.On("DecrementCommentsCount", mock.Anything, f.blog.ID.Hex()).Return(nil).Maybe()

	// the blog owner may moderate comments on their blog
	c, rec := f.context(http.MethodDelete, "", 1, models.RoleUser)
	require.NoError(t, f.handler.DeleteComment(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["tombstone"])
	f.comments.AssertCalled(t, "DeleteComment", mock.Anything, id)
}

func TestDeleteComment_Forbidden(t *testing.T) {
	f := newCommentFixture()
	f.comments.On("GetCommentByID", mock.Anything, f.comment.ID.Hex()).Return(f.comment, nil)
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)

	c, _ := f.context(http.MethodDelete, "", 9, models.RoleUser)
	err := f.handler.DeleteComment(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	f.comments.AssertNotCalled(t, "HasReplies", mock.Anything, mock.Anything)
}

func TestDeleteComment_AdminAllowed(t *testing.T) {
	f := newCommentFixture()
	id := f.comment.ID.Hex()
	f.comments.On("GetCommentByID", mock.Anything, id).Return(f.comment, nil)
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)
	f.comments.On("HasReplies", mock.Anything, id).Return(true, nil)
	f.comments.On("SoftDeleteComment", mock.Anything, id).Return(nil)

	c, rec := f.context(http.MethodDelete, "", 9, models.RoleAdmin)
	require.NoError(t, f.handler.DeleteComment(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteComment_Unauthenticated(t *testing.T) {
	f := newCommentFixture()
	c, _ := f.context(http.MethodDelete, "", 0, "")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, f.handler.DeleteComment(c)))
}

func TestReact_SetsNewReaction(t *testing.T) {
	f := newCommentFixture()
	id := f.comment.ID.Hex()
	f.comments.On("GetCommentByID", mock.Anything, id).Return(f.comment, nil)
	f.comments.On("SetReaction", mock.Anything, id, uint(3), models.ReactionFire).
		Return(map[string]models.Reaction{"3": models.ReactionFire, "4": models.ReactionFire}, nil)

	c, rec := f.context(http.MethodPost, `{"emoji":"fire"}`, 3, models.RoleUser)
	require.NoError(t, f.handler.React(c))

	data := decodeData(t, rec)
	assert.Equal(t, string(models.ReactionFire), data["userReaction"])
	assert.Equal(t, map[string]any{string(models.ReactionFire): float64(2)}, data["reactionCounts"])
}

func TestReact_SameReactionRemoves(t *testing.T) {
	f := newCommentFixture()
	f.comment.Reactions = map[string]models.Reaction{"3": models.ReactionHeart}
	id := f.comment.ID.Hex()
	f.comments.On("GetCommentByID", mock.Anything, id).Return(f.comment, nil)
	f.comments.On("RemoveReaction", mock.Anything, id, uint(3)).Return(map[string]models.Reaction{}, nil)

	c, rec := f.context(http.MethodPost, `{"emoji":"❤️"}`, 3, models.RoleUser)
	require.NoError(t, f.handler.React(c))

	data := decodeData(t, rec)
	assert.Equal(t, "", data["userReaction"])
	assert.Empty(t, data["reactionCounts"])
	f.comments.AssertNotCalled(t, "SetReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReact_RejectsUnknownEmoji(t *testing.T) {
	f := newCommentFixture()
	c, _ := f.context(http.MethodPost, `{"emoji":"🙃"}`, 3, models.RoleUser)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, f.handler.React(c)))
}

func TestReact_DeletedComment(t *testing.T) {
	f := newCommentFixture()
	f.comment.IsDeleted = true
	f.comments.On("GetCommentByID", mock.Anything, f.comment.ID.Hex()).Return(f.comment, nil)

	c, _ := f.context(http.MethodPost, `{"emoji":"👍"}`, 3, models.RoleUser)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, f.handler.React(c)))
}

// withCollaborators rebuilds the handler with working users, moderation, cooldowns and notifications
func (f *commentFixture) withCollaborators(users *mockUserRepo, notifications *mockNotificationRepo) {
	notifier := NewNotifier(notifications, nil, zerolog.Nop())
	f.handler = NewCommentHandler(f.comments, f.blogs, users, allowModerator{}, openCooldowns{}, notifier, zerolog.Nop())
}

func TestCreateComment_HiddenBlog(t *testing.T) {
	f := newCommentFixture()
	f.blog.Status = models.BlogStatusDraft
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)
	f.withCollaborators(&mockUserRepo{}, &mockNotificationRepo{})

	c, _ := requestContext(f.e, http.MethodPost, `{"content":"first!"}`, "id", f.blog.ID.Hex(), 2, models.RoleUser)
	err := f.handler.CreateComment(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	f.comments.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
}

func TestCreateComment_NotifiesWhenAuthorLookupFails(t *testing.T) {
	f := newCommentFixture()
	blogID := f.blog.ID.Hex()
	f.blogs.On("GetBlogByID", mock.Anything, blogID).Return(f.blog, nil)
	f.blogs.On("IncrementCommentsCount", mock.Anything, blogID).Return(nil).Maybe()
	f.comments.On("CreateComment", mock.Anything, mock.Anything).Return(nil)
	users := &mockUserRepo{}
	users.On("GetUserByID", uint(2)).Return(nil, errors.New("connection reset"))
	notifications := &mockNotificationRepo{}
	sent := make(chan *models.Notification, 1)
	notifications.On("Create", mock.Anything).Return(nil).
		Run(func(args mock.Arguments) { sent <- args.Get(0).(*models.Notification) })
	f.withCollaborators(users, notifications)

	c, rec := requestContext(f.e, http.MethodPost, `{"content":"  nice read  "}`, "id", blogID, 2, models.RoleUser)
	require.NoError(t, f.handler.CreateComment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "nice read", decodeData(t, rec)["content"])

	select {
	case n := <-sent:
		assert.Equal(t, "Someone commented on your blog", n.Message)
		assert.Equal(t, models.NotificationComment, n.Type)
		assert.Equal(t, uint(1), n.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("comment notification was not created")
	}
}

func TestCreateReply_HiddenBlog(t *testing.T) {
	f := newCommentFixture()
	f.blog.Status = models.BlogStatusPrivate
	f.comments.On("GetCommentByID", mock.Anything, f.comment.ID.Hex()).Return(f.comment, nil)
	f.blogs.On("GetBlogByID", mock.Anything, f.blog.ID.Hex()).Return(f.blog, nil)
	f.withCollaborators(&mockUserRepo{}, &mockNotificationRepo{})

	c, _ := f.context(http.MethodPost, `{"content":"agreed"}`, 3, models.RoleUser)
	err := f.handler.CreateReply(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	f.comments.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)

	// the blog author can still reply on their private blog
	f.comments.On("CreateComment", mock.Anything, mock.Anything).Return(nil)
	f.blogs.On("IncrementCommentsCount", mock.Anything, f.blog.ID.Hex()).Return(nil).Maybe()
	users := &mockUserRepo{}
	users.On("GetUserByID", uint(1)).Return(&models.User{ID: 1, FullName: "Grace"}, nil)
	notifications := &mockNotificationRepo{}
	sent := make(chan *models.Notification, 1)
	notifications.On("Create", mock.Anything).Return(nil).
		Run(func(args mock.Arguments) { sent <- args.Get(0).(*models.Notification) })
	f.withCollaborators(users, notifications)

	c, rec := f.context(http.MethodPost, `{"content":"thanks"}`, 1, models.RoleUser)
	require.NoError(t, f.handler.CreateReply(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	select {
	case n := <-sent:
		assert.Equal(t, "Grace replied to your comment", n.Message)
		assert.Equal(t, uint(2), n.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("reply notification was not created")
	}
}
