package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type likeFixture struct {
	e             *echo.Echo
	likes         *mockLikeRepo
	blogs         *mockBlogRepo
	users         *mockUserRepo
	notifications *mockNotificationRepo
	handler       *LikeHandler
	blog          *models.Blog
	counted       chan string
	sent          chan *models.Notification
}

func newLikeFixture() *likeFixture {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, LikesCount: 4}
	f := &likeFixture{
		e:             echo.New(),
		likes:         &mockLikeRepo{},
		blogs:         &mockBlogRepo{},
		users:         &mockUserRepo{},
		notifications: &mockNotificationRepo{},
		blog:          blog,
		counted:       make(chan string, 2),
		sent:          make(chan *models.Notification, 1),
	}
	id := blog.ID.Hex()
	f.blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	f.blogs.On("IncrementLikesCount", mock.Anything, id).Return(nil).
		Run(func(mock.Arguments) { f.counted <- "increment" }).Maybe()
	f.blogs.On("DecrementLikesCount", mock.Anything, id).Return(nil).
		Run(func(mock.Arguments) { f.counted <- "decrement" }).Maybe()
	f.users.On("GetUserByID", uint(2)).Return(&models.User{ID: 2, FullName: "Ada"}, nil).Maybe()
	f.notifications.On("Create", mock.Anything).Return(nil).
		Run(func(args mock.Arguments) { f.sent <- args.Get(0).(*models.Notification) }).Maybe()

	notifier := NewNotifier(f.notifications, nil, zerolog.Nop())
	f.handler = NewLikeHandler(f.likes, f.blogs, f.users, notifier, zerolog.Nop())
	return f
}

func (f *likeFixture) toggle(t *testing.T, userID uint) map[string]any {
	t.Helper()
	c, rec := requestContext(f.e, http.MethodPost, "", "id", f.blog.ID.Hex(), userID, models.RoleUser)
	require.NoError(t, f.handler.ToggleLike(c))
	return decodeData(t, rec)
}

// counter returns the counter update made in the background, or "" when none happens
func (f *likeFixture) counter() string {
	select {
	case op := <-f.counted:
		return op
	case <-time.After(200 * time.Millisecond):
		return ""
	}
}

func TestToggleLike_AddedIncrements(t *testing.T) {
	f := newLikeFixture()
	f.likes.On("Toggle", f.blog.ID.Hex(), uint(2)).Return(repositories.ToggleAdded, nil)

	data := f.toggle(t, 2)
	assert.Equal(t, true, data["liked"])
	assert.EqualValues(t, 5, data["likesCount"])
	assert.Equal(t, "increment", f.counter())
}

func TestToggleLike_RemovedDecrements(t *testing.T) {
	f := newLikeFixture()
	f.likes.On("Toggle", f.blog.ID.Hex(), uint(2)).Return(repositories.ToggleRemoved, nil)

	data := f.toggle(t, 2)
	assert.Equal(t, false, data["liked"])
	assert.EqualValues(t, 3, data["likesCount"])
	assert.Equal(t, "decrement", f.counter())
}

func TestToggleLike_ConcurrentInsertLeavesCounter(t *testing.T) {
	f := newLikeFixture()
	f.likes.On("Toggle", f.blog.ID.Hex(), uint(2)).Return(repositories.ToggleUnchanged, nil)

	data := f.toggle(t, 2)
	assert.Equal(t, true, data["liked"])
	assert.EqualValues(t, 4, data["likesCount"])
	assert.Empty(t, f.counter())
	assert.Empty(t, f.sent)
}

func TestToggleLike_NotifiesWithFallbackName(t *testing.T) {
	f := newLikeFixture()
	f.likes.On("Toggle", f.blog.ID.Hex(), uint(3)).Return(repositories.ToggleAdded, nil)
	f.users.On("GetUserByID", uint(3)).Return(nil, errors.New("connection reset"))

	f.toggle(t, 3)
	select {
	case n := <-f.sent:
		assert.Equal(t, "Someone liked your blog", n.Message)
		assert.Equal(t, uint(1), n.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("like notification was not created")
	}
}

func TestToggleLike_HiddenBlog(t *testing.T) {
	f := newLikeFixture()
	f.blog.Status = models.BlogStatusDraft
	c, _ := requestContext(f.e, http.MethodPost, "", "id", f.blog.ID.Hex(), 2, models.RoleUser)

	err := f.handler.ToggleLike(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	f.likes.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything)
}

func TestToggleLike_Unauthenticated(t *testing.T) {
	f := newLikeFixture()
	c, _ := requestContext(f.e, http.MethodPost, "", "id", f.blog.ID.Hex(), 0, "")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, f.handler.ToggleLike(c)))
}

func TestToggleBookmark_HiddenBlog(t *testing.T) {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, Status: models.BlogStatusPrivate}
	id := blog.ID.Hex()
	blogs := &mockBlogRepo{}
	blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	bookmarks := &mockBookmarkRepo{}
	bookmarks.On("Toggle", uint(1), id).Return(repositories.ToggleUnchanged, nil)
	h := NewBookmarkHandler(bookmarks, blogs)
	e := echo.New()

	c, _ := requestContext(e, http.MethodPost, "", "id", id, 2, models.RoleUser)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, h.ToggleBookmark(c)))
	bookmarks.AssertNotCalled(t, "Toggle", uint(2), id)

	// a lost insert race still reports the bookmark as saved
	c, rec := requestContext(e, http.MethodPost, "", "id", id, 1, models.RoleUser)
	require.NoError(t, h.ToggleBookmark(c))
	assert.Equal(t, true, decodeData(t, rec)["bookmarked"])
}
