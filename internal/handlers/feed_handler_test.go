package handlers

import (
	"net/http"
	"testing"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	featuredFilter = repositories.BlogFilter{FeaturedOnly: true, PublishedOnly: true, Sort: repositories.BlogSortNewest, Limit: 5}
	trendingFilter = repositories.BlogFilter{PublishedOnly: true, Sort: repositories.BlogSortTrending, Limit: 3}
)

type homeResponse struct {
	Data struct {
		Blogs []struct {
			Title  string            `json:"title"`
			Author models.UserCompact `json:"author"`
			Score  *float64          `json:"score"`
		} `json:"blogs"`
		Personalized bool                    `json:"personalized"`
		Categories   []string                `json:"categories"`
		TrendingTags []repositories.TagCount `json:"trendingTags"`
	} `json:"data"`
	Meta struct {
		CurrentPage int   `json:"currentPage"`
		TotalPages  int   `json:"totalPages"`
		TotalItems  int64 `json:"totalItems"`
	} `json:"meta"`
}

type feedFixture struct {
	blogs         *mockBlogRepo
	users         *mockUserRepo
	announcements *mockAnnouncementRepo
	recommender   *mockRecommender
	handler       *FeedHandler
}

// newFeedFixture wires the sidebar widgets, which every home request loads
func newFeedFixture() *feedFixture {
	f := &feedFixture{
		blogs:         &mockBlogRepo{},
		users:         &mockUserRepo{},
		announcements: &mockAnnouncementRepo{},
		recommender:   &mockRecommender{},
	}
	f.blogs.On("Categories", mock.Anything).Return([]string{"tech"}, nil)
	f.blogs.On("TrendingTags", mock.Anything, 5).Return([]repositories.TagCount{{Tag: "go", Count: 3}}, nil)
	f.blogs.On("ListBlogs", mock.Anything, featuredFilter).Return([]models.Blog{}, nil)
	f.blogs.On("ListBlogs", mock.Anything, trendingFilter).Return([]models.Blog{}, nil)
	f.announcements.On("GetActive", mock.Anything).Return(nil, nil)
	f.users.On("GetUsersByIDs", []uint{7}).Return(map[uint]models.User{7: {ID: 7, FullName: "Mae"}}, nil)
	f.handler = NewFeedHandler(f.blogs, f.users, f.announcements, f.recommender)
	return f
}

func (f *feedFixture) home(t *testing.T, query string, viewer uint) homeResponse {
	t.Helper()
	c, rec := requestContext(echo.New(), http.MethodGet, "", "", "", viewer, models.RoleUser)
	c.Request().URL.RawQuery = query
	require.NoError(t, f.handler.GetHome(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body homeResponse
	decodeJSON(t, rec, &body)
	return body
}

func TestGetHome_FallsBackWhenNoPersonalFeed(t *testing.T) {
	f := newFeedFixture()
	f.recommender.On("PersonalFeed", mock.Anything, uint(5)).Return(nil, false)
	listing := homeFilter("", "", "")
	listing.Limit = homePageSize
	f.blogs.On("ListBlogs", mock.Anything, listing).
		Return([]models.Blog{{ID: primitive.NewObjectID(), AuthorID: 7, Title: "Quiet post"}}, nil)
	f.blogs.On("CountBlogs", mock.Anything, listing).Return(int64(11), nil)

	body := f.home(t, "", 5)

	assert.False(t, body.Data.Personalized)
	require.Len(t, body.Data.Blogs, 1)
	assert.Equal(t, "Quiet post", body.Data.Blogs[0].Title)
	assert.Equal(t, "Mae", body.Data.Blogs[0].Author.FullName)
	assert.Nil(t, body.Data.Blogs[0].Score)
	assert.Equal(t, []string{"tech"}, body.Data.Categories)
	assert.Equal(t, []repositories.TagCount{{Tag: "go", Count: 3}}, body.Data.TrendingTags)
	assert.Equal(t, 1, body.Meta.CurrentPage)
	assert.Equal(t, 2, body.Meta.TotalPages)
	assert.EqualValues(t, 11, body.Meta.TotalItems)
	f.recommender.AssertExpectations(t)
}

func TestGetHome_PersonalFeed(t *testing.T) {
	f := newFeedFixture()
	ranked := []recommend.Ranked{{Blog: models.Blog{ID: primitive.NewObjectID(), AuthorID: 7, Title: "For you"}, Score: 0.9}}
	f.recommender.On("PersonalFeed", mock.Anything, uint(5)).Return(ranked, true)

	body := f.home(t, "", 5)

	assert.True(t, body.Data.Personalized)
	require.Len(t, body.Data.Blogs, 1)
	require.NotNil(t, body.Data.Blogs[0].Score)
	assert.InDelta(t, 0.9, *body.Data.Blogs[0].Score, 1e-9)
	assert.EqualValues(t, 1, body.Meta.TotalItems)
	f.blogs.AssertNotCalled(t, "CountBlogs", mock.Anything, mock.Anything)
}

func TestGetHome_FiltersSkipPersonalFeed(t *testing.T) {
	f := newFeedFixture()
	listing := homeFilter("", "", "go")
	listing.Skip = homePageSize
	listing.Limit = homePageSize
	f.blogs.On("ListBlogs", mock.Anything, listing).Return([]models.Blog{}, nil)
	f.blogs.On("CountBlogs", mock.Anything, listing).Return(int64(10), nil)

	body := f.home(t, "tag=go&page=2", 5)

	assert.False(t, body.Data.Personalized)
	assert.Empty(t, body.Data.Blogs)
	assert.Equal(t, 2, body.Meta.CurrentPage)
	f.recommender.AssertNotCalled(t, "PersonalFeed", mock.Anything, mock.Anything)
}

func TestGetHome_AnonymousUsesListing(t *testing.T) {
	f := newFeedFixture()
	listing := homeFilter("", "", "")
	listing.Limit = homePageSize
	f.blogs.On("ListBlogs", mock.Anything, listing).Return([]models.Blog{}, nil)
	f.blogs.On("CountBlogs", mock.Anything, listing).Return(int64(0), nil)

	body := f.home(t, "", 0)

	assert.False(t, body.Data.Personalized)
	f.recommender.AssertNotCalled(t, "PersonalFeed", mock.Anything, mock.Anything)
}
