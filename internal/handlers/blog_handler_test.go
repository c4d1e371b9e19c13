package handlers

import (
	"net/http"
	"testing"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetRelated_HiddenBlog(t *testing.T) {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, Status: models.BlogStatusDraft}
	id := blog.ID.Hex()
	blogs := &mockBlogRepo{}
	blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	recommender := &mockRecommender{}
	h := NewBlogHandler(BlogDeps{Blogs: blogs, Recommender: recommender}, zerolog.Nop())
	e := echo.New()

	c, _ := requestContext(e, http.MethodGet, "", "id", id, 2, models.RoleUser)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, h.GetRelated(c)))

	c, _ = requestContext(e, http.MethodGet, "", "id", id, 0, "")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, h.GetRelated(c)))
	recommender.AssertNotCalled(t, "Related", mock.Anything, mock.Anything)

	recommender.On("Related", mock.Anything, id).Return([]recommend.Ranked{}, nil)
	for _, viewer := range []struct {
		id   uint
		role models.Role
	}{{1, models.RoleUser}, {9, models.RoleAdmin}} {
		c, rec := requestContext(e, http.MethodGet, "", "id", id, viewer.id, viewer.role)
		require.NoError(t, h.GetRelated(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	recommender.AssertNumberOfCalls(t, "Related", 2)
}

func TestGetRelated_PublishedBlog(t *testing.T) {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, Status: models.BlogStatusPublished}
	other := models.Blog{ID: primitive.NewObjectID(), AuthorID: 4, Title: "Neighbour"}
	id := blog.ID.Hex()
	blogs := &mockBlogRepo{}
	blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	users := &mockUserRepo{}
	users.On("GetUsersByIDs", []uint{4}).Return(map[uint]models.User{4: {ID: 4, FullName: "Lin"}}, nil)
	recommender := &mockRecommender{}
	recommender.On("Related", mock.Anything, id).Return([]recommend.Ranked{{Blog: other, Score: 0.75}}, nil)
	h := NewBlogHandler(BlogDeps{Blogs: blogs, Users: users, Recommender: recommender}, zerolog.Nop())

	c, rec := requestContext(echo.New(), http.MethodGet, "", "id", id, 0, "")
	require.NoError(t, h.GetRelated(c))

	var body struct {
		Data []struct {
			Title  string             `json:"title"`
			Score  float64            `json:"score"`
			Author *models.UserCompact `json:"author"`
		} `json:"data"`
	}
	decodeJSON(t, rec, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Neighbour", body.Data[0].Title)
	assert.InDelta(t, 0.75, body.Data[0].Score, 1e-9)
	require.NotNil(t, body.Data[0].Author)
	assert.Equal(t, "Lin", body.Data[0].Author.FullName)
}
