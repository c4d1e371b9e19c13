package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/content"
	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	feedPageSize     = 5
	homePageSize     = 10
	feedExcerptRunes = 200
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	blogRepository         repositories.BlogRepository
	userRepository         repositories.UserRepository
	announcementRepository repositories.AnnouncementRepository
	recommender            Recommender
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	blogRepo repositories.BlogRepository,
	userRepo repositories.UserRepository,
	announcementRepo repositories.AnnouncementRepository,
	recommender Recommender,
) *FeedHandler {
	return &FeedHandler{
		blogRepository:         blogRepo,
		userRepository:         userRepo,
		announcementRepository: announcementRepo,
		recommender:            recommender,
	}
}

// RegisterFeedRoutes registers feed-related routes. They work with or without a signed in user.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/home", h.GetHome)
	g.GET("/feed", h.GetFeed)
	g.GET("/tags/trending", h.GetTrendingTags)
	g.GET("/announcements/active", h.GetActiveAnnouncement)
}

// FeedItem is a blog card with author info and reading hints
type FeedItem struct {
	models.BlogCompact
	Author   models.UserCompact `json:"author"`
	Excerpt  string             `json:"excerpt"`
	ReadTime int                `json:"read_time"`
	Views    int64              `json:"views"`
	Likes    int                `json:"likes_count"`
	Score    *float64           `json:"score,omitempty"`
}

func (h *FeedHandler) feedItems(blogs []models.Blog) []FeedItem {
	ids := make([]uint, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].AuthorID
	}
	authors := compactUsers(h.userRepository, ids)

	items := make([]FeedItem, len(blogs))
	for i := range blogs {
		b := &blogs[i]
		items[i] = FeedItem{
			BlogCompact: b.ToCompact(),
			Author:      authors[b.AuthorID],
			Excerpt:     content.Excerpt(b.Body, feedExcerptRunes),
			ReadTime:    content.ReadTime(b.Body),
			Views:       b.Views,
			Likes:       b.LikesCount,
		}
	}
	return items
}

func (h *FeedHandler) rankedItems(ranked []recommend.Ranked) []FeedItem {
	blogs := make([]models.Blog, len(ranked))
	for i, r := range ranked {
		blogs[i] = r.Blog
	}
	items := h.feedItems(blogs)
	for i := range items {
		score := ranked[i].Score
		items[i].Score = &score
	}
	return items
}

// homeFilter turns the query string into a listing filter. The pseudo categories
// "trending" and "featured" change the ordering instead of matching a category.
func homeFilter(q, category, tag string) repositories.BlogFilter {
	filter := repositories.BlogFilter{
		Search:        q,
		Tag:           tag,
		PublishedOnly: true,
		Sort:          repositories.BlogSortHiddenGems,
	}
	switch strings.ToLower(category) {
	case "":
	case "trending":
		filter.Sort = repositories.BlogSortTrending
	case "featured":
		filter.FeaturedOnly = true
	default:
		filter.Category = category
	}
	return filter
}

// GetHome returns the landing page: a personal feed for readers with history, otherwise the
// filtered listing, plus the sidebar widgets
func (h *FeedHandler) GetHome(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))
	tag := strings.TrimSpace(c.QueryParam("tag"))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	var (
		items        []FeedItem
		personalized bool
		total        int64
	)
	if viewer := getUserIDFromContext(c); viewer != 0 && q == "" && category == "" && tag == "" && page == 1 {
		if ranked, ok := h.recommender.PersonalFeed(ctx, viewer); ok {
			items = h.rankedItems(ranked)
			personalized = true
			total = int64(len(items))
		}
	}
	if personalized {
		metrics.RecordFeedStrategy("personalized")
	} else {
		metrics.RecordFeedStrategy("fallback")
		filter := homeFilter(q, category, tag)
		filter.Skip = int64((page - 1) * homePageSize)
		filter.Limit = homePageSize

		blogs, err := h.blogRepository.ListBlogs(ctx, filter)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if total, err = h.blogRepository.CountBlogs(ctx, filter); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		items = h.feedItems(blogs)
	}

	var (
		categories   []string
		trendingTags []repositories.TagCount
		featured     []models.Blog
		trending     []models.Blog
		announcement *models.Announcement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = h.blogRepository.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		trendingTags, err = h.blogRepository.TrendingTags(gctx, 5)
		return err
	})
	g.Go(func() (err error) {
		featured, err = h.blogRepository.ListBlogs(gctx, repositories.BlogFilter{FeaturedOnly: true, PublishedOnly: true, Sort: repositories.BlogSortNewest, Limit: 5})
		return err
	})
	g.Go(func() (err error) {
		trending, err = h.blogRepository.ListBlogs(gctx, repositories.BlogFilter{PublishedOnly: true, Sort: repositories.BlogSortTrending, Limit: 3})
		return err
	})
	g.Go(func() (err error) {
		announcement, err = h.announcementRepository.GetActive(time.Now())
		return err
	})
	if err := g.Wait(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	limit := homePageSize
	if personalized {
		limit = max(len(items), 1)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"blogs":        items,
			"personalized": personalized,
			"categories":   categories,
			"trendingTags": trendingTags,
			"featured":     h.feedItems(featured),
			"trending":     h.feedItems(trending),
			"announcement": announcement,
		},
		"meta": paginationMeta(page, limit, total),
	})
}

// GetFeed returns published blogs newest first, five per page
func (h *FeedHandler) GetFeed(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	ctx := c.Request().Context()
	filter := repositories.BlogFilter{
		PublishedOnly: true,
		Sort:          repositories.BlogSortNewest,
		Skip:          int64((page - 1) * feedPageSize),
		Limit:         feedPageSize,
	}
	blogs, err := h.blogRepository.ListBlogs(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total, err := h.blogRepository.CountBlogs(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"blogs":   h.feedItems(blogs),
			"hasMore": int64(page*feedPageSize) < total,
		},
		"meta": paginationMeta(page, feedPageSize, total),
	})
}

// GetTrendingTags returns the most used tags on published blogs
func (h *FeedHandler) GetTrendingTags(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}
	tags, err := h.blogRepository.TrendingTags(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, tags)
}

// GetActiveAnnouncement returns the current site banner, or null
func (h *FeedHandler) GetActiveAnnouncement(c echo.Context) error {
	announcement, err := h.announcementRepository.GetActive(time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, announcement)
}
