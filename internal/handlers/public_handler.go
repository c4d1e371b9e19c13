package handlers

import (
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/content"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	rssItems       = 20
	sitemapMaxURLs = 50000
	feedCacheAge   = 15 * time.Minute
)

// PublicHandler serves the sitemap and the RSS feed
type PublicHandler struct {
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
	siteURL        string
	log            zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, siteURL string, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		blogRepository: blogRepo,
		userRepository: userRepo,
		siteURL:        strings.TrimRight(siteURL, "/"),
		log:            log,
	}
}

// RegisterPublicRoutes registers the crawler-facing routes
func (h *PublicHandler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/sitemap.xml", h.Sitemap)
	e.GET("/rss.xml", h.RSS)
}

func (h *PublicHandler) blogURL(id string) string {
	return h.siteURL + "/blog/" + id
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap lists the home page and every published blog
func (h *PublicHandler) Sitemap(c echo.Context) error {
	blogs, err := h.blogRepository.ListBlogs(c.Request().Context(), repositories.BlogFilter{
		PublishedOnly: true,
		Sort:          repositories.BlogSortNewest,
		Limit:         sitemapMaxURLs - 1,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("listing blogs for sitemap")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build sitemap")
	}

	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(blogs)+1),
	}
	set.URLs = append(set.URLs, sitemapURL{Loc: h.siteURL + "/", ChangeFreq: "daily", Priority: "1.0"})
	for _, b := range blogs {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.blogURL(b.ID.Hex()),
			LastMod:    b.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build sitemap")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "max-age="+strconv.Itoa(int(feedCacheAge.Seconds())))
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, append([]byte(xml.Header), out...))
}

// RSS returns the newest published blogs as an RSS 2.0 feed
func (h *PublicHandler) RSS(c echo.Context) error {
	blogs, err := h.blogRepository.ListBlogs(c.Request().Context(), repositories.BlogFilter{
		PublishedOnly: true,
		Sort:          repositories.BlogSortNewest,
		Limit:         rssItems,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("listing blogs for rss")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build feed")
	}

	ids := make([]uint, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].AuthorID
	}
	authors := compactUsers(h.userRepository, ids)

	feed := &feeds.Feed{
		Title:       "Lumina",
		Link:        &feeds.Link{Href: h.siteURL},
		Description: "The latest stories published on Lumina",
		Created:     time.Now(),
	}
	for _, b := range blogs {
		item := &feeds.Item{
			Id:          b.ID.Hex(),
			IsPermaLink: "false",
			Title:       b.Title,
			Link:        &feeds.Link{Href: h.blogURL(b.ID.Hex())},
			Description: content.Excerpt(b.Body, metaDescriptionLength),
			Created:     b.CreatedAt,
			Updated:     b.UpdatedAt,
		}
		if a, ok := authors[b.AuthorID]; ok {
			item.Author = &feeds.Author{Name: a.FullName}
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		h.log.Error().Err(err).Msg("formatting rss feed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build feed")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "max-age="+strconv.Itoa(int(feedCacheAge.Seconds())))
	return c.Blob(http.StatusOK, "application/rss+xml; charset=UTF-8", []byte(rss))
}
