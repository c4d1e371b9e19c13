// Package recommend ranks blogs by embedding similarity for related posts and the personal feed.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/internal/similarity"
	"github.com/rs/zerolog"
)

const (
	RelatedLimit      = 3
	PersonalLimit     = 10
	CandidateWindow   = 90 * 24 * time.Hour
	historyLookback   = models.MaxReadingHistory
	fallbackOverfetch = 1
)

// BlogStore is the subset of the blog repository the recommender reads
type BlogStore interface {
	GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error)
	ListCandidates(ctx context.Context, since time.Time, excludeID string) ([]similarity.Candidate, error)
	GetBlogsByIDs(ctx context.Context, ids []string) ([]models.Blog, error)
	ListBlogs(ctx context.Context, filter repositories.BlogFilter) ([]models.Blog, error)
}

// HistoryStore returns the blogs a user read recently
type HistoryStore interface {
	RecentBlogIDs(userID uint, limit int) ([]string, error)
}

// Ranked is a blog with its similarity score
type Ranked struct {
	Blog  models.Blog
	Score float64
}

// Service builds related-post lists and personal feeds
type Service struct {
	blogs   BlogStore
	history HistoryStore
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(blogs BlogStore, history HistoryStore, log zerolog.Logger) *Service {
	return &Service{blogs: blogs, history: history, log: log, now: time.Now}
}

// Related returns the blogs most similar to blogID. When the blog has no embedding yet it
// returns a few other published blogs instead, all with a zero score.
func (s *Service) Related(ctx context.Context, blogID string) ([]Ranked, error) {
	embeddings, err := s.blogs.GetEmbeddings(ctx, []string{blogID})
	if err != nil {
		return nil, fmt.Errorf("load embedding: %w", err)
	}
	query, ok := embeddings[blogID]
	if !ok || len(query) == 0 {
		return s.fallbackRelated(ctx, blogID)
	}

	candidates, err := s.blogs.ListCandidates(ctx, time.Time{}, blogID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return s.hydrate(ctx, similarity.Rank(query, candidates, RelatedLimit))
}

func (s *Service) fallbackRelated(ctx context.Context, blogID string) ([]Ranked, error) {
	blogs, err := s.blogs.ListBlogs(ctx, repositories.BlogFilter{
		PublishedOnly: true,
		Sort:          repositories.BlogSortNewest,
		Limit:         RelatedLimit + fallbackOverfetch,
	})
	if err != nil {
		return nil, fmt.Errorf("list fallback blogs: %w", err)
	}

	out := make([]Ranked, 0, RelatedLimit)
	for _, b := range blogs {
		if b.ID.Hex() == blogID {
			continue
		}
		out = append(out, Ranked{Blog: b})
		if len(out) == RelatedLimit {
			break
		}
	}
	return out, nil
}

// PersonalFeed ranks recent blogs against the centroid of the user's reading history.
// The second result is false when there is nothing to personalize on, in which case the
// caller should serve its default ordering. Errors are logged and treated the same way.
func (s *Service) PersonalFeed(ctx context.Context, userID uint) ([]Ranked, bool) {
	ranked, err := s.personalFeed(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("personalization failed, using default feed")
		return nil, false
	}
	if len(ranked) == 0 {
		return nil, false
	}
	return ranked, true
}

func (s *Service) personalFeed(ctx context.Context, userID uint) ([]Ranked, error) {
	ids, err := s.history.RecentBlogIDs(userID, historyLookback)
	if err != nil {
		return nil, fmt.Errorf("load reading history: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	embeddings, err := s.blogs.GetEmbeddings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load history embeddings: %w", err)
	}
	vectors := usableVectors(ids, embeddings)
	if len(vectors) == 0 {
		return nil, nil
	}
	query := similarity.Centroid(vectors)

	candidates, err := s.blogs.ListCandidates(ctx, s.now().Add(-CandidateWindow), "")
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return s.hydrate(ctx, similarity.Rank(query, candidates, PersonalLimit))
}

// usableVectors keeps the non-empty history vectors that share the dimension of the most
// recent one, in history order
func usableVectors(ids []string, embeddings map[string][]float64) [][]float64 {
	var vectors [][]float64
	dim := 0
	for _, id := range ids {
		v := embeddings[id]
		if len(v) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) == dim {
			vectors = append(vectors, v)
		}
	}
	return vectors
}

// hydrate loads the full blogs of the winners and restores rank order
func (s *Service) hydrate(ctx context.Context, scored []similarity.Scored) ([]Ranked, error) {
	if len(scored) == 0 {
		return []Ranked{}, nil
	}
	ids := make([]string, len(scored))
	for i, sc := range scored {
		ids[i] = sc.ID
	}

	blogs, err := s.blogs.GetBlogsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate blogs: %w", err)
	}
	byID := make(map[string]models.Blog, len(blogs))
	for _, b := range blogs {
		byID[b.ID.Hex()] = b
	}

	out := make([]Ranked, 0, len(scored))
	for _, sc := range scored {
		if b, ok := byID[sc.ID]; ok {
			out = append(out, Ranked{Blog: b, Score: sc.Score})
		}
	}
	return out, nil
}
