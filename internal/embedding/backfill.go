package embedding

import (
	"context"
	"time"

	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/rs/zerolog"
)

// Backfill embeds every blog that has no vector yet, one at a time to stay under the API quota
type Backfill struct {
	blogs    BlogStore
	embedder Embedder
	log      zerolog.Logger

	Attempts  int
	ErrorWait time.Duration // after a failed attempt, usually a rate limit
	Pause     time.Duration // between blogs
}

// BackfillResult summarizes a backfill run
type BackfillResult struct {
	Total  int
	Done   int
	Failed int
}

func NewBackfill(blogs BlogStore, embedder Embedder, log zerolog.Logger) *Backfill {
	return &Backfill{
		blogs:     blogs,
		embedder:  embedder,
		log:       log,
		Attempts:  MaxAttempts,
		ErrorWait: 60 * time.Second,
		Pause:     5 * time.Second,
	}
}

// Run processes all blogs missing an embedding. It stops early only when ctx is cancelled.
func (b *Backfill) Run(ctx context.Context) (BackfillResult, error) {
	blogs, err := b.blogs.ListMissingEmbeddings(ctx, 0)
	if err != nil {
		return BackfillResult{}, err
	}
	res := BackfillResult{Total: len(blogs)}
	b.log.Info().Int("blogs", res.Total).Msg("starting embedding backfill")

	for i := range blogs {
		blog := &blogs[i]
		if i > 0 && !sleep(ctx, b.Pause) {
			return res, ctx.Err()
		}

		var lastErr error
		for attempt := 1; attempt <= b.Attempts; attempt++ {
			if lastErr = embedLoaded(ctx, b.blogs, b.embedder, blog); lastErr == nil {
				break
			}
			b.log.Warn().Err(lastErr).Str("blog_id", blog.ID.Hex()).Int("attempt", attempt).Msg("backfill attempt failed")
			if attempt < b.Attempts && !sleep(ctx, b.ErrorWait) {
				return res, ctx.Err()
			}
		}

		if lastErr != nil {
			res.Failed++
			metrics.RecordEmbeddingJob("failed")
			b.log.Error().Err(lastErr).Str("blog_id", blog.ID.Hex()).Str("title", blog.Title).Msg("giving up on blog")
			continue
		}
		res.Done++
		metrics.RecordEmbeddingJob("done")
		b.log.Info().Str("blog_id", blog.ID.Hex()).Int("done", res.Done).Int("total", res.Total).Msg("blog embedded")
	}

	b.log.Info().Int("done", res.Done).Int("failed", res.Failed).Msg("embedding backfill finished")
	return res, nil
}
