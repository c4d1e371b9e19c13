// Package embedding computes blog embeddings in the background.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/lumina/backend/internal/content"
	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/queue"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxAttempts bounds how often one blog is tried before giving up
	MaxAttempts = 3

	enqueueTimeout = 5 * time.Second
	popBackoff     = time.Second
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BlogStore is the subset of the blog repository the pipeline needs
type BlogStore interface {
	GetBlogByID(ctx context.Context, id string) (*models.Blog, error)
	SetEmbedding(ctx context.Context, id string, embedding []float64) error
	ListMissingEmbeddings(ctx context.Context, limit int64) ([]models.Blog, error)
}

// JobQueue is where embedding jobs travel between the API and the worker
type JobQueue interface {
	Enqueuer
	Pop(ctx context.Context) (queue.Job, error)
}

// Enqueuer publishes embedding jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// Schedule asks for the blog to be embedded without waiting. Failures are only logged.
func Schedule(enq Enqueuer, log zerolog.Logger, blogID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()
		if err := enq.Enqueue(ctx, queue.Job{BlogID: blogID}); err != nil {
			log.Error().Err(err).Str("blog_id", blogID).Msg("failed to enqueue embedding job")
		}
	}()
}

// Worker consumes embedding jobs with a fixed number of goroutines
type Worker struct {
	jobs     JobQueue
	blogs    BlogStore
	embedder Embedder
	workers  int
	log      zerolog.Logger
}

func NewWorker(jobs JobQueue, blogs BlogStore, embedder Embedder, workers int, log zerolog.Logger) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{jobs: jobs, blogs: blogs, embedder: embedder, workers: workers, log: log}
}

// Run processes jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("workers", w.workers).Msg("embedding worker started")
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			w.loop(ctx)
			return nil
		})
	}
	err := g.Wait()
	w.log.Info().Msg("embedding worker stopped")
	return err
}

func (w *Worker) loop(ctx context.Context) {
	for {
		job, err := w.jobs.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn().Err(err).Msg("failed to pop embedding job")
			if !sleep(ctx, popBackoff) {
				return
			}
			continue
		}
		w.Process(ctx, job)
	}
}

// Process embeds one blog. Failed jobs are requeued until MaxAttempts is reached.
func (w *Worker) Process(ctx context.Context, job queue.Job) {
	err := embedBlog(ctx, w.blogs, w.embedder, job.BlogID)
	switch {
	case err == nil:
		metrics.RecordEmbeddingJob("done")
		w.log.Debug().Str("blog_id", job.BlogID).Msg("blog embedded")
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrInvalidID):
		metrics.RecordEmbeddingJob("dropped")
		w.log.Info().Str("blog_id", job.BlogID).Msg("blog gone, dropping embedding job")
	default:
		metrics.RecordEmbeddingJob("failed")
		next := queue.Job{BlogID: job.BlogID, Attempt: job.Attempt + 1}
		if next.Attempt >= MaxAttempts {
			w.log.Error().Err(err).Str("blog_id", job.BlogID).Int("attempt", next.Attempt).Msg("embedding failed, giving up")
			return
		}
		w.log.Warn().Err(err).Str("blog_id", job.BlogID).Int("attempt", next.Attempt).Msg("embedding failed, requeueing")
		if err := w.jobs.Enqueue(ctx, next); err != nil {
			w.log.Error().Err(err).Str("blog_id", job.BlogID).Msg("failed to requeue embedding job")
		}
	}
}

func embedBlog(ctx context.Context, blogs BlogStore, embedder Embedder, blogID string) error {
	blog, err := blogs.GetBlogByID(ctx, blogID)
	if err != nil {
		return err
	}
	return embedLoaded(ctx, blogs, embedder, blog)
}

func embedLoaded(ctx context.Context, blogs BlogStore, embedder Embedder, blog *models.Blog) error {
	vec, err := embedder.Embed(ctx, content.EmbeddingText(blog.Title, blog.Body))
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vec) == 0 {
		return errors.New("embed: empty vector")
	}
	return blogs.SetEmbedding(ctx, blog.ID.Hex(), vec)
}

// sleep waits for d and reports false when ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
