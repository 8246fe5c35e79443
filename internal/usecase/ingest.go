package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"commentintel/internal/config"
	"commentintel/internal/domain"
	"commentintel/internal/ports"
	"commentintel/internal/sanitize"
)

// Ingestor walks the configured communities and appends every new post's
// comments to the ledger. Posts whose id already appears in the ledger are
// skipped entirely, which makes re-runs idempotent at post granularity.
type Ingestor struct {
	source ports.PostSource
	ledger ports.Ledger
	logger *slog.Logger

	communities []string
	sort        ports.SortMode
	postLimit   int
	postDelay   time.Duration
	retryFailed bool
}

// IngestorDeps wires the ingestion collaborators and configuration.
type IngestorDeps struct {
	Source ports.PostSource
	Ledger ports.Ledger
	Logger *slog.Logger
	Scrape config.ScrapeConfig
}

// IngestStats counts what one ingestion run did.
type IngestStats struct {
	PostsProcessed int
	PostsSkipped   int
	CommentsSaved  int
}

// NewIngestor constructs the ingestion engine.
func NewIngestor(deps IngestorDeps) *Ingestor {
	return &Ingestor{
		source:      deps.Source,
		ledger:      deps.Ledger,
		logger:      deps.Logger,
		communities: deps.Scrape.Communities,
		sort:        ports.SortMode(deps.Scrape.Sort),
		postLimit:   deps.Scrape.PostLimit,
		postDelay:   deps.Scrape.PostDelay.Std(),
		retryFailed: deps.Scrape.RetryFailedPosts,
	}
}

// Run executes one full scrape pass. A listing failure skips that community;
// a comment-fetch failure skips that post; only ledger write failures and
// cancellation abort the run.
func (i *Ingestor) Run(ctx context.Context) (IngestStats, error) {
	processed := i.ledger.ProcessedPosts()
	i.logger.Info("resuming from ledger", "known_posts", len(processed))

	var stats IngestStats
	for _, community := range i.communities {
		posts, err := i.source.ListPosts(ctx, community, i.sort, i.postLimit)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			i.logger.Error("listing failed, skipping community", "community", community, "error", err)
			continue
		}
		i.logger.Info("scanning community", "community", community, "posts", len(posts))

		for _, post := range posts {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if _, seen := processed[post.ID()]; seen {
				stats.PostsSkipped++
				continue
			}

			saved, fetchErr, writeErr := i.ingestPost(ctx, community, post)
			stats.CommentsSaved += saved
			if writeErr != nil {
				return stats, writeErr
			}
			if fetchErr != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				i.logger.Warn("comment fetch failed", "post", post.ID(), "error", fetchErr)
			}
			if fetchErr == nil || !i.retryFailed {
				processed[post.ID()] = struct{}{}
			}
			stats.PostsProcessed++
			i.logger.Debug("post done", "post", post.ID(), "title", post.Title(), "comments", saved)

			if err := sleepCtx(ctx, i.postDelay); err != nil {
				return stats, err
			}
		}
	}

	i.logger.Info("ingestion complete",
		"posts", stats.PostsProcessed, "skipped", stats.PostsSkipped, "comments", stats.CommentsSaved)
	return stats, nil
}

// ingestPost appends every substantive comment of one post. fetchErr is
// recoverable (the post is skipped); writeErr means the ledger itself is
// broken and aborts the run.
func (i *Ingestor) ingestPost(ctx context.Context, community string, post ports.Post) (saved int, fetchErr, writeErr error) {
	comments, fetchErr := post.Comments(ctx)
	if fetchErr != nil {
		return 0, fetchErr, nil
	}

	for _, cm := range comments {
		body := cm.Body()
		if body == "" || body == domain.DeletedBody || body == domain.RemovedBody {
			continue
		}
		author, ok := cm.Author()
		if !ok {
			author = domain.DeletedAuthor
		}
		row := domain.Comment{
			CommentID:    cm.ID(),
			PostID:       post.ID(),
			Community:    community,
			Author:       author,
			PostScore:    post.Score(),
			CommentScore: cm.Score(),
			RawText:      sanitize.ForStorage(body),
		}
		if err := i.ledger.Append(row); err != nil {
			return saved, nil, fmt.Errorf("append comment %s: %w", cm.ID(), err)
		}
		saved++
	}
	return saved, nil, nil
}
