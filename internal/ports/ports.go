package ports

import (
	"context"

	"commentintel/internal/domain"
)

// SortMode selects the listing order when enumerating a community's posts.
type SortMode string

const (
	SortHot    SortMode = "hot"
	SortNew    SortMode = "new"
	SortTop    SortMode = "top"
	SortRising SortMode = "rising"
)

// Normalize maps unrecognized modes to the default listing order.
func (m SortMode) Normalize() SortMode {
	switch m {
	case SortHot, SortNew, SortTop, SortRising:
		return m
	default:
		return SortHot
	}
}

// Post is one listed submission from a community.
type Post interface {
	ID() string
	Score() int
	Title() string
	// Comments returns the post's flattened comment list with every
	// truncated branch already expanded.
	Comments(ctx context.Context) ([]PostComment, error)
}

// PostComment is a single comment within a post's thread.
type PostComment interface {
	ID() string
	Score() int
	Body() string
	// Author reports the author's display name; ok is false when the
	// account is deleted or otherwise unavailable.
	Author() (name string, ok bool)
}

// PostSource lists candidate posts for a community.
type PostSource interface {
	ListPosts(ctx context.Context, community string, sort SortMode, limit int) ([]Post, error)
}

// Classifier submits one batch of comments to the external model and returns
// its parsed records. Conformance with the data contract is the caller's
// responsibility to check.
type Classifier interface {
	ClassifyBatch(ctx context.Context, batch []domain.Comment) ([]domain.Classification, error)
}

// Ledger is the append-only durable comment table and the source of resume
// state for ingestion.
type Ledger interface {
	// ProcessedPosts returns the post ids already present in the ledger.
	// The caller owns the returned set.
	ProcessedPosts() map[string]struct{}
	Append(c domain.Comment) error
	Close() error
}

// LedgerReader loads the full ledger for triage.
type LedgerReader interface {
	ReadAll() ([]domain.Comment, error)
}

// Quarantine keeps batches that could not be classified, for manual review.
type Quarantine interface {
	AppendBatch(batch []domain.Comment) error
}

// ReportWriter emits the final analyst table, replacing any previous one.
type ReportWriter interface {
	Write(rows []domain.AnalyzedComment) error
}
