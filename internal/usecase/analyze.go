package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"commentintel/internal/config"
	"commentintel/internal/domain"
	"commentintel/internal/ports"
)

// Analyzer partitions triage candidates into fixed-size batches, classifies
// each batch, and merges accepted results back onto candidate metadata. A
// failed batch is quarantined verbatim and never aborts the run.
type Analyzer struct {
	classifier ports.Classifier
	quarantine ports.Quarantine
	report     ports.ReportWriter
	logger     *slog.Logger
	progress   func(done, total int)

	products   []string
	sentiments []string
	painPoints []string
	batchSize  int
	batchDelay time.Duration
}

// AnalyzerDeps wires the classification collaborators and configuration.
type AnalyzerDeps struct {
	Classifier ports.Classifier
	Quarantine ports.Quarantine
	Report     ports.ReportWriter
	Logger     *slog.Logger
	// Progress, when set, is called after each batch with the number of
	// batches finished so far.
	Progress func(done, total int)
	Analysis config.AnalysisConfig
}

// AnalyzeStats counts what one classification run did.
type AnalyzeStats struct {
	Batches       int
	FailedBatches int
	Quarantined   int
	Results       int
	ReportRows    int
	ReportWritten bool
}

// NewAnalyzer constructs the batch classifier and merger. The accepted
// product values are the triage keywords plus the absence marker.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	products := append(slices.Clone(deps.Analysis.Keywords), domain.NoCategory)
	return &Analyzer{
		classifier: deps.Classifier,
		quarantine: deps.Quarantine,
		report:     deps.Report,
		logger:     deps.Logger,
		progress:   deps.Progress,
		products:   products,
		sentiments: deps.Analysis.Sentiments,
		painPoints: deps.Analysis.PainPoints,
		batchSize:  deps.Analysis.BatchSize,
		batchDelay: deps.Analysis.BatchDelay.Std(),
	}
}

// Run classifies the candidate set and writes the final table. When every
// batch fails the table is not written and only the quarantine remains.
func (a *Analyzer) Run(ctx context.Context, candidates []domain.TriageCandidate) (AnalyzeStats, error) {
	var stats AnalyzeStats
	if len(candidates) == 0 {
		return stats, nil
	}

	batches := chunkCandidates(candidates, a.batchSize)
	stats.Batches = len(batches)
	a.logger.Info("starting batch classification", "candidates", len(candidates), "batches", len(batches))

	var results []domain.Classification
	for k, batch := range batches {
		records, err := a.classifyBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			a.logger.Error("batch failed, quarantining", "batch", k+1, "rows", len(batch), "error", err)
			if qErr := a.quarantine.AppendBatch(candidateComments(batch)); qErr != nil {
				return stats, fmt.Errorf("quarantine batch %d: %w", k+1, qErr)
			}
			stats.FailedBatches++
			stats.Quarantined += len(batch)
		} else {
			results = append(results, records...)
			a.logger.Info("batch accepted", "batch", k+1, "rows", len(records))
		}

		if a.progress != nil {
			a.progress(k+1, len(batches))
		}
		if k < len(batches)-1 {
			if err := sleepCtx(ctx, a.batchDelay); err != nil {
				return stats, err
			}
		}
	}

	stats.Results = len(results)
	if len(results) == 0 {
		a.logger.Warn("no batch succeeded, final table not written")
		return stats, nil
	}

	rows := mergeResults(results, candidates)
	if err := a.report.Write(rows); err != nil {
		return stats, fmt.Errorf("write final table: %w", err)
	}
	stats.ReportRows = len(rows)
	stats.ReportWritten = true
	a.logger.Info("final table written", "rows", len(rows))
	return stats, nil
}

// classifyBatch submits one batch and checks the response against the data
// contract. Transport, parse, and contract violations are one failure mode.
func (a *Analyzer) classifyBatch(ctx context.Context, batch []domain.TriageCandidate) ([]domain.Classification, error) {
	records, err := a.classifier.ClassifyBatch(ctx, candidateComments(batch))
	if err != nil {
		return nil, err
	}
	if err := a.validateContract(batch, records); err != nil {
		return nil, err
	}
	return records, nil
}

// validateContract enforces the response schema: exactly one record per
// submitted row, ids matching the submitted ids with no strays or repeats,
// and every categorical field inside its enumeration. Record order is not
// required; the merge is keyed.
func (a *Analyzer) validateContract(batch []domain.TriageCandidate, records []domain.Classification) error {
	if len(records) != len(batch) {
		return fmt.Errorf("response has %d records for %d comments", len(records), len(batch))
	}
	seen := make(map[string]bool, len(batch))
	for _, c := range batch {
		seen[c.CommentID] = false
	}
	for _, r := range records {
		done, known := seen[r.CommentID]
		if !known {
			return fmt.Errorf("response names unknown comment %q", r.CommentID)
		}
		if done {
			return fmt.Errorf("response repeats comment %q", r.CommentID)
		}
		seen[r.CommentID] = true

		if !slices.Contains(a.products, r.ProductMentioned) {
			return fmt.Errorf("comment %s: product %q outside taxonomy", r.CommentID, r.ProductMentioned)
		}
		if !slices.Contains(a.sentiments, r.Sentiment) {
			return fmt.Errorf("comment %s: sentiment %q outside taxonomy", r.CommentID, r.Sentiment)
		}
		if !slices.Contains(a.painPoints, r.PainPoint) {
			return fmt.Errorf("comment %s: pain point %q outside taxonomy", r.CommentID, r.PainPoint)
		}
	}
	return nil
}

// mergeResults left-joins classifications onto candidate metadata, anchored
// on the results: a record with no matching candidate keeps empty metadata
// instead of being dropped.
func mergeResults(results []domain.Classification, candidates []domain.TriageCandidate) []domain.AnalyzedComment {
	byID := make(map[string]domain.TriageCandidate, len(candidates))
	for _, c := range candidates {
		byID[canonicalID(c.CommentID)] = c
	}

	rows := make([]domain.AnalyzedComment, 0, len(results))
	for _, r := range results {
		row := domain.AnalyzedComment{Classification: r}
		if c, ok := byID[canonicalID(r.CommentID)]; ok {
			row.Matched = true
			row.Community = c.Community
			row.Author = c.Author
			row.PostScore = c.PostScore
			row.CommentScore = c.CommentScore
			row.RawText = c.RawText
		}
		rows = append(rows, row)
	}
	return rows
}

// canonicalID guards the join against incidental whitespace drift between
// the two data paths.
func canonicalID(id string) string {
	return strings.TrimSpace(id)
}

func chunkCandidates(candidates []domain.TriageCandidate, size int) [][]domain.TriageCandidate {
	var batches [][]domain.TriageCandidate
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		batches = append(batches, candidates[start:end])
	}
	return batches
}

func candidateComments(batch []domain.TriageCandidate) []domain.Comment {
	comments := make([]domain.Comment, 0, len(batch))
	for _, c := range batch {
		comments = append(comments, c.Comment)
	}
	return comments
}
