package usecase

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"commentintel/internal/config"
	"commentintel/internal/domain"
	"commentintel/internal/sanitize"
)

// Triage applies the deterministic row filters that decide which ledger rows
// are worth a classification call: substantive text, human author, at least
// one keyword hit, and a raw length under the cap.
type Triage struct {
	keywords  []string
	maxLength int
	logger    *slog.Logger
}

// TriageResult is the reduced candidate set plus the funnel diagnostic.
type TriageResult struct {
	Candidates []domain.TriageCandidate
	Total      int
	Ratio      float64
}

// NewTriage lowercases the keyword set once up front.
func NewTriage(cfg config.AnalysisConfig, logger *slog.Logger) *Triage {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		keywords = append(keywords, strings.ToLower(kw))
	}
	return &Triage{
		keywords:  keywords,
		maxLength: cfg.MaxCommentLength,
		logger:    logger,
	}
}

// Run filters the raw rows. The output is always a subset of the input; an
// empty result is a valid terminal state for the pipeline.
func (t *Triage) Run(rows []domain.Comment) TriageResult {
	result := TriageResult{Total: len(rows)}

	for _, row := range rows {
		if row.RawText == "" {
			continue
		}
		if row.RawText == domain.DeletedBody || row.RawText == domain.RemovedBody {
			continue
		}
		if isAutomatedAuthor(row.Author) {
			continue
		}
		normalized := sanitize.ForTriage(row.RawText)
		if !containsAnyKeyword(normalized, t.keywords) {
			continue
		}
		// The cap guards the batch payload against pathological inputs and
		// applies to the original text, not the normalized form.
		if utf8.RuneCountInString(row.RawText) >= t.maxLength {
			continue
		}
		result.Candidates = append(result.Candidates, domain.TriageCandidate{
			Comment:    row,
			Normalized: normalized,
		})
	}

	if result.Total > 0 {
		result.Ratio = float64(len(result.Candidates)) / float64(result.Total)
	}
	t.logger.Info("triage complete",
		"raw", result.Total,
		"kept", len(result.Candidates),
		"kept_pct", int(result.Ratio*100))
	return result
}

func isAutomatedAuthor(author string) bool {
	if author == "" {
		return false
	}
	lower := strings.ToLower(author)
	return strings.Contains(lower, "bot") || strings.Contains(lower, "automoderator")
}

func containsAnyKeyword(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
