// Package app wires configuration into the two pipeline phases.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"commentintel/internal/config"
	"commentintel/internal/infrastructure/llm"
	"commentintel/internal/infrastructure/reddit"
	"commentintel/internal/infrastructure/storage"
	"commentintel/internal/logging"
	"commentintel/internal/usecase"
)

// App exposes the scrape and analyze phases over a loaded configuration.
type App struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application. Every log line of a run carries a short
// run id so interleaved output from consecutive runs stays attributable.
func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}
	return &App{
		cfg:    cfg,
		logger: logger.With("run", uuid.NewString()[:8]),
	}
}

// Scrape executes the ingestion phase against the live source. The ledger
// handle is closed on every exit path, including interruption.
func (a *App) Scrape(ctx context.Context) (stats usecase.IngestStats, err error) {
	ledger, err := storage.OpenLedger(a.cfg.Scrape.LedgerPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Source: reddit.NewClient("", nil),
		Ledger: ledger,
		Logger: a.logger.With("component", "ingest"),
		Scrape: a.cfg.Scrape,
	})
	return ingestor.Run(ctx)
}

// AnalyzeReport aggregates phase counters for the completion summary.
type AnalyzeReport struct {
	RawRows     int
	Candidates  int
	TriageRatio float64
	usecase.AnalyzeStats
	QuarantineExists bool
}

// Analyze executes triage, batch classification, and the final merge.
// Missing credential and missing ledger are fatal preconditions; an empty
// triage result terminates cleanly before any classification call.
func (a *App) Analyze(ctx context.Context, progress func(done, total int)) (AnalyzeReport, error) {
	var report AnalyzeReport
	if a.cfg.Gemini.APIKey == "" {
		return report, fmt.Errorf("GEMINI_API_KEY is not set; the classification phase cannot start")
	}

	rows, err := storage.NewCommentTable(a.cfg.Scrape.LedgerPath).ReadAll()
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}
	report.RawRows = len(rows)

	triage := usecase.NewTriage(a.cfg.Analysis, a.logger.With("component", "triage"))
	triaged := triage.Run(rows)
	report.Candidates = len(triaged.Candidates)
	report.TriageRatio = triaged.Ratio
	if len(triaged.Candidates) == 0 {
		a.logger.Info("no comments matched triage, nothing to classify")
		return report, nil
	}

	quarantine := storage.NewQuarantineFile(a.cfg.Analysis.QuarantinePath)
	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Classifier: llm.NewGeminiClient(a.cfg.Gemini, llm.Taxonomy{
			Keywords:   a.cfg.Analysis.Keywords,
			Sentiments: a.cfg.Analysis.Sentiments,
			PainPoints: a.cfg.Analysis.PainPoints,
		}),
		Quarantine: quarantine,
		Report:     storage.NewReportFile(a.cfg.Analysis.OutputPath),
		Logger:     a.logger.With("component", "analyze"),
		Progress:   progress,
		Analysis:   a.cfg.Analysis,
	})

	stats, err := analyzer.Run(ctx, triaged.Candidates)
	report.AnalyzeStats = stats
	report.QuarantineExists = quarantine.Exists()
	if report.QuarantineExists {
		a.logger.Warn("some batches failed classification; review the quarantine file",
			"path", a.cfg.Analysis.QuarantinePath)
	}
	return report, err
}
