package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"commentintel/internal/app"
	"commentintel/internal/usecase"
)

func renderScrapeSummary(stats usecase.IngestStats) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Scrape", "Count"})
	t.AppendRows([]table.Row{
		{"posts processed", stats.PostsProcessed},
		{"posts skipped (resume)", stats.PostsSkipped},
		{"comments saved", stats.CommentsSaved},
	})
	return t.Render()
}

func renderAnalyzeSummary(report app.AnalyzeReport) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Analysis", "Count"})
	t.AppendRows([]table.Row{
		{"ledger rows", report.RawRows},
		{"triage candidates", report.Candidates},
		{"triage kept", fmt.Sprintf("%.1f%%", report.TriageRatio*100)},
		{"batches", report.Batches},
		{"batches failed", report.FailedBatches},
		{"rows quarantined", report.Quarantined},
		{"final table rows", report.ReportRows},
	})
	out := t.Render()
	if report.QuarantineExists {
		out += "\nWARNING: some batches failed classification; review the quarantine file."
	}
	if !report.ReportWritten && report.Candidates > 0 {
		out += "\nNo final table was written."
	}
	return out
}
