package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"commentintel/internal/domain"
)

func candidates(n int) []domain.TriageCandidate {
	out := make([]domain.TriageCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.TriageCandidate{
			Comment: domain.Comment{
				CommentID:    fmt.Sprintf("c%03d", i),
				PostID:       "p1",
				Community:    "grok",
				Author:       "alice",
				PostScore:    1,
				CommentScore: 2,
				RawText:      "grok is slow",
			},
			Normalized: "grok is slow",
		})
	}
	return out
}

func newTestAnalyzer(classifier *scriptedClassifier, quarantine *memQuarantine, report *memReport) *Analyzer {
	return NewAnalyzer(AnalyzerDeps{
		Classifier: classifier,
		Quarantine: quarantine,
		Report:     report,
		Logger:     discardLogger(),
		Analysis:   analysisConfig(),
	})
}

func TestAnalyzeFullSuccess(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{script: []func([]domain.Comment) ([]domain.Classification, error){
		echoClassification,
		echoClassification,
		echoClassification,
	}}
	quarantine := &memQuarantine{}
	report := &memReport{}

	input := candidates(120) // batch size 50 -> batches of 50, 50, 20
	stats, err := newTestAnalyzer(classifier, quarantine, report).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.Batches != 3 || stats.FailedBatches != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.ReportWritten || stats.ReportRows != 120 {
		t.Fatalf("expected a 120-row table, got %+v", stats)
	}
	if len(report.rows) != len(input) {
		t.Fatalf("final table rows %d != triage output %d", len(report.rows), len(input))
	}
	for i, row := range report.rows {
		if row.CommentID != input[i].CommentID {
			t.Fatalf("row %d out of order: %s != %s", i, row.CommentID, input[i].CommentID)
		}
		if !row.Matched || row.Community != "grok" || row.RawText != "grok is slow" {
			t.Fatalf("row %d lost its metadata: %+v", i, row)
		}
	}
	if len(quarantine.batches) != 0 {
		t.Fatalf("nothing should be quarantined on success")
	}
}

func TestAnalyzePartialFailureIsolation(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{script: []func([]domain.Comment) ([]domain.Classification, error){
		echoClassification,
		func([]domain.Comment) ([]domain.Classification, error) {
			return nil, errors.New("model unavailable")
		},
		echoClassification,
	}}
	quarantine := &memQuarantine{}
	report := &memReport{}

	stats, err := newTestAnalyzer(classifier, quarantine, report).Run(context.Background(), candidates(120))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.FailedBatches != 1 || stats.Quarantined != 50 {
		t.Fatalf("unexpected failure accounting: %+v", stats)
	}
	if quarantine.rows() != 50 {
		t.Fatalf("quarantine should hold exactly the failed batch, has %d rows", quarantine.rows())
	}
	// The failed batch is rows 50..99.
	if got := quarantine.batches[0][0].CommentID; got != "c050" {
		t.Fatalf("wrong batch quarantined, first id %s", got)
	}
	if stats.Results != 70 || stats.ReportRows != 70 {
		t.Fatalf("expected 70 surviving rows, got %+v", stats)
	}
	for _, row := range report.rows {
		if row.CommentID >= "c050" && row.CommentID <= "c099" {
			t.Fatalf("quarantined row %s leaked into the final table", row.CommentID)
		}
	}
}

func TestAnalyzeAllBatchesFailWritesNoTable(t *testing.T) {
	t.Parallel()

	fail := func([]domain.Comment) ([]domain.Classification, error) {
		return nil, errors.New("down")
	}
	classifier := &scriptedClassifier{script: []func([]domain.Comment) ([]domain.Classification, error){fail, fail, fail}}
	quarantine := &memQuarantine{}
	report := &memReport{}

	stats, err := newTestAnalyzer(classifier, quarantine, report).Run(context.Background(), candidates(120))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.writes != 0 || stats.ReportWritten {
		t.Fatalf("no table must be written when every batch fails")
	}
	if quarantine.rows() != 120 {
		t.Fatalf("expected all 120 rows quarantined, got %d", quarantine.rows())
	}
}

func TestAnalyzeContractViolationsQuarantineBatch(t *testing.T) {
	t.Parallel()

	violations := map[string]func(batch []domain.Comment) ([]domain.Classification, error){
		"short response": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			return records[:len(records)-1], nil
		},
		"stray id": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			records[0].CommentID = "not-submitted"
			return records, nil
		},
		"duplicate id": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			records[1].CommentID = records[0].CommentID
			return records, nil
		},
		"bad sentiment": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			records[0].Sentiment = "Ecstatic"
			return records, nil
		},
		"bad pain point": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			records[0].PainPoint = "Vibes"
			return records, nil
		},
		"bad product": func(batch []domain.Comment) ([]domain.Classification, error) {
			records, _ := echoClassification(batch)
			records[0].ProductMentioned = "some other tool"
			return records, nil
		},
	}

	for name, step := range violations {
		step := step
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			classifier := &scriptedClassifier{script: []func([]domain.Comment) ([]domain.Classification, error){step}}
			quarantine := &memQuarantine{}
			report := &memReport{}

			stats, err := newTestAnalyzer(classifier, quarantine, report).Run(context.Background(), candidates(10))
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if stats.FailedBatches != 1 || quarantine.rows() != 10 {
				t.Fatalf("violation should quarantine the whole batch: %+v", stats)
			}
			if report.writes != 0 {
				t.Fatalf("no partially-valid rows may reach the table")
			}
		})
	}
}

func TestAnalyzeUnmatchedResultKeepsRowWithoutMetadata(t *testing.T) {
	t.Parallel()

	rows := mergeResults(
		[]domain.Classification{
			{CommentID: "c000", ProductMentioned: "grok", Sentiment: "Negative", PainPoint: "Speed"},
			{CommentID: "ghost", ProductMentioned: "N/A", Sentiment: "Neutral", PainPoint: "N/A"},
		},
		candidates(1),
	)

	if len(rows) != 2 {
		t.Fatalf("left join must keep unmatched results, got %d rows", len(rows))
	}
	if !rows[0].Matched || rows[0].Community != "grok" {
		t.Fatalf("matched row lost metadata: %+v", rows[0])
	}
	if rows[1].Matched || rows[1].Community != "" {
		t.Fatalf("unmatched row should carry empty metadata: %+v", rows[1])
	}
}

func TestAnalyzeEmptyCandidates(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{}
	report := &memReport{}
	stats, err := newTestAnalyzer(classifier, &memQuarantine{}, report).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if classifier.calls != 0 {
		t.Fatalf("no classification call may happen for an empty candidate set")
	}
	if stats.Batches != 0 || report.writes != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAnalyzeProgressCallback(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{script: []func([]domain.Comment) ([]domain.Classification, error){
		echoClassification, echoClassification, echoClassification,
	}}
	var seen []int
	analyzer := NewAnalyzer(AnalyzerDeps{
		Classifier: classifier,
		Quarantine: &memQuarantine{},
		Report:     &memReport{},
		Logger:     discardLogger(),
		Progress: func(done, total int) {
			if total != 3 {
				t.Errorf("expected total 3, got %d", total)
			}
			seen = append(seen, done)
		},
		Analysis: analysisConfig(),
	})

	if _, err := analyzer.Run(context.Background(), candidates(120)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("unexpected progress sequence: %v", seen)
	}
}
