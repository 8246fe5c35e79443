package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"commentintel/internal/domain"
	"commentintel/internal/ports"
)

var reportColumns = []string{
	"Comment_ID",
	"Subreddit",
	"Author",
	"Post_Score",
	"Comment_Score",
	"product_mentioned",
	"sentiment",
	"pain_point",
	"Raw_Text",
}

// ReportFile writes the final analyst table. Each successful completion
// replaces the previous output in full; this stage is not resumable.
type ReportFile struct {
	path string
}

var _ ports.ReportWriter = (*ReportFile)(nil)

// NewReportFile points at the final output table.
func NewReportFile(path string) *ReportFile {
	return &ReportFile{path: path}
}

// Write truncates the file and emits the header plus one row per analyzed
// comment. Metadata cells stay empty for rows the merge could not match.
func (r *ReportFile) Write(rows []domain.AnalyzedComment) error {
	file, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", r.path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(reportColumns); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(reportRecord(row)); err != nil {
			return fmt.Errorf("write report row %s: %w", row.CommentID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report %s: %w", r.path, err)
	}
	return nil
}

func reportRecord(row domain.AnalyzedComment) []string {
	community, author, postScore, commentScore, rawText := "", "", "", "", ""
	if row.Matched {
		community = row.Community
		author = row.Author
		postScore = strconv.Itoa(row.PostScore)
		commentScore = strconv.Itoa(row.CommentScore)
		rawText = row.RawText
	}
	return []string{
		row.CommentID,
		community,
		author,
		postScore,
		commentScore,
		row.ProductMentioned,
		row.Sentiment,
		row.PainPoint,
		rawText,
	}
}
