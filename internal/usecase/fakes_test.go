package usecase

import (
	"context"
	"io"
	"log/slog"

	"commentintel/internal/domain"
	"commentintel/internal/logging"
	"commentintel/internal/ports"
)

func discardLogger() *slog.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

type fakeComment struct {
	id      string
	score   int
	body    string
	author  string
	deleted bool
}

func (c fakeComment) ID() string   { return c.id }
func (c fakeComment) Score() int   { return c.score }
func (c fakeComment) Body() string { return c.body }

func (c fakeComment) Author() (string, bool) {
	if c.deleted {
		return "", false
	}
	return c.author, true
}

type fakePost struct {
	id       string
	score    int
	title    string
	comments []ports.PostComment
	err      error
}

func (p *fakePost) ID() string    { return p.id }
func (p *fakePost) Score() int    { return p.score }
func (p *fakePost) Title() string { return p.title }

func (p *fakePost) Comments(context.Context) ([]ports.PostComment, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.comments, nil
}

type fakeSource struct {
	posts map[string][]ports.Post
	errs  map[string]error
	calls []string
}

func (s *fakeSource) ListPosts(_ context.Context, community string, _ ports.SortMode, _ int) ([]ports.Post, error) {
	s.calls = append(s.calls, community)
	if err := s.errs[community]; err != nil {
		return nil, err
	}
	return s.posts[community], nil
}

// memLedger mimics the CSV ledger: appended rows accumulate and the
// processed set is whatever the test seeds (the real store derives it from
// rows at open time).
type memLedger struct {
	processed map[string]struct{}
	rows      []domain.Comment
	appendErr error
	closed    bool
}

func newMemLedger(processedPosts ...string) *memLedger {
	processed := make(map[string]struct{}, len(processedPosts))
	for _, id := range processedPosts {
		processed[id] = struct{}{}
	}
	return &memLedger{processed: processed}
}

func (l *memLedger) ProcessedPosts() map[string]struct{} { return l.processed }

func (l *memLedger) Append(c domain.Comment) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.rows = append(l.rows, c)
	return nil
}

func (l *memLedger) Close() error {
	l.closed = true
	return nil
}

type memQuarantine struct {
	batches [][]domain.Comment
	err     error
}

func (q *memQuarantine) AppendBatch(batch []domain.Comment) error {
	if q.err != nil {
		return q.err
	}
	q.batches = append(q.batches, batch)
	return nil
}

func (q *memQuarantine) rows() int {
	total := 0
	for _, b := range q.batches {
		total += len(b)
	}
	return total
}

type memReport struct {
	rows   []domain.AnalyzedComment
	writes int
}

func (r *memReport) Write(rows []domain.AnalyzedComment) error {
	r.rows = rows
	r.writes++
	return nil
}

// scriptedClassifier answers each batch in submission order from a script of
// outcomes.
type scriptedClassifier struct {
	script []func(batch []domain.Comment) ([]domain.Classification, error)
	calls  int
}

func (c *scriptedClassifier) ClassifyBatch(_ context.Context, batch []domain.Comment) ([]domain.Classification, error) {
	if c.calls >= len(c.script) {
		panic("classifier called more often than scripted")
	}
	step := c.script[c.calls]
	c.calls++
	return step(batch)
}

// echoClassification answers a batch with a well-formed record per row.
func echoClassification(batch []domain.Comment) ([]domain.Classification, error) {
	records := make([]domain.Classification, 0, len(batch))
	for _, c := range batch {
		records = append(records, domain.Classification{
			CommentID:        c.CommentID,
			ProductMentioned: "grok",
			Sentiment:        "Negative",
			PainPoint:        "Speed",
		})
	}
	return records, nil
}
