// Package storage persists pipeline data as delimited UTF-8 tables: the
// append-only comment ledger, the quarantine store for failed batches, and
// the final analyst table.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gofrs/flock"

	"commentintel/internal/domain"
	"commentintel/internal/ports"
)

var ledgerColumns = []string{
	"Comment_ID",
	"Post_ID",
	"Subreddit",
	"Author",
	"Post_Score",
	"Comment_Score",
	"Raw_Text",
}

// Ledger is the append-only CSV comment table. One Ledger owns the file
// handle and an advisory lock for the duration of a run; the resume protocol
// is append-only writes plus a restart-time rescan, so a second concurrent
// writer must be rejected rather than coordinated with.
type Ledger struct {
	path      string
	lock      *flock.Flock
	file      *os.File
	w         *csv.Writer
	processed map[string]struct{}
}

var _ ports.Ledger = (*Ledger)(nil)

// OpenLedger locks the ledger, rebuilds the processed-post set from any
// existing rows, and opens the file for appending. The header is written
// only when the file is new or empty. A malformed existing file yields an
// empty set rather than an error.
func OpenLedger(path string) (*Ledger, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock ledger %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("ledger %s is in use by another run", path)
	}

	processed := scanProcessedPosts(path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	l := &Ledger{
		path:      path,
		lock:      lock,
		file:      file,
		w:         csv.NewWriter(file),
		processed: processed,
	}

	if err := l.writeHeaderIfEmpty(); err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return l, nil
}

// ProcessedPosts returns the post ids found in the ledger at open time. The
// caller owns the returned set.
func (l *Ledger) ProcessedPosts() map[string]struct{} {
	return l.processed
}

// Append writes one comment row and flushes it to the file, so a crash
// between appends loses at most the row in flight.
func (l *Ledger) Append(c domain.Comment) error {
	if err := l.w.Write(commentRecord(c)); err != nil {
		return fmt.Errorf("append to ledger %s: %w", l.path, err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush ledger %s: %w", l.path, err)
	}
	return nil
}

// Close flushes, releases the lock, and closes the file. Safe to call on
// every exit path.
func (l *Ledger) Close() error {
	l.w.Flush()
	flushErr := l.w.Error()
	closeErr := l.file.Close()
	unlockErr := l.lock.Unlock()
	if flushErr != nil {
		return fmt.Errorf("flush ledger %s: %w", l.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, closeErr)
	}
	if unlockErr != nil {
		return fmt.Errorf("unlock ledger %s: %w", l.path, unlockErr)
	}
	return nil
}

func (l *Ledger) writeHeaderIfEmpty() error {
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger %s: %w", l.path, err)
	}
	if info.Size() > 0 {
		return nil
	}
	if err := l.w.Write(ledgerColumns); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	return nil
}

// scanProcessedPosts collects column 1 (Post_ID) of every existing data row.
// Any read problem terminates the scan with whatever was collected so far; a
// missing, empty, or garbled file simply means nothing to resume from.
func scanProcessedPosts(path string) map[string]struct{} {
	processed := make(map[string]struct{})

	file, err := os.Open(path)
	if err != nil {
		return processed
	}
	defer file.Close()

	r := newLenientReader(file)
	if _, err := r.Read(); err != nil { // header
		return processed
	}
	for {
		row, err := r.Read()
		if err != nil {
			return processed
		}
		if len(row) > 1 {
			processed[row[1]] = struct{}{}
		}
	}
}

// CommentTable reads a ledger file without taking the append lock; the
// analysis phase only consumes it.
type CommentTable struct {
	path string
}

var _ ports.LedgerReader = (*CommentTable)(nil)

// NewCommentTable points at an existing ledger file.
func NewCommentTable(path string) *CommentTable {
	return &CommentTable{path: path}
}

// ReadAll parses every data row into a Comment. A missing file is an error:
// analysis without an ingested ledger is a precondition failure. Rows with
// too few columns are skipped; scores that fail to parse load as zero.
func (t *CommentTable) ReadAll() ([]domain.Comment, error) {
	file, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", t.path, err)
	}
	defer file.Close()

	r := newLenientReader(file)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger header %s: %w", t.path, err)
	}

	var rows []domain.Comment
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger %s: %w", t.path, err)
		}
		if len(row) < len(ledgerColumns) {
			continue
		}
		rows = append(rows, commentFromRecord(row))
	}
}

func newLenientReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func commentRecord(c domain.Comment) []string {
	return []string{
		c.CommentID,
		c.PostID,
		c.Community,
		c.Author,
		strconv.Itoa(c.PostScore),
		strconv.Itoa(c.CommentScore),
		c.RawText,
	}
}

func commentFromRecord(row []string) domain.Comment {
	postScore, _ := strconv.Atoi(row[4])
	commentScore, _ := strconv.Atoi(row[5])
	return domain.Comment{
		CommentID:    row[0],
		PostID:       row[1],
		Community:    row[2],
		Author:       row[3],
		PostScore:    postScore,
		CommentScore: commentScore,
		RawText:      row[6],
	}
}
