package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"commentintel/internal/domain"
	"commentintel/internal/ports"
)

// QuarantineFile appends failed batches to a dead-letter CSV so they survive
// for manual review or replay. The file is created with a header on first
// use and opened per batch; this pipeline never reads it back.
type QuarantineFile struct {
	path string
}

var _ ports.Quarantine = (*QuarantineFile)(nil)

// NewQuarantineFile points at the quarantine store.
func NewQuarantineFile(path string) *QuarantineFile {
	return &QuarantineFile{path: path}
}

// AppendBatch writes every comment of a failed batch verbatim.
func (q *QuarantineFile) AppendBatch(batch []domain.Comment) error {
	file, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open quarantine %s: %w", q.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat quarantine %s: %w", q.path, err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(ledgerColumns); err != nil {
			return fmt.Errorf("write quarantine header: %w", err)
		}
	}
	for _, c := range batch {
		if err := w.Write(commentRecord(c)); err != nil {
			return fmt.Errorf("write quarantine row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush quarantine %s: %w", q.path, err)
	}
	return nil
}

// Exists reports whether any batch has been quarantined at this path.
func (q *QuarantineFile) Exists() bool {
	info, err := os.Stat(q.path)
	return err == nil && info.Size() > 0
}
