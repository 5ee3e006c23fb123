package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// NotifyLog appends one CSV row per dispatched notification. It is an
// optional operator audit trail, separate from the dedup ledger.
// It is safe for concurrent use.
type NotifyLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewNotifyLog opens (or creates) the CSV file at the given path in
// append mode. The header row is written only when the file is new.
// Intermediate directories are created automatically.
func NewNotifyLog(path string) (*NotifyLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write([]string{"title", "source", "link", "sent_at"}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &NotifyLog{file: f, writer: w}, nil
}

// Record appends one dispatched notification to the log.
func (n *NotifyLog) Record(title, source, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	row := []string{title, source, link, time.Now().Format(time.RFC3339)}
	if err := n.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	n.writer.Flush()
	return n.writer.Error()
}

// Close flushes and closes the underlying file.
func (n *NotifyLog) Close() error {
	n.writer.Flush()
	return n.file.Close()
}
