// Package orderlog appends finalized orders to a textual, append-only file.
package orderlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fastreseller/orderbot/internal/order"
)

// IOError reports a failed append. Appends happen after the seller was
// already notified, so callers report it to the operator rather than
// the user.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("orderlog: append to %s failed: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Code returns a stable error identifier for structured logs.
func (e *IOError) Code() string { return "ORDER_LOG_IO" }

// Log is an append-only order record file. Records are written once and
// never rewritten; rotation and retention belong to the operator.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens (or creates) the order log for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return &Log{path: path, f: f}, nil
}

// Append writes one record as a single line:
//
//	2026-08-31T10:00:00Z - mario (7) - Cuffie Wireless Modello X x2 - Via Roma 1 - 90 € - ref
func (l *Log) Append(rec order.Record) error {
	line := FormatLine(rec)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return &IOError{Path: l.path, Err: os.ErrClosed}
	}
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return &IOError{Path: l.path, Err: err}
	}
	return nil
}

// FormatLine renders the canonical record line.
func FormatLine(rec order.Record) string {
	user := rec.Username
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("%s - %s (%d) - %s x%d - %s - %d € - %s",
		rec.Time.UTC().Format(time.RFC3339),
		user,
		rec.UserID,
		rec.Product,
		rec.Quantity,
		rec.Details,
		rec.Total,
		rec.Ref,
	)
}

// Close syncs and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &IOError{Path: l.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: l.path, Err: err}
	}
	return nil
}
