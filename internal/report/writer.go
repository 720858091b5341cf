package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"
)

// Header is the column layout of the results file
var Header = []string{
	"phone",
	"status",
	"transcribed_text",
	"matched_phrase",
	"reason",
	"call_sid",
	"call_status",
	"recording_sid",
	"error",
	"timestamp",
}

// Writer appends results to a CSV file, flushing after each row so that an
// interrupted batch keeps everything written so far
type Writer struct {
	mu            sync.Mutex
	file          *os.File
	csv           *csv.Writer
	snippetLength int
	path          string
}

// NewWriter creates the output file and writes the header.
// snippetLength limits the transcript column in runes; 0 keeps it whole.
func NewWriter(path string, snippetLength int) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}

	w := &Writer{
		file:          file,
		csv:           csv.NewWriter(file),
		snippetLength: snippetLength,
		path:          path,
	}

	if err := w.writeRecord(Header); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// Path returns the output file path
func (w *Writer) Path() string {
	return w.path
}

// Write appends one result row and flushes it to disk
func (w *Writer) Write(r Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writeRecord(w.record(r))
}

// Close flushes and closes the file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush results: %w", err)
	}
	return w.file.Close()
}

func (w *Writer) writeRecord(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write results row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush results row: %w", err)
	}
	return w.file.Sync()
}

func (w *Writer) record(r Result) []string {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return []string{
		r.Phone,
		string(r.Status),
		Snippet(r.Transcript, w.snippetLength),
		r.MatchedPhrase,
		r.Reason,
		r.CallSID,
		r.CallStatus,
		r.RecordingSID,
		r.Error,
		ts.Format(time.RFC3339),
	}
}

// Snippet cuts text to at most n runes, marking the cut with an ellipsis
func Snippet(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
