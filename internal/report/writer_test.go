package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return records
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	w, err := NewWriter(path, 0)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	results := []Result{
		{
			Phone:        "+380501234567",
			Status:       StatusValid,
			Transcript:   "алло, слухаю",
			Reason:       "answered",
			CallSID:      "CA1",
			CallStatus:   "completed",
			RecordingSID: "RE1",
			Timestamp:    ts,
		},
		{
			Phone:         "+380671112233",
			Status:        StatusInvalid,
			Transcript:    "номер не обслуговується",
			MatchedPhrase: "номер не обслуговується",
			Reason:        "carrier message",
			CallSID:       "CA2",
			Timestamp:     ts,
		},
		{
			Phone:     "12",
			Status:    StatusError,
			Error:     "malformed phone number",
			Timestamp: ts,
		},
	}

	for _, r := range results {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	// Rows must be on disk before Close
	if got := readCSV(t, path); len(got) != 4 {
		t.Fatalf("Expected 4 rows flushed before Close, got %d", len(got))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := [][]string{
		Header,
		{"+380501234567", "VALID", "алло, слухаю", "", "answered", "CA1", "completed", "RE1", "", "2026-03-01T12:30:00Z"},
		{"+380671112233", "INVALID", "номер не обслуговується", "номер не обслуговується", "carrier message", "CA2", "", "", "", "2026-03-01T12:30:00Z"},
		{"12", "ERROR", "", "", "", "", "", "", "malformed phone number", "2026-03-01T12:30:00Z"},
	}
	if diff := cmp.Diff(want, readCSV(t, path)); diff != "" {
		t.Errorf("results file mismatch (-want +got):\n%s", diff)
	}

	if w.Path() != path {
		t.Errorf("Path() = %s, want %s", w.Path(), path)
	}
}

func TestWriterSnippet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.Write(Result{Phone: "+380501234567", Status: StatusValid, Transcript: "слухаю вас уважно"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	w.Close()

	records := readCSV(t, path)
	if got := records[1][2]; got != "слуха…" {
		t.Errorf("transcript column = %q, want %q", got, "слуха…")
	}
	if records[1][9] == "" {
		t.Error("zero timestamp should be replaced with the current time")
	}
}

func TestNewWriter_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, []byte("x"), 0644)

	if _, err := NewWriter(filepath.Join(blocker, "results.csv"), 0); err == nil {
		t.Error("Expected error when the parent path is a file")
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"hello", 0, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello…"},
		{"недоступний", 3, "нед…"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := Snippet(tt.text, tt.n); got != tt.want {
			t.Errorf("Snippet(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	var s Summary
	for _, st := range []Status{StatusValid, StatusValid, StatusInvalid, StatusError} {
		s.Add(st)
	}
	s.Skip()

	want := Summary{Total: 5, Valid: 2, Invalid: 1, Errors: 1, Skipped: 1}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()
	for _, line := range []string{"Total numbers: 5", "Valid: 2", "Invalid: 1", "Errors: 1", "Skipped (already validated): 1"} {
		if !strings.Contains(out, line) {
			t.Errorf("Print() output missing %q:\n%s", line, out)
		}
	}
}

func TestResultTerminal(t *testing.T) {
	if !(Result{Status: StatusValid}).Terminal() || !(Result{Status: StatusInvalid}).Terminal() {
		t.Error("VALID and INVALID should be terminal")
	}
	if (Result{Status: StatusError}).Terminal() {
		t.Error("ERROR should not be terminal")
	}
}

func TestDefaultOutputName(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 5, 7, 0, time.UTC)
	if got := DefaultOutputName(now); got != "validation_results_20261016_090507.csv" {
		t.Errorf("DefaultOutputName() = %s", got)
	}
}
