package report

import (
	"fmt"
	"io"
	"time"
)

// Status is the verdict for one phone number
type Status string

const (
	StatusValid   Status = "VALID"
	StatusInvalid Status = "INVALID"
	StatusError   Status = "ERROR"
)

// Result is the outcome of validating one phone number
type Result struct {
	Phone         string
	Status        Status
	Transcript    string
	MatchedPhrase string
	Reason        string
	CallSID       string
	CallStatus    string
	RecordingSID  string
	Error         string
	Timestamp     time.Time
}

// Terminal reports whether the result is a verdict about the number itself
func (r Result) Terminal() bool {
	return r.Status == StatusValid || r.Status == StatusInvalid
}

// Summary counts results of a batch run
type Summary struct {
	Total   int
	Valid   int
	Invalid int
	Errors  int
	Skipped int
}

// Add counts one result
func (s *Summary) Add(status Status) {
	s.Total++
	switch status {
	case StatusValid:
		s.Valid++
	case StatusInvalid:
		s.Invalid++
	default:
		s.Errors++
	}
}

// Skip counts a number that was not dialed because it was already validated
func (s *Summary) Skip() {
	s.Total++
	s.Skipped++
}

// Print writes a human readable summary
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Validation Summary ===\n")
	fmt.Fprintf(w, "Total numbers: %d\n", s.Total)
	fmt.Fprintf(w, "Valid: %d\n", s.Valid)
	fmt.Fprintf(w, "Invalid: %d\n", s.Invalid)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "Skipped (already validated): %d\n", s.Skipped)
	}
	fmt.Fprintf(w, "==========================\n")
}

// DefaultOutputName returns the timestamped results file name
func DefaultOutputName(now time.Time) string {
	return fmt.Sprintf("validation_results_%s.csv", now.Format("20060102_150405"))
}
