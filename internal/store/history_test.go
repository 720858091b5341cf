package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/phonevalidator/internal/report"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()

	h, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryRecordAndLookup(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()
	ts := time.UnixMilli(1760000000000)

	if _, ok, err := h.Lookup(ctx, "+380501234567"); ok || err != nil {
		t.Fatalf("Lookup() on empty history = %v, %v", ok, err)
	}

	in := report.Result{
		Phone:         "+380501234567",
		Status:        report.StatusInvalid,
		Transcript:    "номер не обслуговується",
		MatchedPhrase: "номер не обслуговується",
		CallSID:       "CA1",
		Timestamp:     ts,
	}
	if err := h.Record(ctx, in); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, ok, err := h.Lookup(ctx, "+380501234567")
	if err != nil || !ok {
		t.Fatalf("Lookup() = %v, %v", ok, err)
	}
	if got.Status != report.StatusInvalid || got.MatchedPhrase != in.MatchedPhrase || got.CallSID != "CA1" {
		t.Errorf("Lookup() = %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestHistoryErrorDoesNotOverwriteVerdict(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	h.Record(ctx, report.Result{Phone: "+380501234567", Status: report.StatusValid, CallSID: "CA1"})
	h.Record(ctx, report.Result{Phone: "+380501234567", Status: report.StatusError, Error: "timeout"})

	got, _, _ := h.Lookup(ctx, "+380501234567")
	if got.Status != report.StatusValid || got.CallSID != "CA1" {
		t.Errorf("ERROR overwrote verdict: %+v", got)
	}

	// A new verdict replaces the old one
	h.Record(ctx, report.Result{Phone: "+380501234567", Status: report.StatusInvalid, CallSID: "CA2"})
	got, _, _ = h.Lookup(ctx, "+380501234567")
	if got.Status != report.StatusInvalid || got.CallSID != "CA2" {
		t.Errorf("verdict not replaced: %+v", got)
	}

	// An ERROR can be replaced by a later ERROR or a verdict
	h.Record(ctx, report.Result{Phone: "+380671112233", Status: report.StatusError})
	h.Record(ctx, report.Result{Phone: "+380671112233", Status: report.StatusValid})
	got, _, _ = h.Lookup(ctx, "+380671112233")
	if got.Status != report.StatusValid {
		t.Errorf("ERROR not replaced by verdict: %+v", got)
	}
}

func TestHistoryValidated(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	h.Record(ctx, report.Result{Phone: "+1", Status: report.StatusValid})
	h.Record(ctx, report.Result{Phone: "+2", Status: report.StatusInvalid})
	h.Record(ctx, report.Result{Phone: "+3", Status: report.StatusError})

	tests := map[string]bool{"+1": true, "+2": true, "+3": false, "+4": false}
	for phone, want := range tests {
		got, err := h.Validated(ctx, phone)
		if err != nil {
			t.Fatalf("Validated(%s) error = %v", phone, err)
		}
		if got != want {
			t.Errorf("Validated(%s) = %v, want %v", phone, got, want)
		}
	}

	counts, err := h.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts[report.StatusValid] != 1 || counts[report.StatusInvalid] != 1 || counts[report.StatusError] != 1 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestHistoryPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	h.Record(context.Background(), report.Result{Phone: "+380501234567", Status: report.StatusValid})
	h.Close()

	h, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer h.Close()

	if ok, _ := h.Validated(context.Background(), "+380501234567"); !ok {
		t.Error("result not persisted")
	}
}
