package store

import (
	"path/filepath"
	"testing"
)

func TestRunStore_RecordAndQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs_test.db")
	s, err := NewRunStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	rec := RunRecord{
		Session:  "session_20260825_120000",
		Request:  "find Go news and summarize",
		State:    "completed",
		Planned:  2,
		Executed: 2,
	}
	steps := []StepRecord{
		{Ref: "search_results", Content: "1. Go 1.25 released"},
		{Ref: "summary", Content: "Go 1.25 is out."},
	}
	if err := s.RecordRun(rec, steps); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	halted := RunRecord{
		Session:  "session_20260825_120500",
		Request:  "fetch a dead link",
		State:    "halted",
		Reason:   "step 1 failed: connection refused",
		Planned:  1,
		Executed: 1,
	}
	if err := s.RecordRun(halted, []StepRecord{{Ref: "page", Failed: true, Content: "connection refused"}}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	n, err := s.CountRuns()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountRuns = %d, want 2", n)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns returned %d runs, want 2", len(runs))
	}
	// Newest first.
	if runs[0].State != "halted" || runs[0].Reason == "" {
		t.Errorf("first run = %+v, want the halted one", runs[0])
	}
	if runs[1].Request != "find Go news and summarize" {
		t.Errorf("second run = %+v", runs[1])
	}
}
