package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/FocuswithJustin/docfix/core/correct"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	first := Run{ID: "aaaa-1111", StartedAt: base, Command: "apply", Input: "in.docx", InputHash: "h1", Output: "out.docx", Changes: 2}
	second := Run{ID: "bbbb-2222", StartedAt: base.Add(time.Hour), Command: "apply", Input: "in.docx", InputHash: "h2", DryRun: true}

	records := []correct.Record{
		{Rule: "pg19", Paragraph: 19, Kind: correct.Changed, Description: "Fixed page 19", Before: "as a sibling", After: "as a parent"},
		{Rule: "#2", Paragraph: -1, Kind: correct.NoMatch, Description: "search text not found"},
	}
	if err := j.Record(ctx, first, records); err != nil {
		t.Fatalf("Record first: %v", err)
	}
	if err := j.Record(ctx, second, nil); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	runs, err := j.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second.ID || !runs[0].DryRun {
		t.Errorf("newest run = %+v", runs[0])
	}
	if !runs[1].StartedAt.Equal(base) || runs[1].Changes != 2 || runs[1].Output != "out.docx" {
		t.Errorf("oldest run = %+v", runs[1])
	}

	limited, err := j.Runs(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Runs(1) = %v, %v", limited, err)
	}

	id, entries, err := j.Entries(ctx, "aaaa")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if id != first.ID {
		t.Errorf("resolved id = %s", id)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Kind != correct.Changed.String() || entries[0].After != "as a parent" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Seq != 1 || entries[1].Paragraph != -1 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestEntriesUnknownAndDuplicate(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	if _, _, err := j.Entries(ctx, "nope"); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("expected ErrUnknownRun, got %v", err)
	}

	run := Run{ID: "cccc", StartedAt: time.Now(), Command: "apply", Input: "x.docx"}
	if err := j.Record(ctx, run, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, run, nil); err == nil {
		t.Error("expected duplicate run id to fail")
	}

	if err := j.Record(ctx, Run{ID: "cccd", StartedAt: time.Now(), Command: "apply"}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, _, err := j.Entries(ctx, "ccc"); err == nil || errors.Is(err, ErrUnknownRun) {
		t.Errorf("expected ambiguous prefix error, got %v", err)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Record(ctx, Run{ID: "persist", StartedAt: time.Now(), Command: "apply"}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	runs, err := j.Runs(ctx, 0)
	if err != nil || len(runs) != 1 || runs[0].ID != "persist" {
		t.Errorf("Runs after reopen = %v, %v", runs, err)
	}
}
