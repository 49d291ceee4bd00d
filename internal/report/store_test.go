package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		TargetDir:   "/media/card",
		CatalogDesc: "ubuweb",
		Banks:       16,
		Stations:    12,
		Seed:        42,
	}
	if err := store.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	rows := []Row{
		{RunID: run.ID, Bank: 0, Station: 0, Outcome: OutcomeDone, OutputPath: "/media/card/00/00.wav", ClipCount: 9, FillSeconds: 1799.4},
		{RunID: run.ID, Bank: 0, Station: 1, Outcome: OutcomeUnderfilled, OutputPath: "/media/card/00/01.wav", ClipCount: 2, FillSeconds: 410},
		{RunID: run.ID, Bank: 0, Station: 2, Outcome: OutcomeFailed, Error: "clip unavailable: assembler: x"},
		{RunID: run.ID, Bank: 0, Station: 3, Outcome: OutcomeSkipped},
	}
	for _, row := range rows {
		if err := store.RecordStation(ctx, row); err != nil {
			t.Fatalf("RecordStation: %v", err)
		}
	}
	if err := store.FinishRun(ctx, run.ID, time.Now().UTC()); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	gotRun, gotRows, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if gotRun == nil || gotRun.ID != run.ID {
		t.Fatalf("unexpected run: %+v", gotRun)
	}
	if gotRun.FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}
	if len(gotRows) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(gotRows), len(rows))
	}
	if gotRows[2].Outcome != OutcomeFailed || gotRows[2].Error == "" {
		t.Fatalf("failure row lost detail: %+v", gotRows[2])
	}
	if gotRows[0].FillSeconds != 1799.4 || gotRows[0].ClipCount != 9 {
		t.Fatalf("numeric fields lost: %+v", gotRows[0])
	}
}

func TestLastRunPicksMostRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := Run{ID: uuid.NewString(), StartedAt: time.Now().Add(-time.Hour), TargetDir: "/a", CatalogDesc: "dir"}
	newer := Run{ID: uuid.NewString(), StartedAt: time.Now(), TargetDir: "/b", CatalogDesc: "dir"}
	if err := store.BeginRun(ctx, older); err != nil {
		t.Fatalf("BeginRun older: %v", err)
	}
	if err := store.BeginRun(ctx, newer); err != nil {
		t.Fatalf("BeginRun newer: %v", err)
	}

	got, _, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if got.ID != newer.ID {
		t.Fatalf("expected newest run %s, got %s", newer.ID, got.ID)
	}
}

func TestLastRunEmptyDatabase(t *testing.T) {
	store := openTestStore(t)
	run, rows, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run != nil || rows != nil {
		t.Fatal("expected empty result on fresh database")
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	store := openTestStore(t)
	if err := store.FinishRun(context.Background(), "missing", time.Now()); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestOutcomeSucceeded(t *testing.T) {
	if !OutcomeDone.Succeeded() || !OutcomeUnderfilled.Succeeded() {
		t.Fatal("done and underfilled are successes")
	}
	if OutcomeFailed.Succeeded() || OutcomeSkipped.Succeeded() {
		t.Fatal("failed and skipped are not successes")
	}
}
