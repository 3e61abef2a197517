package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/irinasmt/rcabrain/internal/models"
)

func TestMemoryStoreSaveGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rep := &models.RcaReport{IncidentID: "inc-1", Status: models.ReportCompleted, CriticScore: 0.86}
	if err := store.Save(ctx, rep); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Get(ctx, "inc-1")
	if err != nil || !ok {
		t.Fatalf("expected stored report, ok=%v err=%v", ok, err)
	}
	if got.CriticScore != 0.86 || got.Status != models.ReportCompleted {
		t.Fatalf("unexpected report: %+v", got)
	}
	if _, ok, _ := store.Get(ctx, "missing"); ok {
		t.Fatal("did not expect a report for an unknown incident")
	}
}

func TestWriteLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "report.json")
	rep := &models.RcaReport{
		IncidentID:    "inc-2",
		Status:        models.ReportEscalated,
		CriticScore:   0.58,
		FixConfidence: 0.56,
		Hypotheses:    []models.Hypothesis{{Title: "Traffic or dependency instability", Confidence: 0.62}},
		Metadata:      map[string]any{"iteration": 2},
	}
	savedAt := time.Date(2026, 2, 22, 10, 5, 0, 0, time.UTC)
	if err := WriteLog(path, rep, savedAt); err != nil {
		t.Fatalf("write log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var doc struct {
		SavedAt string            `json:"saved_at"`
		Report  *models.RcaReport `json:"report"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if doc.SavedAt != "2026-02-22T10:05:00Z" {
		t.Fatalf("unexpected saved_at: %q", doc.SavedAt)
	}
	if doc.Report == nil || doc.Report.IncidentID != "inc-2" || doc.Report.Status != models.ReportEscalated {
		t.Fatalf("unexpected report payload: %+v", doc.Report)
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rep := &models.RcaReport{IncidentID: "inc-3", Status: models.ReportFailed, Errors: []string{"cancelled: context canceled"}}
	if err := store.Save(ctx, rep); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Get(ctx, "inc-3")
	if err != nil || !ok {
		t.Fatalf("expected stored report, ok=%v err=%v", ok, err)
	}
	if got.Status != models.ReportFailed || len(got.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
}
