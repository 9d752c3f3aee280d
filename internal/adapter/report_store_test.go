package adapter

import (
	"context"
	"path/filepath"
	"testing"

	m "gooze.dev/pkg/weevil/internal/model"
)

func TestYAMLReportStore_SaveAndLoad(t *testing.T) {
	store := NewYAMLReportStore()
	path := m.Path(filepath.Join(t.TempDir(), "reports", "v1", "weevil.yaml"))

	report := m.Report{
		ProjectVersion: "v1.0.0",
		Score:          50,
		Summary:        map[string]int{"killed": 1, "survived": 1},
		Mutants: []m.ReportMutant{
			{
				ID:            1,
				Kind:          "arithmetic",
				File:          "calc/calc.go",
				Span:          m.Span{StartOffset: 40, EndOffset: 45, Start: m.Position{Line: 4, Column: 9}, End: m.Position{Line: 4, Column: 14}},
				Original:      "a - b",
				Mutated:       "a + b",
				Status:        "killed",
				CoveringTests: []string{"calc:TestSubtract"},
			},
			{ID: 2, Kind: "comparison", File: "calc/calc.go", Original: "a < b", Mutated: "a <= b", Status: "survived"},
		},
	}

	if err := store.SaveReport(context.Background(), path, report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	loaded, err := store.LoadReport(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}

	if loaded.ProjectVersion != "v1.0.0" || loaded.Score != 50 {
		t.Fatalf("LoadReport() = %+v", loaded)
	}

	if loaded.Summary["killed"] != 1 || loaded.Summary["survived"] != 1 {
		t.Fatalf("LoadReport() summary = %v", loaded.Summary)
	}

	if len(loaded.Mutants) != 2 {
		t.Fatalf("LoadReport() mutants = %d, want 2", len(loaded.Mutants))
	}

	first := loaded.Mutants[0]
	if first.Span != report.Mutants[0].Span || first.Mutated != "a + b" || len(first.CoveringTests) != 1 {
		t.Fatalf("LoadReport() first mutant = %+v", first)
	}
}

func TestYAMLReportStore_LoadMissing(t *testing.T) {
	if _, err := NewYAMLReportStore().LoadReport(context.Background(), m.Path(filepath.Join(t.TempDir(), "absent.yaml"))); err == nil {
		t.Fatalf("LoadReport() expected error for missing file")
	}
}

func TestYAMLReportStore_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeTestFile(t, path, "score: [not a number\n")

	if _, err := NewYAMLReportStore().LoadReport(context.Background(), m.Path(path)); err == nil {
		t.Fatalf("LoadReport() expected error for invalid yaml")
	}
}
