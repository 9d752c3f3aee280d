package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/weevil/internal/model"
)

// ReportStore persists run reports.
type ReportStore interface {
	SaveReport(ctx context.Context, path m.Path, report m.Report) error
	LoadReport(ctx context.Context, path m.Path) (m.Report, error)
}

// YAMLReportStore stores reports as YAML documents.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report to path, creating parent directories.
func (s *YAMLReportStore) SaveReport(_ context.Context, path m.Path, report m.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		slog.Error("Failed to create report directory", "path", path, "error", err)
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		slog.Error("Failed to write report", "path", path, "error", err)
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// LoadReport reads a report written by SaveReport.
func (s *YAMLReportStore) LoadReport(_ context.Context, path m.Path) (m.Report, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.Report{}, fmt.Errorf("failed to read report: %w", err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("failed to decode report %s: %w", path, err)
	}

	return report, nil
}
