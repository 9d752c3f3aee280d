package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path"
	"slices"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	m "gooze.dev/pkg/weevil/internal/model"
)

const devNull = "/dev/null"

// DiffAdapter retrieves the files changed relative to a baseline reference.
type DiffAdapter interface {
	ScanDiff(ctx context.Context, root m.Path, baseline string) (m.DiffResult, error)
}

// GitDiffAdapter reads changes with git diff.
type GitDiffAdapter struct {
	gitBin string
}

// NewGitDiffAdapter constructs a GitDiffAdapter using git on PATH.
func NewGitDiffAdapter() *GitDiffAdapter {
	return &GitDiffAdapter{gitBin: "git"}
}

// ScanDiff runs git diff against baseline from root and splits the touched
// files into source and test files.
func (a *GitDiffAdapter) ScanDiff(ctx context.Context, root m.Path, baseline string) (m.DiffResult, error) {
	if baseline == "" {
		return m.DiffResult{}, fmt.Errorf("since target is empty")
	}

	// #nosec G204 - baseline is a git revision from configuration
	cmd := exec.CommandContext(ctx, a.gitBin, "diff", "--relative", "--no-color", "--no-ext-diff", baseline, "--")
	cmd.Dir = string(root)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("Failed to run git diff", "baseline", baseline, "stderr", stderr.String(), "error", err)
		return m.DiffResult{}, fmt.Errorf("git diff %s: %w: %s", baseline, err, strings.TrimSpace(stderr.String()))
	}

	return ParseDiff(stdout.Bytes())
}

// ParseDiff classifies the files of a unified multi-file diff.
func ParseDiff(data []byte) (m.DiffResult, error) {
	fileDiffs, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return m.DiffResult{}, fmt.Errorf("failed to parse diff: %w", err)
	}

	var result m.DiffResult

	for _, fd := range fileDiffs {
		for _, name := range changedNames(fd) {
			switch {
			case IsTestAffecting(name):
				result.ChangedTestFiles = appendUnique(result.ChangedTestFiles, name)
			case strings.HasSuffix(string(name), ".go"):
				result.ChangedSourceFiles = appendUnique(result.ChangedSourceFiles, name)
			}
		}
	}

	slices.Sort(result.ChangedSourceFiles)
	slices.Sort(result.ChangedTestFiles)

	return result, nil
}

// changedNames returns the paths a file diff touches; a rename touches both.
func changedNames(fd *diff.FileDiff) []m.Path {
	var names []m.Path

	for _, side := range []struct{ raw, prefix string }{{fd.OrigName, "a/"}, {fd.NewName, "b/"}} {
		if side.raw == "" || side.raw == devNull {
			continue
		}

		name := strings.TrimPrefix(side.raw, side.prefix)
		names = appendUnique(names, m.Path(path.Clean(name)))
	}

	return names
}

// IsTestAffecting reports whether file is tracked as a test change: a _test.go
// file, anything under testdata, or the module definition.
func IsTestAffecting(file m.Path) bool {
	name := string(file)
	base := path.Base(name)

	if strings.HasSuffix(base, "_test.go") || base == "go.mod" || base == "go.sum" {
		return true
	}

	return slices.Contains(strings.Split(name, "/"), "testdata")
}

func appendUnique(paths []m.Path, p m.Path) []m.Path {
	if slices.Contains(paths, p) {
		return paths
	}

	return append(paths, p)
}
