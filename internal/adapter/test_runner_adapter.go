package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	m "gooze.dev/pkg/weevil/internal/model"
)

const (
	// ActiveMutantEnv selects the mutant a test process runs with; 0 keeps the original code.
	ActiveMutantEnv = "WEEVIL_ACTIVE_MUTANT"
	// CoverageFileEnv names the file guards append their mutant ids to when reached.
	CoverageFileEnv = "WEEVIL_COVERAGE_FILE"
)

var verdictLine = regexp.MustCompile(`^--- (PASS|FAIL|SKIP): (\S+) \(([\d.]+)s\)`)

// TestRunnerAdapter abstracts test execution operations for mutation testing.
type TestRunnerAdapter interface {
	// RunTests executes the requested tests of one compiled test binary.
	RunTests(ctx context.Context, req m.TestRunRequest) (m.TestRunResult, error)
}

// LocalTestRunnerAdapter runs test binaries with os/exec.
type LocalTestRunnerAdapter struct {
	waitDelay time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter.
func NewLocalTestRunnerAdapter() *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{
		waitDelay: 2 * time.Second,
	}
}

// RunTests runs the binary with a -test.run filter matching exactly the
// requested tests. Tests with no verdict are TimedOut when the deadline hit and
// Errored otherwise.
func (a *LocalTestRunnerAdapter) RunTests(ctx context.Context, req m.TestRunRequest) (m.TestRunResult, error) {
	if len(req.Tests) == 0 {
		return m.TestRunResult{Outcomes: map[string]m.TestOutcome{}, Durations: map[string]time.Duration{}}, nil
	}

	runCtx := ctx

	if req.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// #nosec G204 - binary was produced by the compiler adapter
	cmd := exec.CommandContext(runCtx, string(req.Binary), testArgs(req)...)
	cmd.Dir = string(req.WorkDir)
	cmd.Env = append(os.Environ(), ActiveMutantEnv+"="+req.Selector.String())
	cmd.WaitDelay = a.waitDelay

	if req.CoverageFile != "" {
		if err := os.MkdirAll(filepath.Dir(string(req.CoverageFile)), 0o750); err != nil {
			return m.TestRunResult{}, fmt.Errorf("failed to create coverage dir: %w", err)
		}

		_ = os.Remove(string(req.CoverageFile))
		cmd.Env = append(cmd.Env, CoverageFileEnv+"="+string(req.CoverageFile))
	}

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return m.TestRunResult{}, ctx.Err()
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) && runCtx.Err() == nil {
		slog.Error("Failed to start test binary", "binary", req.Binary, "error", runErr)
		return m.TestRunResult{}, fmt.Errorf("failed to run test binary %s: %w", req.Binary, runErr)
	}

	result := parseVerdicts(output.String())

	missing := m.TestErrored
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		missing = m.TestTimedOut
	}

	for _, name := range req.Tests {
		if _, ok := result.Outcomes[name]; !ok {
			result.Outcomes[name] = missing
		}
	}

	if req.CoverageFile != "" {
		reached, err := readReached(req.CoverageFile)
		if err != nil {
			return m.TestRunResult{}, err
		}

		result.Reached = reached
	}

	return result, nil
}

// readReached parses the ids guards appended to the coverage file and removes it.
func readReached(file m.Path) ([]m.MutantID, error) {
	data, err := os.ReadFile(string(file))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read coverage file: %w", err)
	}

	defer func() { _ = os.Remove(string(file)) }()

	var reached []m.MutantID

	for _, field := range strings.Fields(string(data)) {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}

		if !slices.Contains(reached, m.MutantID(id)) {
			reached = append(reached, m.MutantID(id))
		}
	}

	slices.Sort(reached)

	return reached, nil
}

func testArgs(req m.TestRunRequest) []string {
	names := make([]string, 0, len(req.Tests))
	for _, name := range req.Tests {
		names = append(names, regexp.QuoteMeta(name))
	}

	args := []string{"-test.run", "^(" + strings.Join(names, "|") + ")$", "-test.v", "-test.count=1"}
	if req.FailFast {
		args = append(args, "-test.failfast")
	}

	return args
}

// parseVerdicts reads top-level "--- PASS/FAIL/SKIP" lines. Subtest verdicts
// are indented and therefore ignored.
func parseVerdicts(output string) m.TestRunResult {
	result := m.TestRunResult{
		Outcomes:  make(map[string]m.TestOutcome),
		Durations: make(map[string]time.Duration),
		Output:    output,
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		match := verdictLine.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}

		outcome := m.TestPassed
		if match[1] == "FAIL" {
			outcome = m.TestFailed
		}

		result.Outcomes[match[2]] = outcome

		if seconds, err := strconv.ParseFloat(match[3], 64); err == nil {
			result.Durations[match[2]] = time.Duration(seconds * float64(time.Second))
		}
	}

	return result
}
