package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/weevil/internal/adapter"
	m "gooze.dev/pkg/weevil/internal/model"
)

// ErrInitialTestsFailed aborts a run whose tests fail with no mutant active.
var ErrInitialTestsFailed = errors.New("tests fail with no mutant active")

// NoCoverageReason is the status reason of mutants no test reaches.
const NoCoverageReason = "No test covers this mutant"

// CoverageMode selects how covering tests are computed.
type CoverageMode string

const (
	// CoveragePerTest runs every test alone and records the guards it reaches.
	CoveragePerTest CoverageMode = "perTest"
	// CoverageOff only measures baseline durations; mutants keep an unset
	// covering set and run against every test of their package.
	CoverageOff CoverageMode = "off"
)

// ParseCoverageMode validates a configured coverage mode.
func ParseCoverageMode(value string) (CoverageMode, error) {
	switch CoverageMode(value) {
	case CoveragePerTest, "":
		return CoveragePerTest, nil
	case CoverageOff:
		return CoverageOff, nil
	default:
		return "", fmt.Errorf("unknown coverage analysis mode %q (want %s or %s)", value, CoveragePerTest, CoverageOff)
	}
}

// CoverageOptions tunes a coverage recording.
type CoverageOptions struct {
	Mode    CoverageMode
	Threads int
	Timeout time.Duration
}

// CoverageRecorder runs the tests with no mutant active, records the baseline
// and maps mutants to the tests reaching them.
type CoverageRecorder interface {
	Record(ctx context.Context, registry Registry, artifact m.Artifact, tests *m.TestSet, opts CoverageOptions) (*m.CoverageMap, m.Baseline, error)
}

type coverageRecorder struct {
	adapter.TestRunnerAdapter
}

// NewCoverageRecorder creates a CoverageRecorder backed by the test runner.
func NewCoverageRecorder(runner adapter.TestRunnerAdapter) CoverageRecorder {
	return &coverageRecorder{TestRunnerAdapter: runner}
}

type baselineRecorder struct {
	mu        sync.Mutex
	durations map[m.TestID]time.Duration
	failures  []string
}

func (b *baselineRecorder) record(pkg m.Path, result m.TestRunResult, names []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, name := range names {
		id := m.NewTestID(pkg, name)
		b.durations[id] = result.Durations[name]

		if outcome := result.Outcomes[name]; outcome != m.TestPassed {
			b.failures = append(b.failures, fmt.Sprintf("%s (%s)", id, outcome))
		}
	}
}

func (b *baselineRecorder) err() error {
	if len(b.failures) == 0 {
		return nil
	}

	slices.Sort(b.failures)

	return fmt.Errorf("%w: %s", ErrInitialTestsFailed, strings.Join(b.failures, ", "))
}

func (c *coverageRecorder) Record(ctx context.Context, registry Registry, artifact m.Artifact, tests *m.TestSet, opts CoverageOptions) (*m.CoverageMap, m.Baseline, error) {
	baseline := &baselineRecorder{durations: make(map[m.TestID]time.Duration)}
	coverage := m.NewCoverageMap()

	var err error

	if opts.Mode == CoverageOff {
		err = c.runPackages(ctx, artifact, tests, opts, baseline)
	} else {
		err = c.runEach(ctx, artifact, tests, opts, baseline, coverage)
	}

	if err != nil {
		return nil, m.Baseline{}, err
	}

	if err := baseline.err(); err != nil {
		slog.Error("Tests fail on the unmutated module", "error", err)
		return nil, m.Baseline{}, err
	}

	if opts.Mode != CoverageOff {
		if err := assignCoverage(registry, coverage); err != nil {
			return nil, m.Baseline{}, err
		}
	}

	slog.Info("Recorded coverage", "tests", tests.Len(), "covered", coverage.Len())

	return coverage, m.Baseline{Durations: baseline.durations}, nil
}

// runEach runs every test in its own process so reached guards are attributed
// to exactly one test.
func (c *coverageRecorder) runEach(ctx context.Context, artifact m.Artifact, tests *m.TestSet, opts CoverageOptions, baseline *baselineRecorder, coverage *m.CoverageMap) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Threads > 0 {
		group.SetLimit(opts.Threads)
	}

	for i, test := range tests.All() {
		group.Go(func() error {
			binary, ok := artifact.Binary(test.Package)
			if !ok {
				return fmt.Errorf("no test binary for package %s", test.Package)
			}

			result, err := c.RunTests(groupCtx, m.TestRunRequest{
				Binary:       binary,
				WorkDir:      workDir(artifact, test.Package),
				Selector:     m.NoMutant,
				Tests:        []string{test.Name},
				Timeout:      opts.Timeout,
				CoverageFile: m.Path(path.Join(string(artifact.Workspace), ".weevil-cover", fmt.Sprintf("%d.ids", i))),
			})
			if err != nil {
				return fmt.Errorf("run %s: %w", test.ID, err)
			}

			baseline.record(test.Package, result, []string{test.Name})

			for _, id := range result.Reached {
				coverage.Add(id, test.ID)
			}

			return nil
		})
	}

	return group.Wait()
}

// runPackages runs each package's tests in one process, for durations only.
func (c *coverageRecorder) runPackages(ctx context.Context, artifact m.Artifact, tests *m.TestSet, opts CoverageOptions, baseline *baselineRecorder) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Threads > 0 {
		group.SetLimit(opts.Threads)
	}

	for pkg, ids := range tests.ByPackage() {
		group.Go(func() error {
			binary, ok := artifact.Binary(pkg)
			if !ok {
				return fmt.Errorf("no test binary for package %s", pkg)
			}

			names := testNames(ids)

			result, err := c.RunTests(groupCtx, m.TestRunRequest{
				Binary:   binary,
				WorkDir:  workDir(artifact, pkg),
				Selector: m.NoMutant,
				Tests:    names,
				Timeout:  opts.Timeout,
			})
			if err != nil {
				return fmt.Errorf("run package %s: %w", pkg, err)
			}

			baseline.record(pkg, result, names)

			return nil
		})
	}

	return group.Wait()
}

// assignCoverage stores covering sets on pending mutants and retires the
// mutants no test reaches.
func assignCoverage(registry Registry, coverage *m.CoverageMap) error {
	for _, mutant := range registry.Pending() {
		covering := coverage.Tests(mutant.ID)

		if err := registry.SetCoveringTests(mutant.ID, covering); err != nil {
			return err
		}

		if covering.IsEmpty() {
			if err := registry.Transition(mutant.ID, m.NoCoverage, NoCoverageReason); err != nil {
				return err
			}
		}
	}

	return nil
}

func workDir(artifact m.Artifact, pkg m.Path) m.Path {
	return m.Path(path.Join(string(artifact.Workspace), string(pkg)))
}

func testNames(ids []m.TestID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Name())
	}

	return names
}
