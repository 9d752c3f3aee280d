package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/weevil/internal/adapter"
	m "gooze.dev/pkg/weevil/internal/model"
	pkg "gooze.dev/pkg/weevil/pkg"
)

const (
	// DefaultTimeoutFactor scales the baseline duration of the selected tests.
	DefaultTimeoutFactor = 1.5
	// DefaultTimeoutExtra is added to every mutant run deadline.
	DefaultTimeoutExtra = 5 * time.Second
)

// ExecuteOptions tunes mutant execution.
type ExecuteOptions struct {
	Threads       int
	TimeoutFactor float64
	TimeoutExtra  time.Duration
	FailFast      bool
	// OnStart and OnResult are optional progress hooks. OnResult is only ever
	// called from the aggregator goroutine.
	OnStart  func(mutant m.Mutant, worker int)
	OnResult func(mutant m.Mutant, result m.MutantResult)
}

// ExecuteRequest holds everything the executor reads.
type ExecuteRequest struct {
	Artifact m.Artifact
	Tests    *m.TestSet
	Baseline m.Baseline
	Journal  pkg.FileSpill[m.MutantResult]
	Options  ExecuteOptions
}

// Executor runs the selected tests of every Pending mutant and records its verdict.
type Executor interface {
	// Execute returns ctx.Err() when cancelled. Mutants never dispatched stay
	// Pending; finished verdicts are kept.
	Execute(ctx context.Context, registry Registry, req ExecuteRequest) error
}

type executor struct {
	adapter.TestRunnerAdapter
}

// NewExecutor creates an Executor backed by the test runner.
func NewExecutor(runner adapter.TestRunnerAdapter) Executor {
	return &executor{TestRunnerAdapter: runner}
}

// verdict is a status with the reason recorded next to it.
type verdict struct {
	status m.MutantStatus
	reason string
}

// rank orders run statuses: a kill beats a timeout, which beats a crash, which
// beats survival.
func rank(status m.MutantStatus) int {
	switch status {
	case m.Killed:
		return 3
	case m.Timeout:
		return 2
	case m.RuntimeError:
		return 1
	default:
		return 0
	}
}

func (v verdict) worse(o verdict) verdict {
	if rank(o.status) > rank(v.status) {
		return o
	}

	return v
}

type outcome struct {
	mutant m.Mutant
	result m.MutantResult
}

func (e *executor) Execute(ctx context.Context, registry Registry, req ExecuteRequest) error {
	pending := registry.Pending()
	opts := normalizeExecuteOptions(req.Options)

	slog.Info("Executing mutants", "pending", len(pending), "threads", opts.Threads)

	results := make(chan outcome, opts.Threads)
	aggregated := make(chan error, 1)

	go func() {
		aggregated <- aggregate(registry, req.Journal, opts.OnResult, results)
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Threads)

	workers := make(chan int, opts.Threads)
	for i := range opts.Threads {
		workers <- i
	}

	for _, mutant := range pending {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			worker := <-workers
			defer func() { workers <- worker }()

			if opts.OnStart != nil {
				opts.OnStart(mutant, worker)
			}

			v, err := e.run(groupCtx, mutant, req, opts)
			if err != nil {
				return err
			}

			results <- outcome{mutant: mutant, result: m.MutantResult{
				ID:     mutant.ID,
				Kind:   mutant.Kind,
				Source: mutant.Source,
				Status: v.status,
				Reason: v.reason,
			}}

			return nil
		})
	}

	runErr := group.Wait()

	close(results)

	aggErr := <-aggregated

	if err := ctx.Err(); err != nil {
		slog.Info("Mutant execution cancelled", "error", err)
		return err
	}

	return errors.Join(runErr, aggErr)
}

func normalizeExecuteOptions(opts ExecuteOptions) ExecuteOptions {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}

	if opts.TimeoutFactor <= 0 {
		opts.TimeoutFactor = DefaultTimeoutFactor
	}

	if opts.TimeoutExtra <= 0 {
		opts.TimeoutExtra = DefaultTimeoutExtra
	}

	return opts
}

// aggregate is the single writer of verdicts: it moves the registry record
// and appends the journal entry.
func aggregate(registry Registry, journal pkg.FileSpill[m.MutantResult], onResult func(m.Mutant, m.MutantResult), results <-chan outcome) error {
	var errs []error

	for out := range results {
		if err := registry.Transition(out.result.ID, out.result.Status, out.result.Reason); err != nil {
			errs = append(errs, err)
			continue
		}

		if journal != nil {
			if err := journal.Append(out.result); err != nil {
				slog.Error("Failed to journal mutant result", "mutant", out.result.ID, "error", err)
				errs = append(errs, fmt.Errorf("journal mutant %s: %w", out.result.ID, err))
			}
		}

		if onResult != nil {
			onResult(out.mutant, out.result)
		}
	}

	return errors.Join(errs...)
}

// selectTests returns the tests to run against mutant grouped by package.
// An unset covering set falls back to every test of the mutant's package.
func selectTests(mutant m.Mutant, tests *m.TestSet) map[m.Path][]m.TestID {
	if mutant.CoveringTests.IsUnset() {
		ids := tests.ByPackage()[mutant.Package]
		if len(ids) == 0 {
			return nil
		}

		return map[m.Path][]m.TestID{mutant.Package: ids}
	}

	groups := make(map[m.Path][]m.TestID)
	for _, id := range mutant.CoveringTests.IDs {
		groups[id.Package()] = append(groups[id.Package()], id)
	}

	return groups
}

// runTimeout is factor × the baseline duration of ids plus extra.
func runTimeout(baseline m.Baseline, ids []m.TestID, opts ExecuteOptions) time.Duration {
	var total time.Duration
	for _, id := range ids {
		total += baseline.Duration(id)
	}

	return time.Duration(float64(total)*opts.TimeoutFactor) + opts.TimeoutExtra
}

func (e *executor) run(ctx context.Context, mutant m.Mutant, req ExecuteRequest, opts ExecuteOptions) (verdict, error) {
	groups := selectTests(mutant, req.Tests)
	if len(groups) == 0 {
		return verdict{status: m.NoCoverage, reason: NoCoverageReason}, nil
	}

	packages := make([]m.Path, 0, len(groups))
	for p := range groups {
		packages = append(packages, p)
	}

	slices.Sort(packages)

	current := verdict{status: m.Survived, reason: "No test failed"}

	for _, p := range packages {
		v, err := e.runPackage(ctx, mutant, p, groups[p], req, opts)
		if err != nil {
			return verdict{}, err
		}

		current = current.worse(v)

		if current.status == m.Killed {
			break
		}
	}

	return current, nil
}

func (e *executor) runPackage(ctx context.Context, mutant m.Mutant, p m.Path, ids []m.TestID, req ExecuteRequest, opts ExecuteOptions) (verdict, error) {
	binary, ok := req.Artifact.Binary(p)
	if !ok {
		return verdict{status: m.RuntimeError, reason: fmt.Sprintf("no test binary for package %s", p)}, nil
	}

	result, err := e.RunTests(ctx, m.TestRunRequest{
		Binary:   binary,
		WorkDir:  workDir(req.Artifact, p),
		Selector: mutant.ID,
		Tests:    testNames(ids),
		Timeout:  runTimeout(req.Baseline, ids, opts),
		FailFast: opts.FailFast,
	})
	if err != nil {
		if ctx.Err() != nil {
			return verdict{}, ctx.Err()
		}

		slog.Error("Failed to run tests for mutant", "mutant", mutant.ID, "package", p, "error", err)

		return verdict{status: m.RuntimeError, reason: err.Error()}, nil
	}

	return classify(p, result), nil
}

// classify turns per-test outcomes of one run into a verdict.
func classify(p m.Path, result m.TestRunResult) verdict {
	byOutcome := make(map[m.TestOutcome][]string)
	for name, outcome := range result.Outcomes {
		byOutcome[outcome] = append(byOutcome[outcome], string(m.NewTestID(p, name)))
	}

	describe := func(prefix string, names []string) string {
		slices.Sort(names)
		return prefix + strings.Join(names, ", ")
	}

	switch {
	case len(byOutcome[m.TestFailed]) > 0:
		return verdict{status: m.Killed, reason: describe("Killed by ", byOutcome[m.TestFailed])}
	case len(byOutcome[m.TestTimedOut]) > 0:
		return verdict{status: m.Timeout, reason: describe("Timed out in ", byOutcome[m.TestTimedOut])}
	case len(byOutcome[m.TestErrored]) > 0:
		return verdict{status: m.RuntimeError, reason: describe("No verdict from ", byOutcome[m.TestErrored])}
	default:
		return verdict{status: m.Survived, reason: "No test failed"}
	}
}
