package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gooze.dev/pkg/weevil/internal/adapter"
	"gooze.dev/pkg/weevil/internal/controller"
	m "gooze.dev/pkg/weevil/internal/model"
	pkg "gooze.dev/pkg/weevil/pkg"
)

// ErrMissingProjectVersion rejects a baseline run that could not name its report.
var ErrMissingProjectVersion = errors.New("project version cannot be empty when baseline is enabled")

// DefaultReportName is the report file written when baseline reports are off.
const DefaultReportName = "report.yaml"

// EstimateArgs selects the sources and mutator kinds of a run.
type EstimateArgs struct {
	Paths   []m.Path
	Exclude []string
	Kinds   []m.MutatorKind
	Threads int
}

// TestArgs contains the arguments for running mutation tests.
type TestArgs struct {
	EstimateArgs
	Output         m.Path
	Shard          Shard
	Coverage       CoverageMode
	TestTimeout    time.Duration
	TimeoutFactor  float64
	TimeoutExtra   time.Duration
	FailFast       bool
	Build          m.BuildOptions
	Since          string
	Baseline       bool
	ProjectVersion string
}

// Workflow runs the mutation testing stages end to end.
type Workflow interface {
	// Estimate lists the mutants of the selected sources without compiling.
	Estimate(ctx context.Context, args EstimateArgs) error
	// Test generates, compiles, filters and executes mutants, then saves the report.
	Test(ctx context.Context, args TestArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.GoFileAdapter
	adapter.DiffAdapter
	adapter.ReportStore
	controller.UI
	Mutagen
	Orchestrator
	CoverageRecorder
	SinceFilter
	Executor
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	goFileAdapter adapter.GoFileAdapter,
	diffAdapter adapter.DiffAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	mutagen Mutagen,
	orchestrator Orchestrator,
	coverage CoverageRecorder,
	since SinceFilter,
	executor Executor,
) Workflow {
	return &workflow{
		SourceFSAdapter:  fsAdapter,
		GoFileAdapter:    goFileAdapter,
		DiffAdapter:      diffAdapter,
		ReportStore:      reportStore,
		UI:               ui,
		Mutagen:          mutagen,
		Orchestrator:     orchestrator,
		CoverageRecorder: coverage,
		SinceFilter:      since,
		Executor:         executor,
	}
}

func (w *workflow) Estimate(ctx context.Context, args EstimateArgs) error {
	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	registry := NewRegistry()

	_, _, err := w.generate(ctx, registry, args, nil)
	if err != nil {
		_ = w.DisplayEstimation(ctx, nil, err)
		return err
	}

	if err := w.DisplayEstimation(ctx, registry.Mutants(), nil); err != nil {
		slog.Error("Failed to display estimation", "error", err)
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

// generate resolves the module root and registers the mutants of the selected
// sources.
func (w *workflow) generate(ctx context.Context, registry Registry, args EstimateArgs, tags []string) (m.Path, ConvergeRequest, error) {
	root, err := w.FindProjectRoot(ctx, ".")
	if err != nil {
		slog.Error("Failed to find module root", "error", err)
		return "", ConvergeRequest{}, fmt.Errorf("find module root: %w", err)
	}

	sources, err := w.Get(ctx, root, args.Paths, args.Exclude...)
	if err != nil {
		slog.Error("Failed to discover sources", "error", err)
		return "", ConvergeRequest{}, fmt.Errorf("get sources: %w", err)
	}

	kinds := args.Kinds
	if len(kinds) == 0 {
		kinds = DefaultMutations
	}

	// Without type information only constants the file itself declares are
	// recognized.
	constants, err := w.ConstantExprs(ctx, root, tags)
	if err != nil {
		slog.Warn("Failed to type-check module, constant detection is syntactic only", "error", err)
	}

	trees, err := w.GenerateAll(ctx, registry, sources, GenerateOptions{
		Threads:   args.Threads,
		Kinds:     kinds,
		Constants: constants,
	})
	if err != nil {
		slog.Error("Failed to generate mutants", "error", err)
		return "", ConvergeRequest{}, fmt.Errorf("generate mutants: %w", err)
	}

	return root, ConvergeRequest{Trees: trees}, nil
}

func (w *workflow) Test(ctx context.Context, args TestArgs) error {
	if args.Baseline && args.ProjectVersion == "" {
		return ErrMissingProjectVersion
	}

	if err := w.Start(ctx, controller.WithTestMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	registry := NewRegistry()

	root, converge, err := w.generate(ctx, registry, args.EstimateArgs, args.Build.Tags)
	if err != nil {
		return err
	}

	tests, err := w.discoverTests(ctx, root)
	if err != nil {
		return err
	}

	if _, err := ApplyShard(registry, args.Shard); err != nil {
		return fmt.Errorf("shard mutants: %w", err)
	}

	workspace, err := w.prepareWorkspace(ctx, root)
	if err != nil {
		return err
	}

	defer func() {
		if err := w.RemoveAll(context.WithoutCancel(ctx), workspace); err != nil {
			slog.Error("Failed to remove workspace", "path", workspace, "error", err)
		}
	}()

	converge.Workspace = workspace
	converge.Options = args.Build

	for p := range tests.ByPackage() {
		converge.Packages = append(converge.Packages, p)
	}

	artifact, err := w.Converge(ctx, registry, converge)
	if err != nil {
		return fmt.Errorf("compile mutants: %w", err)
	}

	journal, err := pkg.NewFileSpill[m.MutantResult]("")
	if err != nil {
		return fmt.Errorf("create result journal: %w", err)
	}

	defer func() { _ = journal.Remove() }()

	_, baseline, err := w.Record(ctx, registry, artifact, tests, CoverageOptions{
		Mode:    args.Coverage,
		Threads: args.Threads,
		Timeout: args.TestTimeout,
	})
	if err != nil {
		return fmt.Errorf("record coverage: %w", err)
	}

	if err := journalStatus(registry, journal, m.NoCoverage); err != nil {
		return fmt.Errorf("journal uncovered mutants: %w", err)
	}

	if args.Since != "" {
		if err := w.filterSince(ctx, registry, root, args.Since, tests); err != nil {
			return err
		}
	}

	shard := ""
	if args.Shard.Enabled() {
		shard = args.Shard.String()
	}

	pending := len(registry.Pending())
	w.DisplayConcurrencyInfo(ctx, args.Threads, shard, pending)
	w.DisplayUpcomingTestsInfo(ctx, pending)

	execErr := w.Execute(ctx, registry, ExecuteRequest{
		Artifact: artifact,
		Tests:    tests,
		Baseline: baseline,
		Journal:  journal,
		Options: ExecuteOptions{
			Threads:       args.Threads,
			TimeoutFactor: args.TimeoutFactor,
			TimeoutExtra:  args.TimeoutExtra,
			FailFast:      args.FailFast,
			OnStart: func(mutant m.Mutant, worker int) {
				w.DisplayStartingTestInfo(ctx, mutant, worker)
			},
			OnResult: func(mutant m.Mutant, result m.MutantResult) {
				w.DisplayCompletedTestInfo(ctx, mutant, result)
			},
		},
	})
	if execErr != nil && ctx.Err() == nil {
		slog.Error("Failed to execute mutants", "error", execErr)
		return fmt.Errorf("execute mutants: %w", execErr)
	}

	// A cancelled run still saves what it finished.
	if err := w.saveReport(context.WithoutCancel(ctx), registry, journal, args); err != nil {
		return err
	}

	if execErr != nil {
		return execErr
	}

	return nil
}

func (w *workflow) discoverTests(ctx context.Context, root m.Path) (*m.TestSet, error) {
	files, err := w.GetTests(ctx, root)
	if err != nil {
		slog.Error("Failed to discover test files", "error", err)
		return nil, fmt.Errorf("get tests: %w", err)
	}

	tests := m.NewTestSet()

	for _, file := range files {
		src, err := w.ReadFile(ctx, file.Origin.FullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Origin.FullPath, err)
		}

		found, err := w.DiscoverTests(ctx, file, src)
		if err != nil {
			return nil, fmt.Errorf("discover tests in %s: %w", file.Origin.ShortPath, err)
		}

		tests.Register(found...)
	}

	slog.Debug("Discovered tests", "files", len(files), "tests", tests.Len())

	return tests, nil
}

func (w *workflow) prepareWorkspace(ctx context.Context, root m.Path) (m.Path, error) {
	workspace, err := w.CreateTempDir(ctx, "weevil-workspace-*")
	if err != nil {
		slog.Error("Failed to create workspace", "error", err)
		return "", fmt.Errorf("create workspace: %w", err)
	}

	if err := w.CopyDir(ctx, root, workspace); err != nil {
		_ = w.RemoveAll(ctx, workspace)

		slog.Error("Failed to copy module into workspace", "error", err)

		return "", fmt.Errorf("copy module: %w", err)
	}

	return workspace, nil
}

func (w *workflow) filterSince(ctx context.Context, registry Registry, root m.Path, target string, tests *m.TestSet) error {
	diff, err := w.ScanDiff(ctx, root, target)
	if err != nil {
		slog.Error("Failed to scan diff", "target", target, "error", err)
		return fmt.Errorf("scan diff against %s: %w", target, err)
	}

	if _, err := w.Apply(registry, diff, tests); err != nil {
		return fmt.Errorf("since filter: %w", err)
	}

	return nil
}

// reportPath is <output>/<project version>.yaml for baseline runs and
// <output>/report.yaml otherwise.
func reportPath(args TestArgs) m.Path {
	name := DefaultReportName
	if args.Baseline {
		name = args.ProjectVersion + ".yaml"
	}

	return m.Path(filepath.Join(string(args.Output), name))
}

func (w *workflow) saveReport(ctx context.Context, registry Registry, journal pkg.FileSpill[m.MutantResult], args TestArgs) error {
	score, err := mutationScoreFromJournal(journal)
	if err != nil {
		return fmt.Errorf("compute mutation score: %w", err)
	}

	report := m.NewReport(args.ProjectVersion, score, registry.Mutants())

	if err := w.SaveReport(ctx, reportPath(args), report); err != nil {
		slog.Error("Failed to save report", "error", err)
		return fmt.Errorf("save report: %w", err)
	}

	w.DisplaySummary(ctx, registry.Counts())
	w.DisplayMutationScore(ctx, score)

	return nil
}
