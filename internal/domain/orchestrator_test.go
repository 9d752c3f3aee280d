package domain

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adaptermocks "gooze.dev/pkg/weevil/internal/adapter/mocks"
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

const otherSrc = `package calc

func Enabled() bool {
	return true
}
`

var cleanArtifact = m.Artifact{
	Workspace: "/tmp/ws",
	Binaries:  map[m.Path]m.Path{"calc": "/tmp/ws/.weevil-bin/calc.test"},
}

func guardFor(t *testing.T, units []m.RenderedUnit, file m.Path, id m.MutantID) m.Guard {
	t.Helper()

	for _, unit := range units {
		if unit.Path != file {
			continue
		}

		for _, guard := range unit.Guards {
			if slices.Contains(guard.Mutants, id) {
				return guard
			}
		}
	}

	t.Fatalf("no guard for mutant %s in %s", id, file)

	return m.Guard{}
}

func TestOrchestrator_ConvergeCleanBuild(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			assert.Equal(t, m.Path("/tmp/ws"), req.Workspace)
			assert.Equal(t, []string{"integration"}, req.Options.Tags)
			require.Len(t, req.Units, 2)
			assert.Len(t, req.Units[0].Guards, 4)

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Once()

	artifact, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Workspace: "/tmp/ws",
		Trees:     []*syntax.Tree{tree},
		Options:   m.BuildOptions{Tags: []string{"integration"}},
	})
	require.NoError(t, err)

	assert.Equal(t, cleanArtifact, artifact)
	assert.Len(t, registry.Pending(), 6)
}

func TestOrchestrator_ConvergeRollsBackGuardedMutant(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	attempt := 0

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			attempt++

			if attempt == 1 {
				guard := guardFor(t, req.Units, "calc/calc.go", 1)

				return m.CompileResult{Diagnostics: []m.Diagnostic{{
					Severity: m.SeverityError,
					Message:  "invalid operation",
					File:     "calc/calc.go",
					Pos:      guard.Span.Start,
				}}}, nil
			}

			assert.Len(t, req.Units[0].Guards, 3)

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Times(2)

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.NoError(t, err)

	mutant, _ := registry.Get(1)
	assert.Equal(t, m.CompileError, mutant.Status)
	assert.Contains(t, mutant.StatusReason, "invalid operation")

	for id := m.MutantID(2); id <= 6; id++ {
		assert.Equal(t, m.Pending, statusOf(t, registry, id))
	}
}

func TestOrchestrator_ConvergeInnermostGuardWins(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	attempt := 0

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			attempt++

			if attempt > 1 {
				return m.CompileResult{Artifact: cleanArtifact}, nil
			}

			guard := guardFor(t, req.Units, "calc/calc.go", 5)

			return m.CompileResult{Diagnostics: []m.Diagnostic{{
				Message: "mismatched types",
				File:    "calc/calc.go",
				Pos:     guard.Span.End,
			}}}, nil
		})

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.NoError(t, err)

	counts := registry.Counts()
	assert.Equal(t, 2, counts[m.CompileError])
	assert.Equal(t, m.CompileError, statusOf(t, registry, 5))
	assert.Equal(t, m.CompileError, statusOf(t, registry, 6))
	assert.Equal(t, m.Pending, statusOf(t, registry, 2))
}

func TestOrchestrator_ConvergeUnpositionedDiagnosticRollsBackAll(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	attempt := 0

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			attempt++

			if attempt == 1 {
				return m.CompileResult{Diagnostics: []m.Diagnostic{{Message: "link failed"}}}, nil
			}

			assert.Empty(t, req.Units[0].Guards)

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Times(2)

	artifact, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.NoError(t, err)

	assert.Equal(t, cleanArtifact, artifact)
	assert.Equal(t, 6, registry.Counts()[m.CompileError])
}

func TestOrchestrator_ConvergeDiagnosticOutsideGuardsRollsBackFile(t *testing.T) {
	registry := NewRegistry()
	calc := parseTree(t, "calc/calc.go", calcSrc)
	other := parseTree(t, "calc/other.go", otherSrc)
	registerTree(t, registry, calc)
	registerTree(t, registry, other)

	attempt := 0

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ m.CompileRequest) (m.CompileResult, error) {
			attempt++

			if attempt == 1 {
				return m.CompileResult{Diagnostics: []m.Diagnostic{
					{Message: "declared and not used", File: "calc/calc.go", Pos: m.Position{Line: 1, Column: 1}},
					{Severity: m.SeverityWarning, Message: "ignored", File: "calc/other.go", Pos: m.Position{Line: 4, Column: 9}},
				}}, nil
			}

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Times(2)

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{calc, other},
	})
	require.NoError(t, err)

	for id := m.MutantID(1); id <= 6; id++ {
		assert.Equal(t, m.CompileError, statusOf(t, registry, id))
	}

	assert.Equal(t, m.Pending, statusOf(t, registry, 7))
}

func TestOrchestrator_ConvergeDiagnosticBesideGuardRollsBackLine(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	var lineMutants []m.MutantID

	attempt := 0

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			attempt++

			if attempt == 1 {
				guard := guardFor(t, req.Units, "calc/calc.go", 1)
				lineMutants = guard.Mutants

				return m.CompileResult{Diagnostics: []m.Diagnostic{{
					Severity: m.SeverityError,
					Message:  "cannot use value in return statement",
					File:     "calc/calc.go",
					Pos:      m.Position{Line: guard.Span.Start.Line, Column: 2},
				}}}, nil
			}

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Times(2)

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.NoError(t, err)
	require.NotEmpty(t, lineMutants)

	for id := m.MutantID(1); id <= 6; id++ {
		want := m.Pending
		if slices.Contains(lineMutants, id) {
			want = m.CompileError
		}

		assert.Equal(t, want, statusOf(t, registry, id), "mutant %s", id)
	}
}

func TestOrchestrator_ConvergeFatalWithoutActiveMutants(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		Return(m.CompileResult{Diagnostics: []m.Diagnostic{{Message: "undefined: Foo", File: "calc/calc.go", Pos: m.Position{Line: 4, Column: 2}}}}, nil).
		Once()

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})

	var fatal *m.FatalConfigurationError
	require.ErrorAs(t, err, &fatal)
	assert.Len(t, fatal.Diagnostics, 1)
	assert.Contains(t, err.Error(), "undefined: Foo")
}

func TestOrchestrator_ConvergeFatalWhenNoMutantExplainsErrors(t *testing.T) {
	registry := NewRegistry()
	calc := parseTree(t, "calc/calc.go", calcSrc)
	other := parseTree(t, "calc/other.go", otherSrc)
	registerTree(t, registry, other)

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		Return(m.CompileResult{Diagnostics: []m.Diagnostic{{Message: "undefined: Foo", File: "calc/calc.go", Pos: m.Position{Line: 4, Column: 2}}}}, nil).
		Once()

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{calc, other},
	})

	var fatal *m.FatalConfigurationError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, m.Pending, statusOf(t, registry, 1))
}

func TestOrchestrator_ConvergeAdapterErrorLeavesMutantsPending(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)
	registerTree(t, registry, tree)

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		Return(m.CompileResult{}, errors.New("go: not found")).
		Once()

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go: not found")
	assert.Len(t, registry.Pending(), 6)
}

func TestOrchestrator_ConvergeCancelled(t *testing.T) {
	registry := NewRegistry()
	tree := parseTree(t, "calc/calc.go", calcSrc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	compiler := adaptermocks.NewMockCompilerAdapter(t)

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(ctx, registry, ConvergeRequest{
		Trees: []*syntax.Tree{tree},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_ConvergePackagesAndHelpers(t *testing.T) {
	registry := NewRegistry()
	calc := parseTree(t, "calc/calc.go", calcSrc)
	alpha := parseTree(t, "alpha/on.go", "package alpha\n\nfunc On() bool { return true }\n")

	compiler := adaptermocks.NewMockCompilerAdapter(t)
	compiler.EXPECT().Compile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req m.CompileRequest) (m.CompileResult, error) {
			assert.Equal(t, []m.Path{"alpha", "calc", "zeta"}, req.Packages)

			paths := make([]m.Path, 0, len(req.Units))
			for _, unit := range req.Units {
				paths = append(paths, unit.Path)
			}

			assert.Equal(t, []m.Path{
				"calc/calc.go",
				"alpha/on.go",
				"alpha/zz_weevil_helpers.go",
				"calc/zz_weevil_helpers.go",
			}, paths)
			assert.Equal(t, "alpha", req.Units[2].Package)

			return m.CompileResult{Artifact: cleanArtifact}, nil
		}).Once()

	_, err := NewOrchestrator(compiler, NewInjector()).Converge(context.Background(), registry, ConvergeRequest{
		Trees:    []*syntax.Tree{calc, alpha},
		Packages: []m.Path{"zeta", "calc"},
	})
	require.NoError(t, err)
}
