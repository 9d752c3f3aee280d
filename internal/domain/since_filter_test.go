package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/weevil/internal/model"
)

// sinceRegistry holds mutants of calc/calc.go (1, 2) and util/util.go (3) with
// TestSubtract covering 1 and TestUtil covering 3.
func sinceRegistry(t *testing.T, withCoverage bool) Registry {
	t.Helper()

	registry := NewRegistry()
	registry.Register(m.Mutant{Kind: m.MutatorArithmetic, Source: "calc/calc.go", Package: "calc"})
	registry.Register(m.Mutant{Kind: m.MutatorLogical, Source: "calc/calc.go", Package: "calc"})
	registry.Register(m.Mutant{Kind: m.MutatorBoolean, Source: "util/util.go", Package: "util"})

	if withCoverage {
		require.NoError(t, registry.SetCoveringTests(1, m.NewCoveringTests("calc:TestSubtract")))
		require.NoError(t, registry.SetCoveringTests(2, m.NewCoveringTests()))
		require.NoError(t, registry.SetCoveringTests(3, m.NewCoveringTests("util:TestUtil")))
	}

	return registry
}

func sinceTests() *m.TestSet {
	return m.NewTestSet(
		m.TestDescription{ID: "calc:TestSubtract", Name: "TestSubtract", File: "calc/calc_test.go", Package: "calc"},
		m.TestDescription{ID: "util:TestUtil", Name: "TestUtil", File: "util/util_test.go", Package: "util"},
	)
}

func TestSinceFilter_Apply(t *testing.T) {
	tests := []struct {
		name         string
		withCoverage bool
		diff         m.DiffResult
		want         map[m.MutantID]m.MutantStatus
	}{
		{
			name:         "empty diff ignores everything",
			withCoverage: true,
			want:         map[m.MutantID]m.MutantStatus{1: m.Ignored, 2: m.Ignored, 3: m.Ignored},
		},
		{
			name:         "changed source keeps its mutants",
			withCoverage: true,
			diff:         m.DiffResult{ChangedSourceFiles: []m.Path{"calc/calc.go"}},
			want:         map[m.MutantID]m.MutantStatus{1: m.Pending, 2: m.Pending, 3: m.Ignored},
		},
		{
			name:         "changed test keeps the mutants it covers",
			withCoverage: true,
			diff:         m.DiffResult{ChangedTestFiles: []m.Path{"util/util_test.go"}},
			want:         map[m.MutantID]m.MutantStatus{1: m.Ignored, 2: m.Ignored, 3: m.Pending},
		},
		{
			name: "changed test without coverage keeps its package",
			diff: m.DiffResult{ChangedTestFiles: []m.Path{"calc/calc_test.go"}},
			want: map[m.MutantID]m.MutantStatus{1: m.Pending, 2: m.Pending, 3: m.Ignored},
		},
		{
			name:         "testdata change keeps the owning package",
			withCoverage: true,
			diff:         m.DiffResult{ChangedTestFiles: []m.Path{"util/testdata/golden/out.txt"}},
			want:         map[m.MutantID]m.MutantStatus{1: m.Ignored, 2: m.Ignored, 3: m.Pending},
		},
		{
			name:         "go.mod change keeps everything",
			withCoverage: true,
			diff:         m.DiffResult{ChangedTestFiles: []m.Path{"go.mod"}},
			want:         map[m.MutantID]m.MutantStatus{1: m.Pending, 2: m.Pending, 3: m.Pending},
		},
		{
			name:         "unknown test file keeps its package",
			withCoverage: true,
			diff:         m.DiffResult{ChangedTestFiles: []m.Path{"calc/helpers_test.go"}},
			want:         map[m.MutantID]m.MutantStatus{1: m.Pending, 2: m.Pending, 3: m.Ignored},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := sinceRegistry(t, tt.withCoverage)

			ignored, err := NewSinceFilter().Apply(registry, tt.diff, sinceTests())
			require.NoError(t, err)

			count := 0

			for id, want := range tt.want {
				mutant, ok := registry.Get(id)
				require.True(t, ok)
				assert.Equal(t, want, mutant.Status, "mutant %s", id)

				if want == m.Ignored {
					assert.Equal(t, SinceIgnoredReason, mutant.StatusReason)
					count++
				}
			}

			assert.Equal(t, count, ignored)
		})
	}
}

func TestSinceFilter_LeavesTerminalMutants(t *testing.T) {
	registry := sinceRegistry(t, true)
	require.NoError(t, registry.Transition(2, m.NoCoverage, NoCoverageReason))
	require.NoError(t, registry.Transition(3, m.CompileError, "broken"))

	ignored, err := NewSinceFilter().Apply(registry, m.DiffResult{}, sinceTests())
	require.NoError(t, err)

	assert.Equal(t, 1, ignored)
	assert.Equal(t, m.Ignored, statusOf(t, registry, 1))
	assert.Equal(t, m.NoCoverage, statusOf(t, registry, 2))
	assert.Equal(t, m.CompileError, statusOf(t, registry, 3))
}

func TestOwningDir(t *testing.T) {
	tests := []struct {
		file m.Path
		want string
	}{
		{file: "go.mod", want: "."},
		{file: "calc/calc_test.go", want: "calc"},
		{file: "calc/testdata/in.txt", want: "calc"},
		{file: "internal/calc/testdata/deep/in.txt", want: "internal/calc"},
		{file: "testdata/fixture.json", want: "."},
		{file: `calc\sub\x_test.go`, want: "calc/sub"},
	}

	for _, tt := range tests {
		t.Run(string(tt.file), func(t *testing.T) {
			assert.Equal(t, tt.want, owningDir(tt.file))
		})
	}
}
