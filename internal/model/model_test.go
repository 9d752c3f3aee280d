package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutantStatus_Transitions(t *testing.T) {
	for _, next := range AllStatuses {
		assert.Equal(t, next != Pending, Pending.CanTransition(next), "pending -> %s", next)
	}

	for _, from := range AllStatuses {
		if from == Pending {
			continue
		}

		assert.True(t, from.IsTerminal(), from.String())

		for _, next := range AllStatuses {
			assert.False(t, from.CanTransition(next), "%s -> %s", from, next)
		}
	}

	assert.False(t, Pending.CanTransition(MutantStatus(99)))
}

func TestParseMutantStatus(t *testing.T) {
	for _, status := range AllStatuses {
		parsed, ok := ParseMutantStatus(status.String())
		require.True(t, ok, status.String())
		assert.Equal(t, status, parsed)
	}

	_, ok := ParseMutantStatus("exploded")
	assert.False(t, ok)
}

func TestCoveringTests(t *testing.T) {
	assert.True(t, UnsetCoverage.IsUnset())
	assert.False(t, UnsetCoverage.IsEmpty())

	empty := NewCoveringTests()
	assert.False(t, empty.IsUnset())
	assert.True(t, empty.IsEmpty())

	covering := NewCoveringTests("calc:TestB", "calc:TestA", "calc:TestB")
	assert.Equal(t, []TestID{"calc:TestA", "calc:TestB"}, covering.IDs)
	assert.True(t, covering.Contains("calc:TestA"))
	assert.False(t, covering.Contains(".:TestA"))
}

func TestTestID(t *testing.T) {
	id := NewTestID("internal/calc", "TestSubtract")

	assert.Equal(t, TestID("internal/calc:TestSubtract"), id)
	assert.Equal(t, Path("internal/calc"), id.Package())
	assert.Equal(t, "TestSubtract", id.Name())
	assert.Equal(t, Path("."), NewTestID(".", "TestRoot").Package())
}

func TestTestSet(t *testing.T) {
	set := NewTestSet(
		TestDescription{ID: "calc:TestB", Name: "TestB", File: "calc/b_test.go", Package: "calc"},
		TestDescription{ID: "calc:TestA", Name: "TestA", File: "calc/a_test.go", Package: "calc"},
		TestDescription{ID: ".:TestRoot", Name: "TestRoot", File: "root_test.go", Package: "."},
	)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []TestID{"calc:TestA"}, set.ByFile("./calc/a_test.go"))
	assert.Equal(t, map[Path][]TestID{
		".":    {".:TestRoot"},
		"calc": {"calc:TestA", "calc:TestB"},
	}, set.ByPackage())

	_, ok := set.Get("calc:TestC")
	assert.False(t, ok)
}

func TestCoverageMap(t *testing.T) {
	coverage := NewCoverageMap()
	coverage.Add(1, "calc:TestB")
	coverage.Add(1, "calc:TestA")
	coverage.Add(1, "calc:TestB")

	assert.Equal(t, 1, coverage.Len())
	assert.Equal(t, []TestID{"calc:TestA", "calc:TestB"}, coverage.Tests(1).IDs)
	assert.True(t, coverage.Tests(2).IsEmpty())
}

func TestSpan(t *testing.T) {
	span := Span{StartOffset: 10, EndOffset: 15, Start: Position{Line: 2, Column: 5}, End: Position{Line: 2, Column: 10}}

	assert.True(t, span.Contains(Position{Line: 2, Column: 5}))
	assert.True(t, span.Contains(Position{Line: 2, Column: 10}))
	assert.False(t, span.Contains(Position{Line: 2, Column: 11}))
	assert.False(t, span.Contains(Position{Line: 1, Column: 7}))
	assert.True(t, span.Encloses(Span{Start: Position{Line: 2, Column: 6}, End: Position{Line: 2, Column: 8}}))
	assert.Equal(t, 5, span.Size())
	assert.Equal(t, "2:5-2:10", span.String())
}

func TestDiagnosticAndFatalError(t *testing.T) {
	unpositioned := Diagnostic{Message: "build constraints exclude all Go files"}
	positioned := Diagnostic{Message: "undefined: x", File: "calc/calc.go", Pos: Position{Line: 3, Column: 2}}

	assert.Equal(t, "build constraints exclude all Go files", unpositioned.String())
	assert.Equal(t, "calc/calc.go:3:2: undefined: x", positioned.String())

	result := CompileResult{Diagnostics: []Diagnostic{positioned, {Severity: SeverityWarning, Message: "unused"}}}
	assert.Equal(t, []Diagnostic{positioned}, result.Errors())

	assert.Equal(t, "missing modfile", (&FatalConfigurationError{Reason: "missing modfile"}).Error())
	assert.Equal(t,
		"module does not build:\n  calc/calc.go:3:2: undefined: x",
		(&FatalConfigurationError{Reason: "module does not build", Diagnostics: []Diagnostic{positioned}}).Error(),
	)
}

func TestNewReport(t *testing.T) {
	mutants := []Mutant{
		{ID: 1, Kind: MutatorArithmetic, Source: "calc/calc.go", OriginalText: "a - b", MutatedText: "a + b", Status: Killed, CoveringTests: NewCoveringTests("calc:TestSubtract")},
		{ID: 2, Kind: MutatorUnary, Source: "calc/calc.go", Status: NoCoverage, StatusReason: "No test covers this mutant", CoveringTests: NewCoveringTests()},
		{ID: 3, Kind: MutatorComparison, Source: "calc/calc.go", Status: Killed},
	}

	report := NewReport("v1.0.0", 100, mutants)

	assert.Equal(t, "v1.0.0", report.ProjectVersion)
	assert.Equal(t, map[string]int{"killed": 2, "nocoverage": 1}, report.Summary)
	require.Len(t, report.Mutants, 3)
	assert.Equal(t, []string{"calc:TestSubtract"}, report.Mutants[0].CoveringTests)
	assert.Equal(t, "arithmetic", report.Mutants[0].Kind)
	assert.Nil(t, report.Mutants[1].CoveringTests)
	assert.Equal(t, "No test covers this mutant", report.Mutants[1].Reason)
}

func TestSummaryAndRunResult(t *testing.T) {
	assert.Equal(t, 5, Summary{Killed: 3, Survived: 2}.Total())

	result := TestRunResult{Outcomes: map[string]TestOutcome{"TestA": TestPassed, "TestB": TestFailed}}
	assert.Equal(t, []string{"TestB"}, result.Failed())
	assert.Equal(t, "failed", TestFailed.String())
}
