package model

import "time"

// TestOutcome is the result of one test inside a test binary run.
type TestOutcome int

const (
	// TestPassed means the test reported PASS or SKIP.
	TestPassed TestOutcome = iota
	// TestFailed means the test reported FAIL.
	TestFailed
	// TestTimedOut means the run hit its deadline before the test reported.
	TestTimedOut
	// TestErrored means the process ended without a verdict for the test.
	TestErrored
)

func (o TestOutcome) String() string {
	switch o {
	case TestPassed:
		return "passed"
	case TestFailed:
		return "failed"
	case TestTimedOut:
		return "timed-out"
	case TestErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// TestRunRequest asks the runner to execute tests of one package binary with
// one selector value. Selector is set only in the spawned process.
type TestRunRequest struct {
	Binary       Path
	WorkDir      Path
	Selector     MutantID
	Tests        []string
	Timeout      time.Duration
	CoverageFile Path
	FailFast     bool
}

// TestRunResult holds a verdict per requested test name. Reached lists the
// mutant guards executed when the request asked for a coverage file.
type TestRunResult struct {
	Outcomes  map[string]TestOutcome
	Durations map[string]time.Duration
	Reached   []MutantID
	Output    string
}

// Failed returns the names of failed tests.
func (r TestRunResult) Failed() []string {
	var failed []string

	for name, outcome := range r.Outcomes {
		if outcome == TestFailed {
			failed = append(failed, name)
		}
	}

	return failed
}

// MutantResult is the journal record written when a mutant reaches a terminal state.
type MutantResult struct {
	ID     MutantID
	Kind   MutatorKind
	Source Path
	Status MutantStatus
	Reason string
}

// Summary counts mutants per status.
type Summary map[MutantStatus]int

// Total is the number of counted mutants.
func (s Summary) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}

	return total
}

// Report is the persisted outcome of a run.
type Report struct {
	ProjectVersion string         `yaml:"project_version,omitempty"`
	Score          float64        `yaml:"score"`
	Summary        map[string]int `yaml:"summary"`
	Mutants        []ReportMutant `yaml:"mutants"`
}

// ReportMutant is the persisted view of one mutant.
type ReportMutant struct {
	ID            uint64   `yaml:"id"`
	Kind          string   `yaml:"kind"`
	File          string   `yaml:"file"`
	Span          Span     `yaml:"span"`
	Original      string   `yaml:"original"`
	Mutated       string   `yaml:"mutated"`
	Status        string   `yaml:"status"`
	Reason        string   `yaml:"reason,omitempty"`
	CoveringTests []string `yaml:"covering_tests,omitempty"`
	Diff          string   `yaml:"diff,omitempty"`
}

// NewReport builds a report from the final mutant collection.
func NewReport(version string, score float64, mutants []Mutant) Report {
	report := Report{
		ProjectVersion: version,
		Score:          score,
		Summary:        make(map[string]int),
		Mutants:        make([]ReportMutant, 0, len(mutants)),
	}

	for _, mutant := range mutants {
		report.Summary[mutant.Status.String()]++

		var tests []string
		for _, id := range mutant.CoveringTests.IDs {
			tests = append(tests, string(id))
		}

		report.Mutants = append(report.Mutants, ReportMutant{
			ID:            uint64(mutant.ID),
			Kind:          string(mutant.Kind),
			File:          string(mutant.Source),
			Span:          mutant.Span,
			Original:      mutant.OriginalText,
			Mutated:       mutant.MutatedText,
			Status:        mutant.Status.String(),
			Reason:        mutant.StatusReason,
			CoveringTests: tests,
			Diff:          mutant.DiffCode,
		})
	}

	return report
}
