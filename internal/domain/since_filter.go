package domain

import (
	"log/slog"
	"path"
	"slices"
	"strings"

	"gooze.dev/pkg/weevil/internal/adapter"
	m "gooze.dev/pkg/weevil/internal/model"
)

// SinceIgnoredReason is the status reason of mutants the since filter removes.
const SinceIgnoredReason = "Mutant not changed compared to target commit"

// SinceFilter keeps only the mutants a change relative to a baseline can affect.
type SinceFilter interface {
	// Apply marks unaffected Pending mutants Ignored and returns how many it
	// ignored. Mutants already in a terminal state are left untouched.
	Apply(registry Registry, diff m.DiffResult, tests *m.TestSet) (int, error)
}

type sinceFilter struct{}

// NewSinceFilter creates a SinceFilter.
func NewSinceFilter() SinceFilter {
	return &sinceFilter{}
}

// changeScope is what the changed test-affecting files reveal.
type changeScope struct {
	tests map[m.TestID]bool
	// unfiltered holds directories where a change resolved to no known test,
	// so every mutant below them is kept. "." covers the whole module.
	unfiltered []string
}

func newChangeScope(diff m.DiffResult, tests *m.TestSet) changeScope {
	scope := changeScope{tests: make(map[m.TestID]bool)}

	for _, file := range diff.ChangedTestFiles {
		ids := tests.ByFile(file)

		for _, id := range ids {
			scope.tests[id] = true
		}

		if len(ids) == 0 && adapter.IsTestAffecting(file) {
			scope.unfiltered = append(scope.unfiltered, owningDir(file))
		}
	}

	slices.Sort(scope.unfiltered)
	scope.unfiltered = slices.Compact(scope.unfiltered)

	return scope
}

// owningDir is the package directory a changed asset belongs to, with any
// testdata segment and what follows it removed.
func owningDir(file m.Path) string {
	dir := path.Dir(path.Clean(strings.ReplaceAll(string(file), "\\", "/")))

	segments := strings.Split(dir, "/")
	if i := slices.Index(segments, "testdata"); i >= 0 {
		segments = segments[:i]
	}

	if len(segments) == 0 {
		return "."
	}

	return path.Join(segments...)
}

func (s changeScope) covers(file m.Path) bool {
	name := path.Clean(string(file))

	for _, dir := range s.unfiltered {
		if dir == "." || strings.HasPrefix(name, dir+"/") {
			return true
		}
	}

	return false
}

func (s changeScope) reaches(covering m.CoveringTests) bool {
	return slices.ContainsFunc(covering.IDs, func(id m.TestID) bool {
		return s.tests[id]
	})
}

func (f *sinceFilter) Apply(registry Registry, diff m.DiffResult, tests *m.TestSet) (int, error) {
	scope := newChangeScope(diff, tests)
	ignored := 0

	for _, mutant := range registry.Pending() {
		if keepSince(mutant, diff, scope) {
			continue
		}

		if err := registry.Transition(mutant.ID, m.Ignored, SinceIgnoredReason); err != nil {
			return ignored, err
		}

		ignored++
	}

	slog.Info("Applied since filter",
		"changed_sources", len(diff.ChangedSourceFiles),
		"changed_tests", len(diff.ChangedTestFiles),
		"ignored", ignored)

	return ignored, nil
}

func keepSince(mutant m.Mutant, diff m.DiffResult, scope changeScope) bool {
	switch {
	case diff.HasSource(mutant.Source):
		return true
	case scope.covers(mutant.Source):
		return true
	case mutant.CoveringTests.IsUnset():
		// Without coverage a changed test may exercise any mutant of its package.
		for id := range scope.tests {
			if id.Package() == mutant.Package {
				return true
			}
		}

		return false
	default:
		return scope.reaches(mutant.CoveringTests)
	}
}
