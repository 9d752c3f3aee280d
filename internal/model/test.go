package model

import (
	"path"
	"slices"
	"strings"
	"sync"
	"time"
)

// TestID identifies a test as "<package dir>:<TestName>".
type TestID string

// NewTestID builds the id of test name declared in package directory pkg.
func NewTestID(pkg Path, name string) TestID {
	return TestID(string(pkg) + ":" + name)
}

// Package returns the package directory part of the id.
func (id TestID) Package() Path {
	pkg, _, _ := strings.Cut(string(id), ":")
	return Path(pkg)
}

// Name returns the test function name part of the id.
func (id TestID) Name() string {
	_, name, _ := strings.Cut(string(id), ":")
	return name
}

// TestDescription describes a test function.
type TestDescription struct {
	ID      TestID
	Name    string
	File    Path
	Package Path
}

// TestSet is the set of known tests keyed by id. It is safe for concurrent use.
type TestSet struct {
	mu    sync.RWMutex
	tests map[TestID]TestDescription
}

// NewTestSet returns a set holding tests.
func NewTestSet(tests ...TestDescription) *TestSet {
	set := &TestSet{tests: make(map[TestID]TestDescription, len(tests))}
	set.Register(tests...)

	return set
}

// Register adds tests, replacing any previous entry with the same id.
func (s *TestSet) Register(tests ...TestDescription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tests == nil {
		s.tests = make(map[TestID]TestDescription, len(tests))
	}

	for _, test := range tests {
		s.tests[test.ID] = test
	}
}

// Get returns the test with the given id.
func (s *TestSet) Get(id TestID) (TestDescription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	test, ok := s.tests[id]

	return test, ok
}

// Len is the number of registered tests.
func (s *TestSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tests)
}

// All returns every test sorted by id.
func (s *TestSet) All() []TestDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]TestDescription, 0, len(s.tests))
	for _, test := range s.tests {
		all = append(all, test)
	}

	slices.SortFunc(all, func(a, b TestDescription) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})

	return all
}

// ByFile returns the ids of tests declared in file.
func (s *TestSet) ByFile(file Path) []TestID {
	var ids []TestID

	for _, test := range s.All() {
		if cleanPath(test.File) == cleanPath(file) {
			ids = append(ids, test.ID)
		}
	}

	return ids
}

// ByPackage groups test ids by package directory.
func (s *TestSet) ByPackage() map[Path][]TestID {
	groups := make(map[Path][]TestID)

	for _, test := range s.All() {
		groups[test.Package] = append(groups[test.Package], test.ID)
	}

	return groups
}

// CoverageMap maps a mutant to the tests reaching its guard. An entry, once set,
// is immutable until the map is rebuilt by a new recording.
type CoverageMap struct {
	mu      sync.RWMutex
	entries map[MutantID][]TestID
}

// NewCoverageMap returns an empty coverage map.
func NewCoverageMap() *CoverageMap {
	return &CoverageMap{entries: make(map[MutantID][]TestID)}
}

// Add records that test reached mutant.
func (c *CoverageMap) Add(mutant MutantID, test TestID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(c.entries[mutant], test) {
		c.entries[mutant] = append(c.entries[mutant], test)
	}
}

// Tests returns the covering set for mutant, always computed.
func (c *CoverageMap) Tests(mutant MutantID) CoveringTests {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return NewCoveringTests(c.entries[mutant]...)
}

// Len is the number of mutants reached by at least one test.
func (c *CoverageMap) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Baseline holds observations from the unmutated test run.
type Baseline struct {
	Durations map[TestID]time.Duration
}

// Duration returns the observed duration of id, zero when unknown.
func (b Baseline) Duration(id TestID) time.Duration {
	return b.Durations[id]
}

// DiffResult lists the files changed relative to a baseline reference.
type DiffResult struct {
	ChangedSourceFiles []Path
	ChangedTestFiles   []Path
}

// HasSource reports whether file is among the changed source files.
func (d DiffResult) HasSource(file Path) bool {
	for _, changed := range d.ChangedSourceFiles {
		if cleanPath(changed) == cleanPath(file) {
			return true
		}
	}

	return false
}

func cleanPath(p Path) string {
	return path.Clean(strings.ReplaceAll(string(p), "\\", "/"))
}
