package domain

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	m "gooze.dev/pkg/weevil/internal/model"
)

// Registry owns every mutant of a run. Ids are assigned from an atomic counter
// starting at 1 and each mutant record carries its own lock, so stages running
// in parallel only contend on the mutant they touch.
type Registry interface {
	Register(mutant m.Mutant) m.MutantID
	Get(id m.MutantID) (m.Mutant, bool)
	Transition(id m.MutantID, status m.MutantStatus, reason string) error
	SetCoveringTests(id m.MutantID, tests m.CoveringTests) error
	Mutants() []m.Mutant
	Pending() []m.Mutant
	Counts() m.Summary
	Len() int
}

type record struct {
	mu     sync.Mutex
	mutant m.Mutant
}

type registry struct {
	next    atomic.Uint64
	mu      sync.RWMutex
	records map[m.MutantID]*record
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &registry{records: make(map[m.MutantID]*record)}
}

// Register assigns the next id, forces the Pending status and stores the mutant.
func (r *registry) Register(mutant m.Mutant) m.MutantID {
	id := m.MutantID(r.next.Add(1))

	mutant.ID = id
	mutant.Status = m.Pending
	mutant.StatusReason = ""

	r.mu.Lock()
	r.records[id] = &record{mutant: mutant}
	r.mu.Unlock()

	return id
}

func (r *registry) lookup(id m.MutantID) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]

	return rec, ok
}

func (r *registry) Get(id m.MutantID) (m.Mutant, bool) {
	rec, ok := r.lookup(id)
	if !ok {
		return m.Mutant{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.mutant, true
}

// Transition moves a Pending mutant to a terminal status. Any other move is
// rejected with ErrIllegalTransition and leaves the record untouched.
func (r *registry) Transition(id m.MutantID, status m.MutantStatus, reason string) error {
	rec, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("unknown mutant %s", id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.mutant.Status.CanTransition(status) {
		slog.Debug("Rejected status transition", "mutant", id, "from", rec.mutant.Status, "to", status)
		return fmt.Errorf("%w: mutant %s from %s to %s", m.ErrIllegalTransition, id, rec.mutant.Status, status)
	}

	rec.mutant.Status = status
	rec.mutant.StatusReason = reason

	return nil
}

// SetCoveringTests stores the covering set once; a computed set is never replaced.
func (r *registry) SetCoveringTests(id m.MutantID, tests m.CoveringTests) error {
	rec, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("unknown mutant %s", id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.mutant.CoveringTests.IsUnset() {
		return fmt.Errorf("covering tests of mutant %s already recorded", id)
	}

	rec.mutant.CoveringTests = tests

	return nil
}

// Mutants returns a snapshot of every mutant ordered by id.
func (r *registry) Mutants() []m.Mutant {
	r.mu.RLock()
	records := make([]*record, 0, len(r.records))

	for _, rec := range r.records {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	mutants := make([]m.Mutant, 0, len(records))

	for _, rec := range records {
		rec.mu.Lock()
		mutants = append(mutants, rec.mutant)
		rec.mu.Unlock()
	}

	slices.SortFunc(mutants, func(a, b m.Mutant) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return mutants
}

func (r *registry) Pending() []m.Mutant {
	var pending []m.Mutant

	for _, mutant := range r.Mutants() {
		if mutant.Status == m.Pending {
			pending = append(pending, mutant)
		}
	}

	return pending
}

func (r *registry) Counts() m.Summary {
	summary := make(m.Summary)
	for _, mutant := range r.Mutants() {
		summary[mutant.Status]++
	}

	return summary
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
