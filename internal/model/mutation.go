// Package model defines the data structures for mutation testing.
package model

import (
	"go/token"
	"slices"
	"strconv"
)

// MutantID identifies a mutant. IDs start at 1; NoMutant selects the original code.
type MutantID uint64

// NoMutant is the selector value under which every guard behaves like the original code.
const NoMutant MutantID = 0

func (id MutantID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MutatorKind represents the category of mutation.
type MutatorKind string

const (
	// MutatorArithmetic represents arithmetic operator mutations (+, -, *, /, %).
	MutatorArithmetic MutatorKind = "arithmetic"
	// MutatorComparison represents relational and equality operator mutations.
	MutatorComparison MutatorKind = "comparison"
	// MutatorLogical represents && <-> || mutations.
	MutatorLogical MutatorKind = "logical"
	// MutatorBoolean represents boolean literal mutations (true <-> false).
	MutatorBoolean MutatorKind = "boolean"
	// MutatorUnary represents removal of unary negation (-x, !x).
	MutatorUnary MutatorKind = "unary"
)

// AllMutatorKinds is the closed set of mutator kinds, in catalog order.
var AllMutatorKinds = []MutatorKind{
	MutatorArithmetic,
	MutatorComparison,
	MutatorLogical,
	MutatorBoolean,
	MutatorUnary,
}

// Replacement describes the node a mutant swaps in. Operator mutants set Op;
// literal mutants set Text. A unary replacement with Op == token.ILLEGAL drops the operator.
type Replacement struct {
	Op   token.Token
	Text string
}

// Candidate is one (kind, replacement) pair produced by the catalog for a node.
type Candidate struct {
	Kind        MutatorKind
	Replacement Replacement
}

// CoveringTests is the tri-state set of tests reaching a mutant:
// unset (coverage not computed), empty, or populated.
type CoveringTests struct {
	Computed bool
	IDs      []TestID
}

// UnsetCoverage is the zero value, spelled out for readability at call sites.
var UnsetCoverage = CoveringTests{}

// NewCoveringTests returns a computed set holding ids, sorted.
func NewCoveringTests(ids ...TestID) CoveringTests {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	return CoveringTests{Computed: true, IDs: slices.Compact(sorted)}
}

// IsUnset reports whether coverage was never computed.
func (c CoveringTests) IsUnset() bool {
	return !c.Computed
}

// IsEmpty reports whether coverage was computed and no test reached the mutant.
func (c CoveringTests) IsEmpty() bool {
	return c.Computed && len(c.IDs) == 0
}

// Contains reports whether id is one of the covering tests.
func (c CoveringTests) Contains(id TestID) bool {
	return slices.Contains(c.IDs, id)
}

// Mutant is one candidate alteration of program behaviour at a single location.
type Mutant struct {
	ID            MutantID
	Kind          MutatorKind
	Source        Path
	Package       Path
	NodeIndex     int
	Span          Span
	OriginalOp    token.Token
	Replacement   Replacement
	OriginalText  string
	MutatedText   string
	DiffCode      string
	Status        MutantStatus
	StatusReason  string
	CoveringTests CoveringTests
}
