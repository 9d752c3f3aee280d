package model

import "errors"

// ErrIllegalTransition is returned when a status change would leave a terminal state.
var ErrIllegalTransition = errors.New("illegal mutant status transition")

// MutantStatus is the lifecycle state of a mutant.
type MutantStatus int

const (
	// Pending is assigned at registration; every other state is terminal.
	Pending MutantStatus = iota
	// NoCoverage marks mutants that no test reaches.
	NoCoverage
	// CompileError marks mutants rolled back because they broke compilation.
	CompileError
	// Ignored marks mutants removed by a static filter (since, shard).
	Ignored
	// Killed indicates the mutation was detected by tests.
	Killed
	// Survived indicates the mutation was not detected by tests.
	Survived
	// Timeout indicates a covering test ran past its deadline.
	Timeout
	// RuntimeError indicates the test process could not report a result.
	RuntimeError
)

// AllStatuses lists every status in display order.
var AllStatuses = []MutantStatus{Pending, Killed, Survived, Timeout, NoCoverage, CompileError, RuntimeError, Ignored}

func (s MutantStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case NoCoverage:
		return "nocoverage"
	case CompileError:
		return "compileerror"
	case Ignored:
		return "ignored"
	case Killed:
		return "killed"
	case Survived:
		return "survived"
	case Timeout:
		return "timeout"
	case RuntimeError:
		return "runtimeerror"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition may leave s.
func (s MutantStatus) IsTerminal() bool {
	return s != Pending
}

// CanTransition reports whether a mutant may move from s to next.
func (s MutantStatus) CanTransition(next MutantStatus) bool {
	return s == Pending && next != Pending && next.String() != "unknown"
}

// ParseMutantStatus is the inverse of MutantStatus.String.
func ParseMutantStatus(value string) (MutantStatus, bool) {
	for _, status := range AllStatuses {
		if status.String() == value {
			return status, true
		}
	}

	return Pending, false
}
