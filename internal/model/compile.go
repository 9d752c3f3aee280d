package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMutation is returned when a mutator produces a structurally broken replacement.
var ErrInvalidMutation = errors.New("invalid mutation")

// BuildOptions are passed untouched to every compilation of a run.
type BuildOptions struct {
	Tags       []string
	ModFile    Path
	PGOProfile Path
}

// Severity of a compiler diagnostic.
type Severity int

const (
	// SeverityError fails the build.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not fail the build.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Diagnostic is one compiler message. File is empty when the toolchain did not
// report a position.
type Diagnostic struct {
	Severity Severity
	Message  string
	File     Path
	Pos      Position
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}

	return fmt.Sprintf("%s:%s: %s", d.File, d.Pos, d.Message)
}

// Guard records where the guard call hosting a set of mutants landed in a rendered file.
type Guard struct {
	Mutants []MutantID
	Span    Span
}

// RenderedUnit is one file of the module as it must be compiled.
type RenderedUnit struct {
	Path    Path
	Package string
	Source  []byte
	Guards  []Guard
}

// CompileRequest is the input of the compiler front end. Workspace is a copy of
// the module the units are written into.
type CompileRequest struct {
	Workspace Path
	Units     []RenderedUnit
	Packages  []Path
	Options   BuildOptions
}

// Artifact is the compiled module: a workspace plus one test binary per package.
type Artifact struct {
	Workspace Path
	Binaries  map[Path]Path
}

// Binary returns the test binary of pkg.
func (a Artifact) Binary(pkg Path) (Path, bool) {
	binary, ok := a.Binaries[pkg]
	return binary, ok
}

// CompileResult is the output of the compiler front end. Artifact is only
// meaningful when Diagnostics holds no error.
type CompileResult struct {
	Artifact    Artifact
	Diagnostics []Diagnostic
}

// Errors returns the error-severity diagnostics.
func (r CompileResult) Errors() []Diagnostic {
	var errs []Diagnostic

	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}

	return errs
}

// FatalConfigurationError aborts a run: the unmutated module does not build or
// the build options are unusable.
type FatalConfigurationError struct {
	Reason      string
	Diagnostics []Diagnostic
}

func (e *FatalConfigurationError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Reason
	}

	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, "  "+d.String())
	}

	return e.Reason + ":\n" + strings.Join(lines, "\n")
}
