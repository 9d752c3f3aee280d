package model

import "fmt"

// Path represents a file system path. Paths stored on mutants and tests are
// relative to the module root.
type Path string

// File represents a source code file.
type File struct {
	ShortPath Path
	FullPath  Path
	Hash      string
}

// Source represents a Go file together with the module-relative directory of
// the package it belongs to.
type Source struct {
	Origin  *File
	Package Path
}

// Position is a line/column pair, both 1-based.
type Position struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}

	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range [StartOffset, EndOffset) with its line/column bounds.
type Span struct {
	StartOffset int      `yaml:"start_offset"`
	EndOffset   int      `yaml:"end_offset"`
	Start       Position `yaml:"start"`
	End         Position `yaml:"end"`
}

// Contains reports whether pos lies inside the span. The end position is inclusive
// so that diagnostics pointing at a closing token still match.
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && !s.End.Before(pos)
}

// Encloses reports whether s fully contains o.
func (s Span) Encloses(o Span) bool {
	return s.Contains(o.Start) && s.Contains(o.End)
}

// Size is the span length in bytes.
func (s Span) Size() int {
	return s.EndOffset - s.StartOffset
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
