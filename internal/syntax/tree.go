// Package syntax provides an immutable, index-addressed view over a parsed Go
// file. Mutators read it; the injector re-derives fresh ASTs from the same
// source, so the tree itself is never edited.
package syntax

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"iter"
	"slices"

	"golang.org/x/tools/go/ast/inspector"

	m "gooze.dev/pkg/weevil/internal/model"
)

// Kind is the generic category of an indexed node.
type Kind int

const (
	// KindOther is any node mutators do not look at.
	KindOther Kind = iota
	// KindBinary is a binary expression; Op holds its operator.
	KindBinary
	// KindUnary is a unary expression; Op holds its operator.
	KindUnary
	// KindIdent is an identifier; Name holds it.
	KindIdent
)

// Node is a read-only view of one node of the tree. Constant is set for nodes
// inside a const declaration or an array length, and for nodes of expressions
// whose value is a compile-time constant. Go evaluates those exactly, so a
// guard computing them at run time would change the program.
type Node struct {
	Index    int
	Kind     Kind
	Op       token.Token
	Name     string
	Span     m.Span
	OpSpan   m.Span
	Constant bool
	// StringOperand marks a binary expression with a string literal operand.
	StringOperand bool
}

// Tree is an immutable, pre-order indexed Go file.
type Tree struct {
	path  m.Path
	pkg   string
	src   []byte
	nodes []Node
}

// ParseFile parses src with the mode shared by every tree consumer.
func ParseFile(fset *token.FileSet, path m.Path, src []byte) (*ast.File, error) {
	return parser.ParseFile(fset, string(path), src, parser.ParseComments|parser.SkipObjectResolution)
}

// Walk visits every node of file in pre-order and hands out its index. Trees and
// renderers built from the same source therefore agree on indices.
func Walk(file *ast.File, fn func(index int, node ast.Node)) {
	index := 0

	inspector.New([]*ast.File{file}).Preorder(nil, func(n ast.Node) {
		fn(index, n)
		index++
	})
}

// Parse builds a tree for the file at path (relative to the module root).
// Nodes inside any of constants, spans the type checker evaluated to a
// constant, are marked Constant as well.
func Parse(path m.Path, src []byte, constants ...m.Span) (*Tree, error) {
	fset := token.NewFileSet()

	file, err := ParseFile(fset, path, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tree := &Tree{
		path: path,
		pkg:  file.Name.Name,
		src:  slices.Clone(src),
	}

	constant := constantRanges(file)

	base := fset.File(file.Pos())
	for _, span := range constants {
		if span.StartOffset < 0 || span.EndOffset > base.Size() || span.StartOffset >= span.EndOffset {
			continue
		}

		constant = append(constant, [2]token.Pos{base.Pos(span.StartOffset), base.Pos(span.EndOffset)})
	}

	Walk(file, func(index int, n ast.Node) {
		node := Node{
			Index:    index,
			Span:     SpanOf(fset, n.Pos(), n.End()),
			Constant: constant.contains(n.Pos()),
		}

		switch e := n.(type) {
		case *ast.BinaryExpr:
			node.Kind = KindBinary
			node.Op = e.Op
			node.OpSpan = SpanOf(fset, e.OpPos, e.OpPos+token.Pos(len(e.Op.String())))
			node.StringOperand = isStringLit(e.X) || isStringLit(e.Y)
		case *ast.UnaryExpr:
			node.Kind = KindUnary
			node.Op = e.Op
			node.OpSpan = SpanOf(fset, e.OpPos, e.OpPos+token.Pos(len(e.Op.String())))
		case *ast.Ident:
			node.Kind = KindIdent
			node.Name = e.Name
		}

		tree.nodes = append(tree.nodes, node)
	})

	return tree, nil
}

type posRanges [][2]token.Pos

func (r posRanges) contains(pos token.Pos) bool {
	for _, rng := range r {
		if pos >= rng[0] && pos < rng[1] {
			return true
		}
	}

	return false
}

func constantRanges(file *ast.File) posRanges {
	var ranges posRanges

	names := constNames(file)

	ast.Inspect(file, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.GenDecl:
			if e.Tok == token.CONST {
				ranges = append(ranges, [2]token.Pos{e.Pos(), e.End()})
				return false
			}
		case *ast.ArrayType:
			if e.Len != nil {
				ranges = append(ranges, [2]token.Pos{e.Len.Pos(), e.Len.End()})
			}
		case *ast.BinaryExpr, *ast.UnaryExpr:
			if isConstExpr(e.(ast.Expr), names) {
				ranges = append(ranges, [2]token.Pos{e.Pos(), e.End()})
				return false
			}
		}

		return true
	})

	return ranges
}

// constNames collects every identifier declared by a const declaration of the
// file, at any scope. A shadowing variable only costs mutants, never validity.
func constNames(file *ast.File) map[string]bool {
	names := map[string]bool{"iota": true, "true": true, "false": true}

	ast.Inspect(file, func(n ast.Node) bool {
		decl, ok := n.(*ast.GenDecl)
		if !ok || decl.Tok != token.CONST {
			return true
		}

		for _, spec := range decl.Specs {
			for _, name := range spec.(*ast.ValueSpec).Names {
				names[name.Name] = true
			}
		}

		return false
	})

	return names
}

// isConstExpr reports whether expr is built only from literals and constants
// the file itself declares. Constants of other files and packages need type
// information and reach Parse as spans.
func isConstExpr(expr ast.Expr, names map[string]bool) bool {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return true
	case *ast.Ident:
		return names[e.Name]
	case *ast.ParenExpr:
		return isConstExpr(e.X, names)
	case *ast.UnaryExpr:
		switch e.Op {
		case token.ADD, token.SUB, token.NOT, token.XOR:
			return isConstExpr(e.X, names)
		}
	case *ast.BinaryExpr:
		return isConstExpr(e.X, names) && isConstExpr(e.Y, names)
	}

	return false
}

func isStringLit(expr ast.Expr) bool {
	lit, ok := ast.Unparen(expr).(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}

// SpanOf converts a token range into a model span.
func SpanOf(fset *token.FileSet, start, end token.Pos) m.Span {
	from := fset.PositionFor(start, false)
	to := fset.PositionFor(end, false)

	return m.Span{
		StartOffset: from.Offset,
		EndOffset:   to.Offset,
		Start:       m.Position{Line: from.Line, Column: from.Column},
		End:         m.Position{Line: to.Line, Column: to.Column},
	}
}

// Path is the module-relative path of the file.
func (t *Tree) Path() m.Path { return t.path }

// Package is the package clause name.
func (t *Tree) Package() string { return t.pkg }

// Source returns a copy of the original file contents.
func (t *Tree) Source() []byte { return slices.Clone(t.src) }

// Len is the number of indexed nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node at index.
func (t *Tree) Node(index int) (Node, bool) {
	if index < 0 || index >= len(t.nodes) {
		return Node{}, false
	}

	return t.nodes[index], true
}

// Nodes yields every node in index order.
func (t *Tree) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, node := range t.nodes {
			if !yield(node) {
				return
			}
		}
	}
}

// Text returns the original source covered by span.
func (t *Tree) Text(span m.Span) string {
	if span.StartOffset < 0 || span.EndOffset > len(t.src) || span.StartOffset > span.EndOffset {
		return ""
	}

	return string(t.src[span.StartOffset:span.EndOffset])
}

// Line returns the full source line holding offset, without its newline.
func (t *Tree) Line(offset int) (string, int) {
	if offset < 0 || offset > len(t.src) {
		return "", 0
	}

	start := offset
	for start > 0 && t.src[start-1] != '\n' {
		start--
	}

	end := offset
	for end < len(t.src) && t.src[end] != '\n' {
		end++
	}

	return string(t.src[start:end]), start
}
