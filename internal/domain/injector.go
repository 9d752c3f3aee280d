package domain

import (
	"bytes"
	"cmp"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"

	"gooze.dev/pkg/weevil/internal/adapter"
	"gooze.dev/pkg/weevil/internal/domain/mutagens"
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// Injector renders syntax trees with a set of active mutants. Every node
// hosting active mutants becomes one guard call; the tree is never modified.
type Injector interface {
	Render(tree *syntax.Tree, active []m.Mutant) (m.RenderedUnit, error)
	Helper(dir m.Path, pkg string) m.RenderedUnit
}

type injector struct{}

// NewInjector creates a new Injector.
func NewInjector() Injector {
	return &injector{}
}

type host struct {
	node       ast.Node
	start, end int
	kind       m.MutatorKind
	mutants    []m.Mutant
}

type guardOffsets struct {
	mutants    []m.MutantID
	start, end int
}

type renderer struct {
	src    []byte
	file   *token.File
	hosts  []*host
	out    bytes.Buffer
	guards []guardOffsets
}

// Render splices guard calls into the original source. Text outside guards is
// copied byte for byte.
func (in *injector) Render(tree *syntax.Tree, active []m.Mutant) (m.RenderedUnit, error) {
	unit := m.RenderedUnit{Path: tree.Path(), Package: tree.Package()}
	src := tree.Source()

	if len(active) == 0 {
		unit.Source = src
		return unit, nil
	}

	byIndex, err := groupByNode(tree, active)
	if err != nil {
		return m.RenderedUnit{}, err
	}

	fset := token.NewFileSet()

	file, err := syntax.ParseFile(fset, tree.Path(), src)
	if err != nil {
		return m.RenderedUnit{}, fmt.Errorf("failed to parse %s: %w", tree.Path(), err)
	}

	r := &renderer{src: src, file: fset.File(file.Pos())}

	syntax.Walk(file, func(index int, n ast.Node) {
		mutants, ok := byIndex[index]
		if !ok {
			return
		}

		r.hosts = append(r.hosts, &host{
			node:    n,
			start:   r.offset(n.Pos()),
			end:     r.offset(n.End()),
			kind:    mutants[0].Kind,
			mutants: mutants,
		})
	})

	slices.SortFunc(r.hosts, func(a, b *host) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}

		return cmp.Compare(b.end, a.end)
	})

	if err := r.span(0, len(src)); err != nil {
		return m.RenderedUnit{}, err
	}

	rendered := r.out.Bytes()

	if _, err := parser.ParseFile(token.NewFileSet(), string(tree.Path()), rendered, parser.SkipObjectResolution); err != nil {
		return m.RenderedUnit{}, fmt.Errorf("%w: rendered %s does not parse: %w", m.ErrInvalidMutation, tree.Path(), err)
	}

	unit.Source = rendered
	unit.Guards = r.guardSpans()

	return unit, nil
}

// groupByNode validates the active mutants of tree and groups them by host node.
func groupByNode(tree *syntax.Tree, active []m.Mutant) (map[int][]m.Mutant, error) {
	byIndex := make(map[int][]m.Mutant)

	for _, mutant := range active {
		if mutant.Source != tree.Path() {
			return nil, fmt.Errorf("%w: mutant %s belongs to %s, not %s", m.ErrInvalidMutation, mutant.ID, mutant.Source, tree.Path())
		}

		node, ok := tree.Node(mutant.NodeIndex)
		if !ok {
			return nil, fmt.Errorf("%w: mutant %s targets missing node %d", m.ErrInvalidMutation, mutant.ID, mutant.NodeIndex)
		}

		if err := mutagens.ValidateReplacement(mutant.Kind, node, mutant.Replacement); err != nil {
			return nil, err
		}

		if others := byIndex[node.Index]; len(others) > 0 && others[0].Kind != mutant.Kind {
			return nil, fmt.Errorf("%w: node %d hosts %s and %s mutants", m.ErrInvalidMutation, node.Index, others[0].Kind, mutant.Kind)
		}

		byIndex[node.Index] = append(byIndex[node.Index], mutant)
	}

	for index := range byIndex {
		slices.SortFunc(byIndex[index], func(a, b m.Mutant) int {
			return cmp.Compare(a.ID, b.ID)
		})
	}

	return byIndex, nil
}

func (r *renderer) offset(pos token.Pos) int {
	return r.file.Offset(pos)
}

// span copies src[start:end], replacing the outermost hosts inside it with guards.
func (r *renderer) span(start, end int) error {
	cursor := start

	for _, h := range r.hosts {
		if h.start < cursor || h.end > end {
			continue
		}

		r.out.Write(r.src[cursor:h.start])

		if err := r.guard(h); err != nil {
			return err
		}

		cursor = h.end
	}

	r.out.Write(r.src[cursor:end])

	return nil
}

func (r *renderer) guard(h *host) error {
	begin := r.out.Len()

	var err error

	switch n := h.node.(type) {
	case *ast.BinaryExpr:
		err = r.binary(h, n)
	case *ast.UnaryExpr:
		err = r.unary(h, n)
	case *ast.Ident:
		r.out.WriteString("weevilBool(" + n.Name)
		r.alts(h)
		r.out.WriteString(")")
	default:
		err = fmt.Errorf("%w: node %T cannot host a guard", m.ErrInvalidMutation, h.node)
	}

	if err != nil {
		return err
	}

	ids := make([]m.MutantID, 0, len(h.mutants))
	for _, mutant := range h.mutants {
		ids = append(ids, mutant.ID)
	}

	r.guards = append(r.guards, guardOffsets{mutants: ids, start: begin, end: r.out.Len()})

	return nil
}

func (r *renderer) binary(h *host, n *ast.BinaryExpr) error {
	xs, xe := r.offset(n.X.Pos()), r.offset(n.X.End())
	ys, ye := r.offset(n.Y.Pos()), r.offset(n.Y.End())
	between := string(r.src[xe:ys])
	sep := ", " + strings.Repeat("\n", strings.Count(between, "\n"))

	var helper string

	switch h.kind {
	case m.MutatorArithmetic:
		helper = "weevilArith"
		if n.Op == token.REM {
			helper = "weevilIntArith"
		}
	case m.MutatorComparison:
		if mutagens.IsEqualityOp(n.Op) {
			return r.equality(h, xs, xe, ys, ye)
		}

		helper = "weevilCmp"
	case m.MutatorLogical:
		return r.logical(h, n, xs, xe, ys, ye, sep)
	default:
		return fmt.Errorf("%w: %s mutant on binary expression", m.ErrInvalidMutation, h.kind)
	}

	r.out.WriteString(helper + "(")

	if err := r.span(xs, xe); err != nil {
		return err
	}

	r.out.WriteString(sep)

	if err := r.span(ys, ye); err != nil {
		return err
	}

	r.out.WriteString(", " + strconv.Quote(n.Op.String()))
	r.alts(h)
	r.out.WriteString(")")

	return nil
}

// equality keeps the original comparison and lets the guard negate its result,
// so operands of any comparable or nil-comparable type are accepted.
func (r *renderer) equality(h *host, xs, xe, ys, ye int) error {
	r.out.WriteString("weevilEq(")

	if err := r.span(xs, xe); err != nil {
		return err
	}

	r.out.Write(r.src[xe:ys])

	if err := r.span(ys, ye); err != nil {
		return err
	}

	r.alts(h)
	r.out.WriteString(")")

	return nil
}

// logical evaluates the right operand in a closure to keep short-circuiting.
func (r *renderer) logical(h *host, n *ast.BinaryExpr, xs, xe, ys, ye int, sep string) error {
	r.out.WriteString("weevilLogic(")

	if err := r.span(xs, xe); err != nil {
		return err
	}

	r.out.WriteString(sep + "func() bool { return ")

	if err := r.span(ys, ye); err != nil {
		return err
	}

	r.out.WriteString(" }, " + strconv.Quote(n.Op.String()))
	r.alts(h)
	r.out.WriteString(")")

	return nil
}

func (r *renderer) unary(h *host, n *ast.UnaryExpr) error {
	var helper string

	switch n.Op {
	case token.SUB:
		helper = "weevilNeg"
	case token.NOT:
		helper = "weevilNot"
	default:
		return fmt.Errorf("%w: unary operator %s cannot host a guard", m.ErrInvalidMutation, n.Op)
	}

	r.out.WriteString(helper + "(")

	if err := r.span(r.offset(n.X.Pos()), r.offset(n.X.End())); err != nil {
		return err
	}

	r.alts(h)
	r.out.WriteString(")")

	return nil
}

func (r *renderer) alts(h *host) {
	for _, mutant := range h.mutants {
		fmt.Fprintf(&r.out, ", weevilAlt{%d, %s}", uint64(mutant.ID), strconv.Quote(replacementCode(mutant)))
	}
}

// replacementCode is the operator or literal a guard switches to.
func replacementCode(mutant m.Mutant) string {
	switch {
	case mutant.Replacement.Text != "":
		return mutant.Replacement.Text
	case mutant.Replacement.Op == token.ILLEGAL:
		return ""
	default:
		return mutant.Replacement.Op.String()
	}
}

func (r *renderer) guardSpans() []m.Guard {
	out := r.out.Bytes()
	lines := lineStarts(out)

	guards := make([]m.Guard, 0, len(r.guards))
	for _, g := range r.guards {
		guards = append(guards, m.Guard{
			Mutants: g.mutants,
			Span: m.Span{
				StartOffset: g.start,
				EndOffset:   g.end,
				Start:       positionAt(lines, g.start),
				End:         positionAt(lines, g.end),
			},
		})
	}

	slices.SortFunc(guards, func(a, b m.Guard) int {
		if c := cmp.Compare(a.Span.StartOffset, b.Span.StartOffset); c != 0 {
			return c
		}

		return cmp.Compare(a.Span.EndOffset, b.Span.EndOffset)
	})

	return guards
}

func lineStarts(src []byte) []int {
	starts := []int{0}

	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

func positionAt(lines []int, offset int) m.Position {
	line, found := slices.BinarySearch(lines, offset)
	if !found {
		line--
	}

	return m.Position{Line: line + 1, Column: offset - lines[line] + 1}
}

// Helper returns the generated file declaring the guard helpers for one package directory.
func (in *injector) Helper(dir m.Path, pkg string) m.RenderedUnit {
	return m.RenderedUnit{
		Path:    m.Path(path.Join(string(dir), adapter.HelperFileName)),
		Package: pkg,
		Source:  []byte(helperSource(pkg)),
	}
}

func helperSource(pkg string) string {
	return strings.NewReplacer(
		"{{package}}", pkg,
		"{{active}}", adapter.ActiveMutantEnv,
		"{{coverage}}", adapter.CoverageFileEnv,
	).Replace(helperTemplate)
}

const helperTemplate = `// Code generated by weevil. DO NOT EDIT.

package {{package}}

import (
	"os"
	"strconv"
	"sync"
)

type weevilAlt struct {
	id uint64
	op string
}

type weevilInteger interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type weevilNumber interface {
	weevilInteger | ~float32 | ~float64 | ~complex64 | ~complex128
}

type weevilOrdered interface {
	weevilInteger | ~float32 | ~float64 | ~string
}

var (
	weevilOnce   sync.Once
	weevilActive uint64
	weevilCover  *os.File
	weevilMu     sync.Mutex
	weevilSeen   = map[uint64]bool{}
)

func weevilSetup() {
	weevilActive, _ = strconv.ParseUint(os.Getenv("{{active}}"), 10, 64)
	if path := os.Getenv("{{coverage}}"); path != "" {
		weevilCover, _ = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	}
}

func weevilHit(id uint64) {
	weevilMu.Lock()
	defer weevilMu.Unlock()
	if weevilSeen[id] {
		return
	}
	weevilSeen[id] = true
	_, _ = weevilCover.WriteString(strconv.FormatUint(id, 10) + "\n")
}

func weevilPick(alts []weevilAlt) (string, bool) {
	weevilOnce.Do(weevilSetup)
	op, found := "", false
	for _, alt := range alts {
		if weevilCover != nil {
			weevilHit(alt.id)
		}
		if alt.id == weevilActive {
			op, found = alt.op, true
		}
	}
	return op, found
}

func weevilArith[T weevilNumber](x, y T, op string, alts ...weevilAlt) T {
	if alt, ok := weevilPick(alts); ok {
		op = alt
	}
	switch op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	default:
		return x / y
	}
}

func weevilIntArith[T weevilInteger](x, y T, op string, alts ...weevilAlt) T {
	if alt, ok := weevilPick(alts); ok {
		op = alt
	}
	switch op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		return x / y
	default:
		return x % y
	}
}

func weevilCmp[T weevilOrdered](x, y T, op string, alts ...weevilAlt) bool {
	if alt, ok := weevilPick(alts); ok {
		op = alt
	}
	switch op {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	default:
		return x >= y
	}
}

func weevilEq(v bool, alts ...weevilAlt) bool {
	if _, ok := weevilPick(alts); ok {
		return !v
	}
	return v
}

func weevilLogic(x bool, y func() bool, op string, alts ...weevilAlt) bool {
	if alt, ok := weevilPick(alts); ok {
		op = alt
	}
	if op == "&&" {
		return x && y()
	}
	return x || y()
}

func weevilBool(v bool, alts ...weevilAlt) bool {
	if _, ok := weevilPick(alts); ok {
		return !v
	}
	return v
}

func weevilNeg[T weevilNumber](x T, alts ...weevilAlt) T {
	if _, ok := weevilPick(alts); ok {
		return x
	}
	return -x
}

func weevilNot(v bool, alts ...weevilAlt) bool {
	if _, ok := weevilPick(alts); ok {
		return v
	}
	return !v
}
`
