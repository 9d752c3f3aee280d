package adapter

import (
	"cmp"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/packages"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can focus
// on mutation rules while delegating syntax details to go/parser.
type GoFileAdapter interface {
	// Parse builds the immutable syntax tree of a module-relative file.
	// constants are spans of the file known to be constant-valued.
	Parse(ctx context.Context, path m.Path, src []byte, constants []m.Span) (*syntax.Tree, error)

	// ConstantExprs type-checks the module at root and returns, per
	// module-relative file, the spans of binary and unary expressions the
	// compiler evaluates to a constant.
	ConstantExprs(ctx context.Context, root m.Path, tags []string) (map[m.Path][]m.Span, error)

	// DiscoverTests returns the top-level test functions declared in a _test.go file.
	DiscoverTests(ctx context.Context, source m.Source, src []byte) ([]m.TestDescription, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds the syntax tree for the provided path/source pair.
func (a *LocalGoFileAdapter) Parse(_ context.Context, path m.Path, src []byte, constants []m.Span) (*syntax.Tree, error) {
	return syntax.Parse(path, src, constants...)
}

const constantLoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// ConstantExprs loads every package under root through go/packages. Packages
// with type errors still contribute the expressions that were checked.
func (a *LocalGoFileAdapter) ConstantExprs(ctx context.Context, root m.Path, tags []string) (map[m.Path][]m.Span, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    constantLoadMode,
		Dir:     string(root),
	}

	if len(tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(tags, ",")}
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("load packages under %s: %w", root, err)
	}

	base := string(root)
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}

	spans := make(map[m.Path][]m.Span)
	files := make(map[string]m.Path)

	for _, pkg := range pkgs {
		if pkg.TypesInfo == nil {
			continue
		}

		for expr, tv := range pkg.TypesInfo.Types {
			if tv.Value == nil {
				continue
			}

			switch expr.(type) {
			case *ast.BinaryExpr, *ast.UnaryExpr:
			default:
				continue
			}

			filename := pkg.Fset.PositionFor(expr.Pos(), false).Filename

			path, seen := files[filename]
			if !seen {
				path = relativeTo(base, filename)
				files[filename] = path
			}

			if path == "" {
				continue
			}

			spans[path] = append(spans[path], syntax.SpanOf(pkg.Fset, expr.Pos(), expr.End()))
		}
	}

	for path := range spans {
		slices.SortFunc(spans[path], func(x, y m.Span) int {
			return cmp.Or(cmp.Compare(x.StartOffset, y.StartOffset), cmp.Compare(x.EndOffset, y.EndOffset))
		})
	}

	return spans, nil
}

// relativeTo returns filename relative to base, or "" when it lies outside.
func relativeTo(base, filename string) m.Path {
	if resolved, err := filepath.EvalSymlinks(filename); err == nil {
		filename = resolved
	}

	rel, err := filepath.Rel(base, filename)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	return m.Path(filepath.ToSlash(rel))
}

// DiscoverTests lists functions the go test runner would treat as tests:
// TestXxx(t *testing.T) where Xxx does not start with a lowercase letter.
func (a *LocalGoFileAdapter) DiscoverTests(_ context.Context, source m.Source, src []byte) ([]m.TestDescription, error) {
	if source.Origin == nil {
		return nil, nil
	}

	fset := token.NewFileSet()

	file, err := syntax.ParseFile(fset, source.Origin.ShortPath, src)
	if err != nil {
		return nil, err
	}

	testing := testingImportName(file)
	if testing == "" {
		return nil, nil
	}

	var tests []m.TestDescription

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !isTestName(fn.Name.Name) || !takesTestingT(fn, testing) {
			continue
		}

		tests = append(tests, m.TestDescription{
			ID:      m.NewTestID(source.Package, fn.Name.Name),
			Name:    fn.Name.Name,
			File:    source.Origin.ShortPath,
			Package: source.Package,
		})
	}

	return tests, nil
}

func testingImportName(file *ast.File) string {
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil || path != "testing" {
			continue
		}

		if spec.Name == nil {
			return "testing"
		}

		if spec.Name.Name == "_" || spec.Name.Name == "." {
			return ""
		}

		return spec.Name.Name
	}

	return ""
}

func isTestName(name string) bool {
	rest, ok := strings.CutPrefix(name, "Test")
	if !ok {
		return false
	}

	if rest == "" {
		return true
	}

	r, _ := utf8.DecodeRuneInString(rest)

	return !unicode.IsLower(r)
}

func takesTestingT(fn *ast.FuncDecl, testing string) bool {
	params := fn.Type.Params
	if params == nil || len(params.List) != 1 || len(params.List[0].Names) > 1 {
		return false
	}

	if fn.Type.TypeParams != nil && len(fn.Type.TypeParams.List) > 0 {
		return false
	}

	star, ok := params.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}

	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "T" {
		return false
	}

	pkg, ok := sel.X.(*ast.Ident)

	return ok && pkg.Name == testing
}
