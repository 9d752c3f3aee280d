package domain

import (
	"go/ast"
	"go/token"
	"slices"
	"strings"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// ignoreDirective silences mutants. Without arguments it applies to every
// kind, otherwise to the comma-separated kinds that follow it.
const ignoreDirective = "//weevil:ignore"

type ignoreRule struct {
	set   bool
	kinds []m.MutatorKind
}

func (r ignoreRule) ignores(kind m.MutatorKind) bool {
	return r.set && (len(r.kinds) == 0 || slices.Contains(r.kinds, kind))
}

type funcIgnore struct {
	start, end int
	rule       ignoreRule
}

// ignoreIndex resolves //weevil:ignore comments. A directive above the package
// clause covers the file, one in a function doc comment covers the function,
// any other covers its own line and the next one.
type ignoreIndex struct {
	file  ignoreRule
	funcs []funcIgnore
	lines map[int]ignoreRule
}

func (ix ignoreIndex) ignores(node syntax.Node, kind m.MutatorKind) bool {
	if ix.file.ignores(kind) {
		return true
	}

	for _, fn := range ix.funcs {
		if node.Span.StartOffset >= fn.start && node.Span.StartOffset < fn.end && fn.rule.ignores(kind) {
			return true
		}
	}

	return ix.lines[node.Span.Start.Line].ignores(kind)
}

func buildIgnoreIndex(tree *syntax.Tree) (ignoreIndex, error) {
	ix := ignoreIndex{lines: make(map[int]ignoreRule)}

	fset := token.NewFileSet()

	file, err := syntax.ParseFile(fset, tree.Path(), tree.Source())
	if err != nil {
		return ix, err
	}

	docs := make(map[*ast.CommentGroup]bool)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}

		docs[fn.Doc] = true

		if rule, ok := parseIgnore(fn.Doc); ok {
			ix.funcs = append(ix.funcs, funcIgnore{
				start: fset.Position(fn.Pos()).Offset,
				end:   fset.Position(fn.End()).Offset,
				rule:  rule,
			})
		}
	}

	for _, group := range file.Comments {
		if docs[group] {
			continue
		}

		rule, ok := parseIgnore(group)
		if !ok {
			continue
		}

		if group.End() < file.Package {
			ix.file = rule
			continue
		}

		line := fset.Position(group.End()).Line
		ix.lines[line] = rule
		ix.lines[line+1] = rule
	}

	return ix, nil
}

func parseIgnore(group *ast.CommentGroup) (ignoreRule, bool) {
	for _, comment := range group.List {
		rest, ok := strings.CutPrefix(comment.Text, ignoreDirective)
		if !ok || (rest != "" && rest[0] != ' ') {
			continue
		}

		rule := ignoreRule{set: true}

		for _, kind := range strings.Split(strings.TrimSpace(rest), ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				rule.kinds = append(rule.kinds, m.MutatorKind(kind))
			}
		}

		return rule, true
	}

	return ignoreRule{}, false
}
