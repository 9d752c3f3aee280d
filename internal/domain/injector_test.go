package domain

import (
	"bytes"
	"context"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

func guardText(unit m.RenderedUnit, guard m.Guard) string {
	return string(unit.Source[guard.Span.StartOffset:guard.Span.EndOffset])
}

func TestInjector_RenderWithoutMutantsKeepsSource(t *testing.T) {
	tree := parseTree(t, "calc/calc.go", calcSrc)

	unit, err := NewInjector().Render(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, calcSrc, string(unit.Source))
	assert.Equal(t, m.Path("calc/calc.go"), unit.Path)
	assert.Equal(t, "calc", unit.Package)
	assert.Empty(t, unit.Guards)
}

func TestInjector_RenderArithmetic(t *testing.T) {
	tree := parseTree(t, "calc/calc.go", calcSrc)
	mutants := registerTree(t, NewRegistry(), tree, m.MutatorArithmetic)
	require.Len(t, mutants, 1)

	unit, err := NewInjector().Render(tree, mutants)
	require.NoError(t, err)

	assert.Contains(t, string(unit.Source), `return weevilArith(a, b, "-", weevilAlt{1, "+"})`)
	require.Len(t, unit.Guards, 1)
	assert.Equal(t, []m.MutantID{1}, unit.Guards[0].Mutants)
	assert.Equal(t, `weevilArith(a, b, "-", weevilAlt{1, "+"})`, guardText(unit, unit.Guards[0]))
	assert.Equal(t, 4, unit.Guards[0].Span.Start.Line)
	assert.Equal(t, calcSrc, string(tree.Source()))
}

func TestInjector_RenderNestedGuards(t *testing.T) {
	tree := parseTree(t, "calc/calc.go", calcSrc)
	mutants := registerTree(t, NewRegistry(), tree)
	require.Len(t, mutants, 6)

	unit, err := NewInjector().Render(tree, mutants)
	require.NoError(t, err)

	want := `return weevilLogic(weevilCmp(lo, x, "<=", weevilAlt{3, "<"}, weevilAlt{4, ">"}), ` +
		`func() bool { return weevilCmp(x, hi, "<", weevilAlt{5, "<="}, weevilAlt{6, ">="}) }, "&&", weevilAlt{2, "||"})`
	assert.Contains(t, string(unit.Source), want)

	require.Len(t, unit.Guards, 4)

	texts := make(map[m.MutantID]string)
	for _, guard := range unit.Guards {
		texts[guard.Mutants[0]] = guardText(unit, guard)
	}

	assert.Equal(t, `weevilCmp(lo, x, "<=", weevilAlt{3, "<"}, weevilAlt{4, ">"})`, texts[3])
	assert.Equal(t, `weevilCmp(x, hi, "<", weevilAlt{5, "<="}, weevilAlt{6, ">="})`, texts[5])
	assert.True(t, strings.HasPrefix(texts[2], "weevilLogic("))
	assert.True(t, strings.HasSuffix(texts[2], `"&&", weevilAlt{2, "||"})`))
}

func TestInjector_RenderSubsetOnlyGuardsActive(t *testing.T) {
	tree := parseTree(t, "calc/calc.go", calcSrc)
	mutants := registerTree(t, NewRegistry(), tree)

	unit, err := NewInjector().Render(tree, []m.Mutant{mutants[4]})
	require.NoError(t, err)

	assert.Contains(t, string(unit.Source), `return lo <= x && weevilCmp(x, hi, "<", weevilAlt{5, "<="})`)
	assert.Contains(t, string(unit.Source), "return a - b")
	require.Len(t, unit.Guards, 1)
}

func TestInjector_RenderKeepsLineNumbers(t *testing.T) {
	src := `package calc

func Sum(a, b int) int {
	return a +
		b
}

func Done() bool { return true }
`
	tree := parseTree(t, "calc/sum.go", src)
	mutants := registerTree(t, NewRegistry(), tree)

	unit, err := NewInjector().Render(tree, mutants)
	require.NoError(t, err)

	assert.Equal(t, bytes.Count([]byte(src), []byte("\n")), bytes.Count(unit.Source, []byte("\n")))
	assert.Contains(t, string(unit.Source), "func Done() bool { return weevilBool(true, weevilAlt{2, \"false\"}) }")

	last := unit.Guards[len(unit.Guards)-1]
	assert.Equal(t, 8, last.Span.Start.Line)
}

func TestInjector_RenderUnaryAndEquality(t *testing.T) {
	src := `package calc

func Flip(a int, ok bool, err error) (int, bool, bool) {
	return -a, !ok, err == nil
}
`
	tree := parseTree(t, "calc/flip.go", src)
	mutants := registerTree(t, NewRegistry(), tree)

	unit, err := NewInjector().Render(tree, mutants)
	require.NoError(t, err)

	rendered := string(unit.Source)
	assert.Contains(t, rendered, `weevilNeg(a, weevilAlt{`)
	assert.Contains(t, rendered, `weevilNot(ok, weevilAlt{`)
	assert.Contains(t, rendered, `weevilEq(err == nil, weevilAlt{`)
	assert.Contains(t, rendered, `"!="})`)
}

func TestInjector_RenderRejectsInvalidMutants(t *testing.T) {
	tree := parseTree(t, "calc/calc.go", calcSrc)
	node := findNode(t, tree, syntax.KindBinary, token.SUB)

	tests := []struct {
		name   string
		mutant m.Mutant
	}{
		{
			name:   "other file",
			mutant: m.Mutant{ID: 1, Kind: m.MutatorArithmetic, Source: "calc/other.go", NodeIndex: node.Index, Replacement: m.Replacement{Op: token.ADD}},
		},
		{
			name:   "missing node",
			mutant: m.Mutant{ID: 1, Kind: m.MutatorArithmetic, Source: "calc/calc.go", NodeIndex: tree.Len() + 10, Replacement: m.Replacement{Op: token.ADD}},
		},
		{
			name:   "wrong family",
			mutant: m.Mutant{ID: 1, Kind: m.MutatorArithmetic, Source: "calc/calc.go", NodeIndex: node.Index, Replacement: m.Replacement{Op: token.LAND}},
		},
		{
			name:   "identity",
			mutant: m.Mutant{ID: 1, Kind: m.MutatorArithmetic, Source: "calc/calc.go", NodeIndex: node.Index, Replacement: m.Replacement{Op: token.SUB}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInjector().Render(tree, []m.Mutant{tt.mutant})
			require.ErrorIs(t, err, m.ErrInvalidMutation)
		})
	}
}

func TestInjector_Helper(t *testing.T) {
	unit := NewInjector().Helper("internal/calc", "calc")

	assert.Equal(t, m.Path("internal/calc/zz_weevil_helpers.go"), unit.Path)
	assert.Equal(t, "calc", unit.Package)

	src := string(unit.Source)
	assert.Contains(t, src, "package calc\n")
	assert.Contains(t, src, `os.Getenv("WEEVIL_ACTIVE_MUTANT")`)
	assert.Contains(t, src, `os.Getenv("WEEVIL_COVERAGE_FILE")`)
	assert.NotContains(t, src, "{{")

	_, err := syntax.Parse(unit.Path, unit.Source)
	require.NoError(t, err)
}

const constantsProgram = `package main

import "fmt"

func main() {
	n := 3
	fmt.Println(0.1+0.2 == 0.3, 1<<62*4/8, -1.5*2, n*2 > 5, !false && n > 0)
}
`

// runProgram runs the main package in dir with no mutant active.
func runProgram(t *testing.T, dir string) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "WEEVIL_ACTIVE_MUTANT=0")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	return string(out)
}

func TestInjector_RenderedProgramMatchesOriginal(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles with the go tool")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go tool not available")
	}

	tree := parseTree(t, "main.go", constantsProgram)
	mutants := registerTree(t, NewRegistry(), tree)
	require.NotEmpty(t, mutants)

	for _, mutant := range mutants {
		assert.NotContains(t, []string{"0.1+0.2", "0.1+0.2 == 0.3", "1<<62*4/8", "-1.5*2", "!false"}, mutant.OriginalText)
	}

	in := NewInjector()

	unit, err := in.Render(tree, mutants)
	require.NoError(t, err)

	helper := in.Helper(".", "main")
	goMod := "module example.com/constants\n\ngo 1.22\n"

	original := t.TempDir()
	writeFile(t, filepath.Join(original, "go.mod"), goMod)
	writeFile(t, filepath.Join(original, "main.go"), constantsProgram)

	rendered := t.TempDir()
	writeFile(t, filepath.Join(rendered, "go.mod"), goMod)
	writeFile(t, filepath.Join(rendered, "main.go"), string(unit.Source))
	writeFile(t, filepath.Join(rendered, string(helper.Path)), string(helper.Source))

	want := runProgram(t, original)

	assert.Equal(t, "true 2305843009213693952 -3 true true\n", want)
	assert.Equal(t, want, runProgram(t, rendered))
}
