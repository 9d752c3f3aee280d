package domain

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/weevil/internal/domain/mutagens"
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

const calcSrc = `package calc

func Subtract(a, b int) int {
	return a - b
}

func Between(x, lo, hi int) bool {
	return lo <= x && x < hi
}
`

func parseTree(t *testing.T, path m.Path, src string) *syntax.Tree {
	t.Helper()

	tree, err := syntax.Parse(path, []byte(src))
	require.NoError(t, err)

	return tree
}

func findNode(t *testing.T, tree *syntax.Tree, kind syntax.Kind, op token.Token) syntax.Node {
	t.Helper()

	for node := range tree.Nodes() {
		if node.Kind == kind && node.Op == op {
			return node
		}
	}

	t.Fatalf("node %v %s not found in %s", kind, op, tree.Path())

	return syntax.Node{}
}

// registerTree registers every mutant the catalog proposes for tree and
// returns them in id order.
func registerTree(t *testing.T, registry Registry, tree *syntax.Tree, kinds ...m.MutatorKind) []m.Mutant {
	t.Helper()

	catalog, err := mutagens.NewCatalog(kinds...)
	require.NoError(t, err)

	found, err := collectMutants(tree, catalog, m.Path(filepath.Dir(string(tree.Path()))), ignoreIndex{})
	require.NoError(t, err)

	mutants := make([]m.Mutant, 0, len(found))
	for _, mutant := range found {
		mutant.ID = registry.Register(mutant)
		mutants = append(mutants, mutant)
	}

	return mutants
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func makeSource(root, short string) m.Source {
	return m.Source{
		Origin: &m.File{
			ShortPath: m.Path(short),
			FullPath:  m.Path(filepath.Join(root, short)),
		},
		Package: m.Path(filepath.Dir(short)),
	}
}

func statusOf(t *testing.T, registry Registry, id m.MutantID) m.MutantStatus {
	t.Helper()

	mutant, ok := registry.Get(id)
	require.True(t, ok, "mutant %s not registered", id)

	return mutant.Status
}
