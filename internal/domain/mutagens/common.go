// Package mutagens provides the mutator catalog: pure transforms from one
// syntax node to candidate replacements.
package mutagens

import (
	"fmt"
	"go/token"
	"iter"
	"slices"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// Catalog yields mutation candidates for the enabled mutator kinds.
type Catalog struct {
	kinds []m.MutatorKind
}

// NewCatalog builds a catalog for kinds. No kinds means every kind.
func NewCatalog(kinds ...m.MutatorKind) (*Catalog, error) {
	if len(kinds) == 0 {
		return &Catalog{kinds: slices.Clone(m.AllMutatorKinds)}, nil
	}

	for _, kind := range kinds {
		if !slices.Contains(m.AllMutatorKinds, kind) {
			return nil, fmt.Errorf("unsupported mutator kind: %s", kind)
		}
	}

	return &Catalog{kinds: slices.Clone(kinds)}, nil
}

// Kinds returns the enabled kinds in catalog order.
func (c *Catalog) Kinds() []m.MutatorKind {
	return slices.Clone(c.kinds)
}

// Mutate lazily yields every candidate for node. The node is never modified and
// identical nodes always yield identical sequences.
func (c *Catalog) Mutate(node syntax.Node) iter.Seq[m.Candidate] {
	return func(yield func(m.Candidate) bool) {
		for _, kind := range c.kinds {
			for _, replacement := range Alternatives(kind, node) {
				if !yield(m.Candidate{Kind: kind, Replacement: replacement}) {
					return
				}
			}
		}
	}
}

// Alternatives returns the replacements kind proposes for node.
func Alternatives(kind m.MutatorKind, node syntax.Node) []m.Replacement {
	switch kind {
	case m.MutatorArithmetic:
		return arithmeticAlternatives(node)
	case m.MutatorComparison:
		return comparisonAlternatives(node)
	case m.MutatorLogical:
		return logicalAlternatives(node)
	case m.MutatorBoolean:
		return booleanAlternatives(node)
	case m.MutatorUnary:
		return unaryAlternatives(node)
	default:
		return nil
	}
}

// ValidateReplacement rejects replacements that do not fit the node they target.
func ValidateReplacement(kind m.MutatorKind, node syntax.Node, replacement m.Replacement) error {
	var valid bool

	switch kind {
	case m.MutatorArithmetic:
		valid = node.Kind == syntax.KindBinary && isArithmeticOp(node.Op) && isArithmeticOp(replacement.Op)
	case m.MutatorComparison:
		valid = node.Kind == syntax.KindBinary && isComparisonOp(node.Op) && isComparisonOp(replacement.Op)
	case m.MutatorLogical:
		valid = node.Kind == syntax.KindBinary && isLogicalOp(node.Op) && isLogicalOp(replacement.Op)
	case m.MutatorBoolean:
		valid = node.Kind == syntax.KindIdent && isBooleanLiteral(node.Name) && isBooleanLiteral(replacement.Text)
	case m.MutatorUnary:
		valid = node.Kind == syntax.KindUnary && validUnaryReplacement(node.Op, replacement.Op)
	default:
		return fmt.Errorf("%w: unknown mutator kind %q", m.ErrInvalidMutation, kind)
	}

	if !valid {
		return fmt.Errorf("%w: %s replacement %q/%q does not fit node %d", m.ErrInvalidMutation, kind, replacement.Op, replacement.Text, node.Index)
	}

	if replacement.Op == node.Op && replacement.Text == node.Name {
		return fmt.Errorf("%w: %s replacement of node %d is the original", m.ErrInvalidMutation, kind, node.Index)
	}

	return nil
}

func binaryOp(node syntax.Node, accept func(token.Token) bool) (token.Token, bool) {
	if node.Kind != syntax.KindBinary || !accept(node.Op) {
		return token.ILLEGAL, false
	}

	return node.Op, true
}

func opReplacements(ops ...token.Token) []m.Replacement {
	replacements := make([]m.Replacement, 0, len(ops))
	for _, op := range ops {
		replacements = append(replacements, m.Replacement{Op: op})
	}

	return replacements
}
