package mutagens

import (
	"go/token"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// unaryAlternatives drops negations: -x becomes +x and !x becomes x.
func unaryAlternatives(node syntax.Node) []m.Replacement {
	if node.Kind != syntax.KindUnary {
		return nil
	}

	switch node.Op {
	case token.SUB:
		return []m.Replacement{{Op: token.ADD}}
	case token.NOT:
		return []m.Replacement{{Op: token.ILLEGAL}}
	default:
		return nil
	}
}

func validUnaryReplacement(original, replacement token.Token) bool {
	switch original {
	case token.SUB:
		return replacement == token.ADD
	case token.NOT:
		return replacement == token.ILLEGAL
	default:
		return false
	}
}
