package mutagens

import (
	"go/token"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// comparisonSwaps lists a boundary shift first, then the negation where one applies.
var comparisonSwaps = map[token.Token][]token.Token{
	token.LSS: {token.LEQ, token.GEQ},
	token.LEQ: {token.LSS, token.GTR},
	token.GTR: {token.GEQ, token.LEQ},
	token.GEQ: {token.GTR, token.LSS},
	token.EQL: {token.NEQ},
	token.NEQ: {token.EQL},
}

func comparisonAlternatives(node syntax.Node) []m.Replacement {
	op, ok := binaryOp(node, isComparisonOp)
	if !ok {
		return nil
	}

	return opReplacements(comparisonSwaps[op]...)
}

func isComparisonOp(op token.Token) bool {
	_, ok := comparisonSwaps[op]
	return ok
}

// IsEqualityOp reports whether op only needs comparable operands.
func IsEqualityOp(op token.Token) bool {
	return op == token.EQL || op == token.NEQ
}
