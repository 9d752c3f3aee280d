package mutagens

import (
	"go/token"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// arithmeticSwaps pairs each operator with its replacement. % has no inverse so it
// maps to *, which keeps the expression valid for every integer type.
var arithmeticSwaps = map[token.Token]token.Token{
	token.ADD: token.SUB,
	token.SUB: token.ADD,
	token.MUL: token.QUO,
	token.QUO: token.MUL,
	token.REM: token.MUL,
}

// arithmeticAlternatives skips concatenations with a string literal: no swap
// of + compiles on strings.
func arithmeticAlternatives(node syntax.Node) []m.Replacement {
	op, ok := binaryOp(node, isArithmeticOp)
	if !ok || node.StringOperand {
		return nil
	}

	return opReplacements(arithmeticSwaps[op])
}

// isArithmeticOp checks if a token is an arithmetic operator.
func isArithmeticOp(op token.Token) bool {
	_, ok := arithmeticSwaps[op]
	return ok
}
