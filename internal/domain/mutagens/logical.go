package mutagens

import (
	"go/token"

	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

func logicalAlternatives(node syntax.Node) []m.Replacement {
	op, ok := binaryOp(node, isLogicalOp)
	if !ok {
		return nil
	}

	if op == token.LAND {
		return opReplacements(token.LOR)
	}

	return opReplacements(token.LAND)
}

func isLogicalOp(op token.Token) bool {
	return op == token.LAND || op == token.LOR
}
