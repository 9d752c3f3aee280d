package mutagens

import (
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

func booleanAlternatives(node syntax.Node) []m.Replacement {
	if node.Kind != syntax.KindIdent || !isBooleanLiteral(node.Name) {
		return nil
	}

	return []m.Replacement{{Text: flipBoolean(node.Name)}}
}

// isBooleanLiteral checks if a string is a boolean literal.
func isBooleanLiteral(name string) bool {
	return name == trueStr || name == falseStr
}

// flipBoolean returns the opposite boolean literal.
func flipBoolean(original string) string {
	if original == trueStr {
		return falseStr
	}

	return trueStr
}
