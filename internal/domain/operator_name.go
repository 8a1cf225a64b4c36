package domain

import (
	"fmt"
	"strings"
)

const UnknownOperatorName = "Unknown"

// NameLookup resolves an operator code to a display name learned at runtime.
type NameLookup interface {
	Lookup(code string) (string, bool)
}

// ResolveOperatorName picks the best display name for a cell's carrier.
// Broadcast names win, then the built-in carrier table, then a name
// synthesized from the code, then "Unknown".
func ResolveOperatorName(alphaLong, alphaShort, operatorCode string) string {
	return ResolveOperatorNameWith(alphaLong, alphaShort, operatorCode, nil)
}

// ResolveOperatorNameWith is ResolveOperatorName with an extra lookup consulted
// after the built-in table.
func ResolveOperatorNameWith(alphaLong, alphaShort, operatorCode string, learned NameLookup) string {
	if usableAlpha(alphaLong) {
		return alphaLong
	}
	if usableAlpha(alphaShort) {
		return alphaShort
	}
	if hasOperatorCode(operatorCode) {
		if name, ok := KnownOperatorName(operatorCode); ok {
			return name
		}
		if learned != nil {
			if name, ok := learned.Lookup(operatorCode); ok && strings.TrimSpace(name) != "" {
				return name
			}
		}

		return fmt.Sprintf("Operator (%s)", operatorCode)
	}

	return UnknownOperatorName
}

// usableAlpha rejects blanks and the literal "null" some radios stringify.
func usableAlpha(v string) bool {
	return strings.TrimSpace(v) != "" && v != "null"
}

// KnownOperatorName looks the code up in the built-in carrier table.
func KnownOperatorName(operatorCode string) (string, bool) {
	name, ok := knownOperators[operatorCode]

	return name, ok
}
