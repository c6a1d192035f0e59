package network

import "strings"

// Metabolite and fragment ids are restricted to [A-Za-z0-9_] by the
// estimation tool. These substitutions are reversed bit-exactly when result
// ids are parsed.
const (
	EscapedDash   = "_DASH_"
	EscapedLParen = "_LPARANTHES_"
	EscapedRParen = "_RPARANTHES_"
)

var (
	escaper   = strings.NewReplacer("-", EscapedDash, "(", EscapedLParen, ")", EscapedRParen)
	unescaper = strings.NewReplacer(EscapedDash, "-", EscapedLParen, "(", EscapedRParen, ")")
)

// EscapeID replaces '-', '(' and ')' with their escape tokens.
func EscapeID(id string) string {
	return escaper.Replace(id)
}

// UnescapeID reverses EscapeID.
func UnescapeID(id string) string {
	return unescaper.Replace(id)
}

// ExchangeID returns the id of the exchange placeholder for an open reaction.
func ExchangeID(id string) string {
	return id + ".EX"
}
