// Package numtext extracts numeric tokens from free-form listing text such
// as "80-100㎡" or "总价约120万". Units, separators, and CJK characters are
// skipped without terminating the scan.
package numtext

import (
	"iter"
	"regexp"
)

// tokenPattern matches a maximal run of digits with an optional fractional
// part, e.g. "3", "89.5", "120.".
var tokenPattern = regexp.MustCompile(`\d+\.?\d*`)

// Numbers returns the numeric substrings of text in left-to-right order.
// The sequence is lazy and restartable: ranging over it a second time
// rescans from the start. Text with no digits yields an empty sequence.
func Numbers(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			loc := tokenPattern.FindStringIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[0]:loc[1]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// NumbersOf behaves like Numbers but accepts an arbitrary raw field value.
// A nil or non-string value contains no numeric tokens.
func NumbersOf(v any) iter.Seq[string] {
	s, ok := v.(string)
	if !ok {
		return func(func(string) bool) {}
	}
	return Numbers(s)
}

// All collects every numeric token of text into a slice.
func All(text string) []string {
	var tokens []string
	for tok := range Numbers(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}
