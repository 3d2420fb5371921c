// Package depspec models the textual dependency-declaration grammar: the
// expectation operator applied to a pattern's match count (`+`, `?`, `*`, or
// an exact integer) and the result filter naming which terminal statuses a
// matched dependency may finish with (`*` or an "or"-separated status list).
//
// Both grammars are parsed exactly once, when a declaration is constructed,
// into small closed variant types. Evaluation afterwards is a pure switch
// over the variant -- no string inspection happens on the hot path.
package depspec

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpectKind discriminates the expectation operator variants.
type ExpectKind int

const (
	// ExpectAtLeastOne is the `+` operator: satisfied iff count >= 1.
	ExpectAtLeastOne ExpectKind = iota

	// ExpectAtMostOne is the `?` operator: satisfied iff count is 0 or 1.
	ExpectAtMostOne

	// ExpectAny is the `*` operator: satisfied for every count, used to
	// explicitly permit zero matches.
	ExpectAny

	// ExpectExact is an integer literal N: satisfied iff count == N.
	ExpectExact
)

// Expect is a parsed expectation operator. The zero value is ExpectAtLeastOne
// with raw text "+", matching the manifest default.
type Expect struct {
	Kind ExpectKind

	// N is the required count for ExpectExact; zero otherwise.
	N int

	raw string
}

// ParseExpect parses the textual expectation operator. An unknown operator is
// a configuration error: it is reported and never silently treated as `*`.
func ParseExpect(text string) (Expect, error) {
	s := strings.TrimSpace(text)
	switch s {
	case "+":
		return Expect{Kind: ExpectAtLeastOne, raw: s}, nil
	case "?":
		return Expect{Kind: ExpectAtMostOne, raw: s}, nil
	case "*":
		return Expect{Kind: ExpectAny, raw: s}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Expect{}, fmt.Errorf("unknown expectation operator %q (want +, ?, *, or a non-negative integer)", text)
	}
	return Expect{Kind: ExpectExact, N: n, raw: s}, nil
}

// Satisfied reports whether the given match count meets the expectation.
func (e Expect) Satisfied(count int) bool {
	switch e.Kind {
	case ExpectAtLeastOne:
		return count >= 1
	case ExpectAtMostOne:
		return count <= 1
	case ExpectAny:
		return true
	case ExpectExact:
		return count == e.N
	}
	return false
}

// String returns the operator's original textual form.
func (e Expect) String() string {
	if e.raw == "" {
		return "+"
	}
	return e.raw
}
