// Package enums holds the string enums persisted as Postgres enum types.
// Every type offers IsValid and a Parse function; stateful types also
// expose their allowed transitions.
package enums

import (
	"fmt"
	"slices"
)

type values[T ~string] []T

func (v values[T]) has(x T) bool { return slices.Contains(v, x) }

func (v values[T]) parse(kind, raw string) (T, error) {
	if x := T(raw); v.has(x) {
		return x, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}

// transitions maps a state to the states it may move to.
type transitions[T comparable] map[T][]T

func (t transitions[T]) allows(from, to T) bool {
	return slices.Contains(t[from], to)
}
