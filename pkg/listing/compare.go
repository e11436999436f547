package listing

import (
	"cmp"
	"strings"
	"time"
)

// Fold orders by a string key, ignoring case.
func Fold[T any](key func(T) string) func(a, b T) int {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

func Asc[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

func Desc[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(key(b), key(a)) }
}

// Newest orders by a timestamp, latest first.
func Newest[T any](key func(T) time.Time) func(a, b T) int {
	return func(a, b T) int { return key(b).Compare(key(a)) }
}

// Joined flattens a list field for substring search.
func Joined(values []string) string {
	return strings.Join(values, ", ")
}
