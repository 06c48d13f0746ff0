// ABOUTME: Optional[T] tagged value for partial updates
// ABOUTME: Distinguishes "not supplied" from a present zero or nil value

package store

// Optional is a value that may be absent from a partial update.
// Absence is distinct from a present zero value, so a caller can set
// widget_delay to 0 or a nullable column to NULL explicitly. The zero
// Optional is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Set returns an Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// equalPtr reports whether two nullable values match. Used by the
// partial-update diffs to skip columns that would not change.
func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
