package helpers

// Ptr returns a pointer to a copy of val. Handy for optional request fields.
func Ptr[T any](val T) *T {
	return &val
}

// Value dereferences val, yielding the zero value for nil.
func Value[T any](val *T) T {
	if val == nil {
		var zero T
		return zero
	}
	return *val
}
