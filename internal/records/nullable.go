package records

// Nullable carries a value that may be absent, such as a column filled by an
// outer join with no match. The zero Nullable is null.
//
// Absent and zero stay distinct until a caller asks for OrZero.
type Nullable[T any] struct {
	V     T
	Valid bool
}

// Some returns a present value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{V: v, Valid: true}
}

// Null returns an absent value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{}
}

// OrZero returns the value, or the zero value of T when absent.
func (n Nullable[T]) OrZero() T {
	if !n.Valid {
		var zero T
		return zero
	}
	return n.V
}

// Or returns the value, or def when absent.
func (n Nullable[T]) Or(def T) T {
	if !n.Valid {
		return def
	}
	return n.V
}
