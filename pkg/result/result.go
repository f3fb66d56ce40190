// Package result provides a generic success/failure container for operations
// whose outcome is passed through service and presentation layers.
package result

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed result.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Try wraps a (value, error) return into a Result.
func Try[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// IsOk reports whether the result is a success.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether the result is a failure.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Value returns the contained value and whether it is valid.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Err returns the contained error, nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Unwrap returns the value and error as an ordinary Go pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// GetOrElse returns the value on success, or fallback on failure.
func (r Result[T]) GetOrElse(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// OnSuccess invokes fn with the value when the result is a success. It
// returns the receiver for chaining.
func (r Result[T]) OnSuccess(fn func(T)) Result[T] {
	if r.err == nil {
		fn(r.value)
	}
	return r
}

// OnFailure invokes fn with the error when the result is a failure. It
// returns the receiver for chaining.
func (r Result[T]) OnFailure(fn func(error)) Result[T] {
	if r.err != nil {
		fn(r.err)
	}
	return r
}

// Map transforms a successful result's value. Failures pass through with
// the original error.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// FlatMap chains a result-producing transformation. Failures pass through
// with the original error.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return fn(r.value)
}
