// Package specification implements composable in-memory predicates and a
// database query builder that share the same filtering vocabulary.
package specification

// Specification is a predicate over T that can be composed with boolean
// combinators.
type Specification[T any] interface {
	IsSatisfiedBy(candidate T) bool
}

// Func adapts a plain predicate function into a Specification.
type Func[T any] func(T) bool

func (f Func[T]) IsSatisfiedBy(candidate T) bool {
	return f(candidate)
}

type andSpec[T any] struct {
	specs []Specification[T]
}

func (s andSpec[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if !spec.IsSatisfiedBy(candidate) {
			return false
		}
	}
	return true
}

type orSpec[T any] struct {
	specs []Specification[T]
}

func (s orSpec[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if spec.IsSatisfiedBy(candidate) {
			return true
		}
	}
	return false
}

type notSpec[T any] struct {
	spec Specification[T]
}

func (s notSpec[T]) IsSatisfiedBy(candidate T) bool {
	return !s.spec.IsSatisfiedBy(candidate)
}

// And is satisfied when every given specification is satisfied.
func And[T any](specs ...Specification[T]) Specification[T] {
	return andSpec[T]{specs: specs}
}

// Or is satisfied when any given specification is satisfied.
func Or[T any](specs ...Specification[T]) Specification[T] {
	return orSpec[T]{specs: specs}
}

// Not negates a specification.
func Not[T any](spec Specification[T]) Specification[T] {
	return notSpec[T]{spec: spec}
}

// Filter returns the candidates satisfying the specification, preserving
// order.
func Filter[T any](candidates []T, spec Specification[T]) []T {
	var matched []T
	for _, c := range candidates {
		if spec.IsSatisfiedBy(c) {
			matched = append(matched, c)
		}
	}
	return matched
}
