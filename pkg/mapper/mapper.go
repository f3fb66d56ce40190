// Package mapper defines a small generic mapping layer between entities and
// their transport representations.
package mapper

// Mapper converts a source value into a destination value.
type Mapper[S, D any] interface {
	Map(src S) D
}

// Func adapts a plain function into a Mapper.
type Func[S, D any] func(S) D

func (f Func[S, D]) Map(src S) D {
	return f(src)
}

// MapSlice applies a mapper element-wise, preserving order. A nil input
// yields a nil output.
func MapSlice[S, D any](m Mapper[S, D], src []S) []D {
	if src == nil {
		return nil
	}
	out := make([]D, len(src))
	for i, s := range src {
		out[i] = m.Map(s)
	}
	return out
}

// Pair bundles the two directions of a bidirectional mapping.
type Pair[A, B any] struct {
	Forward  Mapper[A, B]
	Backward Mapper[B, A]
}

// NewPair creates a bidirectional mapping from two functions.
func NewPair[A, B any](forward func(A) B, backward func(B) A) Pair[A, B] {
	return Pair[A, B]{Forward: Func[A, B](forward), Backward: Func[B, A](backward)}
}
