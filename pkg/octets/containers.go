package octets

import (
	"cmp"
	"maps"
	"slices"
)

// Pair is the two-element product type.
type Pair[A, B any] struct {
	First  A
	Second B
}

// MakePair builds a Pair.
func MakePair[A, B any](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

// WriteSlice writes the length of v followed by every element.
func WriteSlice[T any](s *Stream, v []T, w func(*Stream, T)) {
	s.WriteLen(len(v))
	for _, e := range v {
		w(s, e)
	}
}

// ReadSlice mirrors WriteSlice. An empty sequence reads as nil.
func ReadSlice[T any](s *Stream, r func(*Stream) T) []T {
	n := s.ReadLen()
	if n == 0 || !s.checkLen(n) {
		return nil
	}
	out := make([]T, 0, n)
	for range n {
		out = append(out, r(s))
		if s.Err() != nil {
			return nil
		}
	}
	return out
}

// WriteSet writes the members of v in ascending order.
func WriteSet[K cmp.Ordered](s *Stream, v map[K]struct{}, w func(*Stream, K)) {
	WriteSlice(s, slices.Sorted(maps.Keys(v)), w)
}

// ReadSet mirrors WriteSet.
func ReadSet[K comparable](s *Stream, r func(*Stream) K) map[K]struct{} {
	n := s.ReadLen()
	if n == 0 || !s.checkLen(n) {
		return nil
	}
	out := make(map[K]struct{}, n)
	for range n {
		out[r(s)] = struct{}{}
		if s.Err() != nil {
			return nil
		}
	}
	return out
}

// WriteMap writes the entries of m with keys in ascending order, so equal
// maps always encode to equal bytes.
func WriteMap[K cmp.Ordered, V any](s *Stream, m map[K]V, wk func(*Stream, K), wv func(*Stream, V)) {
	s.WriteMapLen(len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		wk(s, k)
		wv(s, m[k])
	}
}

// ReadMap mirrors WriteMap.
func ReadMap[K comparable, V any](s *Stream, rk func(*Stream) K, rv func(*Stream) V) map[K]V {
	n := s.ReadMapLen()
	if n == 0 || !s.checkLen(n) {
		return nil
	}
	out := make(map[K]V, n)
	for range n {
		k := rk(s)
		out[k] = rv(s)
		if s.Err() != nil {
			return nil
		}
	}
	return out
}

// WritePair writes First then Second.
func WritePair[A, B any](s *Stream, p Pair[A, B], wa func(*Stream, A), wb func(*Stream, B)) {
	wa(s, p.First)
	wb(s, p.Second)
}

// ReadPair mirrors WritePair.
func ReadPair[A, B any](s *Stream, ra func(*Stream) A, rb func(*Stream) B) Pair[A, B] {
	a := ra(s)
	return Pair[A, B]{First: a, Second: rb(s)}
}

// CloneSlice deep-copies v using c for every element.
func CloneSlice[T any](v []T, c func(T) T) []T {
	if v == nil {
		return nil
	}
	out := make([]T, len(v))
	for i, e := range v {
		out[i] = c(e)
	}
	return out
}

// CloneMap deep-copies m using c for every value.
func CloneMap[K comparable, V any](m map[K]V, c func(V) V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = c(v)
	}
	return out
}

// SetOf builds a set from its members.
func SetOf[K comparable](members ...K) map[K]struct{} {
	out := make(map[K]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out
}
