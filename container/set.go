package container

import "code.hybscloud.com/iceoryx2/errs"

// Set is a fixed-capacity set of comparable elements, backed by a flat
// slice scanned linearly — capacities here are small (connection
// counts, listener counts) so linear scan beats the complexity of a
// relocatable hash table. Backing store for event.Channel's pending-id
// set and connection.Subscriber's borrowed set.
type Set[T comparable] struct {
	data []T
}

// NewSet creates a Set with the given fixed capacity.
func NewSet[T comparable](capacity int) *Set[T] {
	return &Set[T]{data: make([]T, 0, capacity)}
}

// Cap returns the fixed capacity.
func (s *Set[T]) Cap() int {
	return cap(s.data)
}

// Len returns the current element count.
func (s *Set[T]) Len() int {
	return len(s.data)
}

// Contains reports whether value is a member.
func (s *Set[T]) Contains(value T) bool {
	for _, v := range s.data {
		if v == value {
			return true
		}
	}
	return false
}

// Insert adds value if not already present. Returns
// errs.ErrOutOfCapacity if the set is full and value is new.
func (s *Set[T]) Insert(value T) error {
	if s.Contains(value) {
		return nil
	}
	if len(s.data) == cap(s.data) {
		return errs.ErrOutOfCapacity
	}
	s.data = append(s.data, value)
	return nil
}

// Remove deletes value, reporting whether it was present.
func (s *Set[T]) Remove(value T) bool {
	for i, v := range s.data {
		if v == value {
			n := len(s.data)
			s.data[i] = s.data[n-1]
			var zero T
			s.data[n-1] = zero
			s.data = s.data[:n-1]
			return true
		}
	}
	return false
}

// Range iterates members in unspecified order; fn returning false
// stops iteration.
func (s *Set[T]) Range(fn func(value T) bool) {
	for _, v := range s.data {
		if !fn(v) {
			return
		}
	}
}
