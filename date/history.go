package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T any] struct {
	days   []Date
	values []T
}

// search returns the position of day in the sorted days, and whether it is there.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, value
	}
	return h.days[last], h.values[last]
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := h.search(on)
	if found {
		// last write wins
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	var value T
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	return value, false
}

// Floor returns the latest date on or before day, with its value.
// ok is false when there is no such date.
func (h *History[T]) Floor(day Date) (on Date, value T, ok bool) {
	i, found := h.search(day)
	if found {
		return h.days[i], h.values[i], true
	}
	// `i` is the index where `day` would be inserted, the previous entry is the floor.
	if i == 0 {
		return Date{}, value, false
	}
	return h.days[i-1], h.values[i-1], true
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Backward returns an iterator over all date/value pairs, most recent first.
func (h *History[T]) Backward() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i := len(h.days) - 1; i >= 0; i-- {
			if !yield(h.days[i], h.values[i]) {
				return
			}
		}
	}
}

// BackwardFrom returns an iterator over the date/value pairs on or before day, most recent first.
func (h *History[T]) BackwardFrom(day Date) iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		i, found := h.search(day)
		if !found {
			i--
		}
		for ; i >= 0; i-- {
			if !yield(h.days[i], h.values[i]) {
				return
			}
		}
	}
}
