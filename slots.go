// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "fmt"

// Range is a contiguous slot interval [Start, Start+Count).
// The zero value is the empty range.
type Range struct {
	Start int
	Count int
}

// End returns the exclusive end of the range.
func (r Range) End() int {
	return r.Start + r.Count
}

// Empty reports whether the range covers no slots.
func (r Range) Empty() bool {
	return r.Count <= 0
}

// Contains reports whether slot i lies inside the range.
func (r Range) Contains(i int) bool {
	return r.Count > 0 && i >= r.Start && i < r.End()
}

// Union returns the smallest range covering both r and o.
// An empty operand is ignored.
func (r Range) Union(o Range) Range {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	start := min(r.Start, o.Start)
	end := max(r.End(), o.End())
	return Range{Start: start, Count: end - start}
}

// String formats the range as (start,count).
func (r Range) String() string {
	return fmt.Sprintf("(%d,%d)", r.Start, r.Count)
}

// SlotArray is a fixed-capacity array of bindable values that records the
// minimal contiguous range written since the dirty flag was last cleared.
//
// Writing marks a slot dirty even when the value is unchanged; deciding
// whether the device actually needs a rebind is the merger's job.
//
// SlotArray is not safe for concurrent use.
type SlotArray[T comparable] struct {
	values []T
	def    T
	dirty  Range
}

// NewSlotArray creates an array of capacity slots, all set to def and clean.
func NewSlotArray[T comparable](capacity int, def T) *SlotArray[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("drawstate: negative slot array capacity %d", capacity))
	}
	values := make([]T, capacity)
	for i := range values {
		values[i] = def
	}
	return &SlotArray[T]{values: values, def: def}
}

// Len returns the capacity of the array.
func (a *SlotArray[T]) Len() int {
	return len(a.values)
}

// Default returns the value that Clear writes into every slot.
func (a *SlotArray[T]) Default() T {
	return a.def
}

// Get returns the value at index.
func (a *SlotArray[T]) Get(index int) T {
	return a.values[index]
}

// Set writes value at index and grows the dirty range to include it.
// Set panics if index is out of range.
func (a *SlotArray[T]) Set(index int, value T) {
	if index < 0 || index >= len(a.values) {
		panic(fmt.Sprintf("drawstate: slot index %d out of range [0,%d)", index, len(a.values)))
	}
	a.values[index] = value
	a.dirty = a.dirty.Union(Range{Start: index, Count: 1})
}

// SetRange writes values starting at start.
func (a *SlotArray[T]) SetRange(start int, values []T) {
	if len(values) == 0 {
		return
	}
	if start < 0 || start+len(values) > len(a.values) {
		panic(fmt.Sprintf("drawstate: slot range [%d,%d) out of range [0,%d)", start, start+len(values), len(a.values)))
	}
	copy(a.values[start:], values)
	a.dirty = a.dirty.Union(Range{Start: start, Count: len(values)})
}

// Values returns the backing slice. Callers must not modify it.
func (a *SlotArray[T]) Values() []T {
	return a.values
}

// Slice returns the values covered by r. Callers must not modify it.
func (a *SlotArray[T]) Slice(r Range) []T {
	if r.Empty() {
		return nil
	}
	return a.values[r.Start:r.End()]
}

// DirtyRange returns the range written since the last ClearDirty.
// It does not clear the flag.
func (a *SlotArray[T]) DirtyRange() Range {
	return a.dirty
}

// IsDirty reports whether any slot was written since the last ClearDirty.
func (a *SlotArray[T]) IsDirty() bool {
	return a.dirty.Count > 0
}

// ClearDirty resets the dirty range. Call it only once the values were
// applied to the device.
func (a *SlotArray[T]) ClearDirty() {
	a.dirty = Range{}
}

// MarkDirty grows the dirty range to cover r, clamped to the capacity.
func (a *SlotArray[T]) MarkDirty(r Range) {
	start := max(r.Start, 0)
	end := min(r.End(), len(a.values))
	if end <= start {
		return
	}
	a.dirty = a.dirty.Union(Range{Start: start, Count: end - start})
}

// MarkAllDirty marks every slot dirty.
func (a *SlotArray[T]) MarkAllDirty() {
	a.MarkDirty(Range{Start: 0, Count: len(a.values)})
}

// Clear resets every slot to the default value and marks the full range
// dirty, so that the next merge unbinds whatever was bound.
func (a *SlotArray[T]) Clear() {
	for i := range a.values {
		a.values[i] = a.def
	}
	a.MarkAllDirty()
}

// lastBound returns one past the highest slot holding a non-default value.
func (a *SlotArray[T]) lastBound() int {
	return lastNonDefault(a.values, a.def)
}

func lastNonDefault[T comparable](values []T, def T) int {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != def {
			return i + 1
		}
	}
	return 0
}

// overlay returns the values of held with the written slots of a copied
// over them.
func (a *SlotArray[T]) overlay(held *SlotArray[T]) []T {
	out := make([]T, len(held.values))
	copy(out, held.values)
	if r := a.dirty; !r.Empty() {
		copy(out[r.Start:r.End()], a.values[r.Start:r.End()])
	}
	return out
}

// copyRange copies the slots covered by r from src. Both arrays must have
// the same capacity.
func (a *SlotArray[T]) copyRange(src *SlotArray[T], r Range) {
	if r.Empty() {
		return
	}
	copy(a.values[r.Start:r.End()], src.values[r.Start:r.End()])
}

// diffRange narrows r to the first..last slot whose value differs from the
// same slot in other. It returns the empty range if every slot matches.
func (a *SlotArray[T]) diffRange(other *SlotArray[T], r Range) Range {
	if r.Empty() {
		return Range{}
	}
	first, last := -1, -1
	for i := r.Start; i < r.End(); i++ {
		if a.values[i] != other.values[i] {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Range{}
	}
	return Range{Start: first, Count: last - first + 1}
}
