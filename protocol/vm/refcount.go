package vm

import "chainvm/errors"

// CountMode selects when the reference ceiling is enforced.
type CountMode int

const (
	// CountPrecise checks the ceiling on every increment.
	CountPrecise CountMode = iota
	// CountLegacy checks the ceiling once after each instruction.
	CountLegacy
)

// RefCounter accounts for every reachable slot holding an item: stack
// entries, slot entries, result-stack entries and the elements of
// reachable containers. Containers and buffers additionally carry a
// per-item count; a container's elements are counted only while the
// container itself has a nonzero count.
//
// Cycles are never reclaimed. The total ceiling bounds them.
type RefCounter struct {
	mode CountMode
	max  int
	size int
	refs map[Item]int
}

func NewRefCounter(mode CountMode, max int) *RefCounter {
	return &RefCounter{mode: mode, max: max, refs: make(map[Item]int)}
}

// Size returns the number of counted slots.
func (rc *RefCounter) Size() int { return rc.size }

// Count returns the number of counted slots referring to item.
// It is always zero for primitives.
func (rc *RefCounter) Count(item Item) int { return rc.refs[item] }

// Add counts one more root slot (a stack or slot entry) holding item.
func (rc *RefCounter) Add(item Item) error {
	rc.add(item)
	return rc.checkPrecise()
}

// Remove releases a root slot holding item.
func (rc *RefCounter) Remove(item Item) {
	rc.remove(item)
}

// AddChild counts child as an element of parent.
func (rc *RefCounter) AddChild(parent, child Item) error {
	if rc.refs[parent] > 0 {
		rc.add(child)
	}
	return rc.checkPrecise()
}

// RemoveChild releases child as an element of parent.
func (rc *RefCounter) RemoveChild(parent, child Item) {
	if rc.refs[parent] > 0 {
		rc.remove(child)
	}
}

// Check reports ErrStackOverflow if the count exceeds the ceiling.
func (rc *RefCounter) Check() error {
	if rc.size > rc.max {
		return errors.WithDetailf(ErrStackOverflow, "%d references, max %d", rc.size, rc.max)
	}
	return nil
}

func (rc *RefCounter) checkPrecise() error {
	if rc.mode != CountPrecise {
		return nil
	}
	return rc.Check()
}

func (rc *RefCounter) add(item Item) {
	rc.size++
	if !tracked(item) {
		return
	}
	rc.refs[item]++
	if rc.refs[item] == 1 {
		eachChild(item, rc.add)
	}
}

func (rc *RefCounter) remove(item Item) {
	rc.size--
	if !tracked(item) {
		return
	}
	n := rc.refs[item] - 1
	if n > 0 {
		rc.refs[item] = n
		return
	}
	delete(rc.refs, item)
	eachChild(item, rc.remove)
}

func tracked(item Item) bool {
	switch item.(type) {
	case *Array, *Struct, *Map, *Buffer:
		return true
	}
	return false
}

func eachChild(item Item, f func(Item)) {
	switch item := item.(type) {
	case *Array:
		for _, c := range item.items {
			f(c)
		}
	case *Struct:
		for _, c := range item.items {
			f(c)
		}
	case *Map:
		for i := range item.keys {
			f(item.keys[i])
			f(item.vals[i])
		}
	}
}
