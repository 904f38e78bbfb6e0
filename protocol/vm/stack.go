package vm

import "chainvm/errors"

// Stack is an evaluation or result stack. Index 0 is the top.
type Stack struct {
	items []Item // items[len(items)-1] is the top
	rc    *RefCounter
}

func NewStack(rc *RefCounter) *Stack {
	return &Stack{rc: rc}
}

func (s *Stack) Len() int { return len(s.items) }

// Push pushes item. Under precise counting it reports
// ErrStackOverflow once the ceiling is passed; the item is pushed
// regardless.
func (s *Stack) Push(item Item) error {
	s.items = append(s.items, item)
	return s.rc.Add(item)
}

func (s *Stack) Pop() (Item, error) {
	if len(s.items) == 0 {
		return nil, ErrDataStackUnderflow
	}
	item := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	s.rc.Remove(item)
	return item, nil
}

// Peek returns the nth item from the top without removing it.
func (s *Stack) Peek(n int) (Item, error) {
	if n < 0 {
		return nil, errors.WithDetailf(ErrBadValue, "negative stack index %d", n)
	}
	if n >= len(s.items) {
		return nil, ErrDataStackUnderflow
	}
	return s.items[len(s.items)-1-n], nil
}

// Insert places item so that it becomes the nth from the top.
func (s *Stack) Insert(n int, item Item) error {
	if n < 0 || n > len(s.items) {
		return errors.WithDetailf(ErrDataStackUnderflow, "insert at %d of %d", n, len(s.items))
	}
	i := len(s.items) - n
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
	return s.rc.Add(item)
}

// Remove removes and returns the nth item from the top.
func (s *Stack) Remove(n int) (Item, error) {
	if n < 0 {
		return nil, errors.WithDetailf(ErrBadValue, "negative stack index %d", n)
	}
	if n >= len(s.items) {
		return nil, ErrDataStackUnderflow
	}
	i := len(s.items) - 1 - n
	item := s.items[i]
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	s.rc.Remove(item)
	return item, nil
}

// Reverse reverses the order of the top n items.
func (s *Stack) Reverse(n int) error {
	if n < 0 {
		return errors.WithDetailf(ErrBadValue, "negative count %d", n)
	}
	if n > len(s.items) {
		return ErrDataStackUnderflow
	}
	top := s.items[len(s.items)-n:]
	for i, j := 0, len(top)-1; i < j; i, j = i+1, j-1 {
		top[i], top[j] = top[j], top[i]
	}
	return nil
}

func (s *Stack) Clear() {
	for _, item := range s.items {
		s.rc.Remove(item)
	}
	s.items = nil
}

// MoveTo moves the top n items, or all items if n is negative, onto
// dst, keeping their order.
func (s *Stack) MoveTo(dst *Stack, n int) error {
	if n < 0 {
		n = len(s.items)
	}
	if n > len(s.items) {
		return ErrDataStackUnderflow
	}
	moved := append([]Item(nil), s.items[len(s.items)-n:]...)
	for i := len(s.items) - n; i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = s.items[:len(s.items)-n]
	for _, item := range moved {
		s.rc.Remove(item)
	}
	for _, item := range moved {
		if err := dst.Push(item); err != nil {
			return err
		}
	}
	return nil
}

// Items returns the items bottom first. The slice must not be
// modified.
func (s *Stack) Items() []Item { return s.items }

// Slot is a fixed-size array of items: static fields, locals or
// arguments.
type Slot struct {
	items []Item
	rc    *RefCounter
}

// NewSlot returns a slot of n entries, each Null.
func NewSlot(n int, rc *RefCounter) (*Slot, error) {
	s := &Slot{items: make([]Item, n), rc: rc}
	var err error
	for i := range s.items {
		s.items[i] = Null{}
		if e := rc.Add(Null{}); e != nil && err == nil {
			err = e
		}
	}
	return s, err
}

func (s *Slot) Len() int { return len(s.items) }

func (s *Slot) Get(i int) (Item, error) {
	if i < 0 || i >= len(s.items) {
		return nil, errors.WithDetailf(ErrSlotIndex, "index %d of %d", i, len(s.items))
	}
	return s.items[i], nil
}

func (s *Slot) Set(i int, item Item) error {
	if i < 0 || i >= len(s.items) {
		return errors.WithDetailf(ErrSlotIndex, "index %d of %d", i, len(s.items))
	}
	s.rc.Remove(s.items[i])
	s.items[i] = item
	return s.rc.Add(item)
}

func (s *Slot) clear() {
	for _, item := range s.items {
		s.rc.Remove(item)
	}
	s.items = nil
}
