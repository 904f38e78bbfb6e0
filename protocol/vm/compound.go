package vm

import "chainvm/errors"

// popKey pops a primitive usable as an index or map key.
func (e *Engine) popKey() (Item, error) {
	key, err := e.Pop()
	if err != nil {
		return nil, err
	}
	if !isPrimitive(key) {
		return nil, errors.WithDetailf(ErrInvalidType, "%s as key", key.Type())
	}
	return key, nil
}

// elements returns the item slice of an array or struct.
func elements(item Item) (*[]Item, bool) {
	switch item := item.(type) {
	case *Array:
		return &item.items, true
	case *Struct:
		return &item.items, true
	}
	return nil, false
}

func opPackMap(e *Engine, _ Instruction) error {
	size, err := e.popIndex()
	if err != nil {
		return err
	}
	if size*2 > e.estack().Len() {
		return errors.WithDetailf(ErrBadValue, "PACKMAP %d pairs from %d items", size, e.estack().Len())
	}
	m := NewMap()
	for i := 0; i < size; i++ {
		key, err := e.popKey()
		if err != nil {
			return err
		}
		val, err := e.Pop()
		if err != nil {
			return err
		}
		if val, err = e.dup(val); err != nil {
			return err
		}
		if _, err := m.set(key, val); err != nil {
			return err
		}
	}
	return e.Push(m)
}

// opPack handles PACK and PACKSTRUCT. The top item becomes element 0.
func opPack(e *Engine, inst Instruction) error {
	size, err := e.popIndex()
	if err != nil {
		return err
	}
	if size > e.estack().Len() {
		return errors.WithDetailf(ErrBadValue, "%s %d from %d items", inst.Op, size, e.estack().Len())
	}
	items := make([]Item, size)
	for i := range items {
		item, err := e.Pop()
		if err != nil {
			return err
		}
		if items[i], err = e.dup(item); err != nil {
			return err
		}
	}
	if inst.Op == OP_PACKSTRUCT {
		return e.Push(NewStruct(items))
	}
	return e.Push(NewArray(items))
}

func opUnpack(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	var n int
	if m, ok := item.(*Map); ok {
		n = m.Len()
		for i := n - 1; i >= 0; i-- {
			if err := e.Push(m.vals[i]); err != nil {
				return err
			}
			if err := e.Push(m.keys[i]); err != nil {
				return err
			}
		}
	} else if items, ok := elements(item); ok {
		n = len(*items)
		for i := n - 1; i >= 0; i-- {
			if err := e.Push((*items)[i]); err != nil {
				return err
			}
		}
	} else {
		return errors.WithDetailf(ErrInvalidType, "UNPACK %s", item.Type())
	}
	return e.pushInt64(int64(n))
}

func opNewArray0(e *Engine, _ Instruction) error {
	return e.Push(NewArray(nil))
}

func opNewStruct0(e *Engine, _ Instruction) error {
	return e.Push(NewStruct(nil))
}

func (e *Engine) popCount() (int, error) {
	n, err := e.popIndex()
	if err != nil {
		return 0, err
	}
	if n > e.limits.MaxStackSize {
		return 0, errors.WithDetailf(ErrBadValue, "%d items, max %d", n, e.limits.MaxStackSize)
	}
	return n, nil
}

// opNewArray handles NEWARRAY and NEWSTRUCT, filling with null.
func opNewArray(e *Engine, inst Instruction) error {
	n, err := e.popCount()
	if err != nil {
		return err
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = Null{}
	}
	if inst.Op == OP_NEWSTRUCT {
		return e.Push(NewStruct(items))
	}
	return e.Push(NewArray(items))
}

func opNewArrayT(e *Engine, inst Instruction) error {
	n, err := e.popCount()
	if err != nil {
		return err
	}
	t := ItemType(inst.TokenU8())
	if !t.Valid() {
		return errors.WithDetailf(ErrInvalidType, "NEWARRAY_T 0x%02x", uint8(t))
	}
	var fill Item
	switch t {
	case BooleanType:
		fill = Boolean(false)
	case IntegerType:
		fill = NewInt64(0)
	case ByteStringType:
		fill = ByteString("")
	default:
		fill = Null{}
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = fill
	}
	return e.Push(NewArray(items))
}

func opNewMap(e *Engine, _ Instruction) error {
	return e.Push(NewMap())
}

func opSize(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	if m, ok := item.(*Map); ok {
		return e.pushInt64(int64(m.Len()))
	}
	if items, ok := elements(item); ok {
		return e.pushInt64(int64(len(*items)))
	}
	if n, ok := itemSize(item); ok {
		return e.pushInt64(int64(n))
	}
	return errors.WithDetailf(ErrInvalidType, "SIZE of %s", item.Type())
}

func opHasKey(e *Engine, _ Instruction) error {
	key, err := e.popKey()
	if err != nil {
		return err
	}
	x, err := e.Pop()
	if err != nil {
		return err
	}
	if m, ok := x.(*Map); ok {
		_, found, err := m.Get(key)
		if err != nil {
			return err
		}
		return e.pushBool(found)
	}
	var n int
	if items, ok := elements(x); ok {
		n = len(*items)
	} else if size, ok := itemSize(x); ok && !isBoolOrInt(x) {
		n = size
	} else {
		return errors.WithDetailf(ErrInvalidType, "HASKEY on %s", x.Type())
	}
	index, err := AsInt(key)
	if err != nil {
		return err
	}
	if index < 0 {
		return errors.WithDetailf(ErrBadValue, "negative index %d", index)
	}
	return e.pushBool(index < n)
}

func isBoolOrInt(item Item) bool {
	switch item.(type) {
	case Boolean, Integer:
		return true
	}
	return false
}

func opKeys(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	m, ok := item.(*Map)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "KEYS of %s", item.Type())
	}
	return e.Push(NewArray(append([]Item(nil), m.keys...)))
}

func opValues(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	var src []Item
	if m, ok := item.(*Map); ok {
		src = m.vals
	} else if items, ok := elements(item); ok {
		src = *items
	} else {
		return errors.WithDetailf(ErrInvalidType, "VALUES of %s", item.Type())
	}
	vals := make([]Item, len(src))
	for i, v := range src {
		if vals[i], err = e.dup(v); err != nil {
			return err
		}
	}
	return e.Push(NewArray(vals))
}

// index converts key to an index into n elements. Out-of-range
// indexes are catchable.
func index(key Item, n int) (int, error) {
	i, err := AsInt(key)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, errors.WithDetailf(ErrIndexOutOfRange, "index %d of %d", i, n)
	}
	return i, nil
}

func opPickItem(e *Engine, _ Instruction) error {
	key, err := e.popKey()
	if err != nil {
		return err
	}
	x, err := e.Pop()
	if err != nil {
		return err
	}
	if m, ok := x.(*Map); ok {
		v, found, err := m.Get(key)
		if err != nil {
			return err
		}
		if !found {
			return errors.WithDetailf(ErrKeyNotFound, "key %s", key)
		}
		return e.Push(v)
	}
	if items, ok := elements(x); ok {
		i, err := index(key, len(*items))
		if err != nil {
			return err
		}
		return e.Push((*items)[i])
	}
	if isPrimitive(x) || x.Type() == BufferType {
		b, err := AsBytes(x)
		if err != nil {
			return err
		}
		i, err := index(key, len(b))
		if err != nil {
			return err
		}
		return e.pushInt64(int64(b[i]))
	}
	return errors.WithDetailf(ErrInvalidType, "PICKITEM on %s", x.Type())
}

func opAppend(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	if item, err = e.dup(item); err != nil {
		return err
	}
	x, err := e.Pop()
	if err != nil {
		return err
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "APPEND to %s", x.Type())
	}
	*items = append(*items, item)
	return e.refs.AddChild(x, item)
}

func opSetItem(e *Engine, _ Instruction) error {
	val, err := e.Pop()
	if err != nil {
		return err
	}
	if val, err = e.dup(val); err != nil {
		return err
	}
	key, err := e.popKey()
	if err != nil {
		return err
	}
	x, err := e.Pop()
	if err != nil {
		return err
	}
	switch c := x.(type) {
	case *Map:
		old, err := c.set(key, val)
		if err != nil {
			return err
		}
		if old != nil {
			e.refs.RemoveChild(c, old)
		} else if err := e.refs.AddChild(c, key); err != nil {
			return err
		}
		return e.refs.AddChild(c, val)
	case *Buffer:
		i, err := index(key, len(c.data))
		if err != nil {
			return err
		}
		if !isPrimitive(val) {
			return errors.WithDetailf(ErrInvalidType, "SETITEM buffer byte from %s", val.Type())
		}
		b, err := AsInteger(val)
		if err != nil {
			return err
		}
		n, ok := b.Int64()
		if !ok || n < -128 || n > 255 {
			return errors.WithDetailf(ErrBadValue, "byte value %s", b)
		}
		c.data[i] = byte(n)
		c.touch()
		return nil
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "SETITEM on %s", x.Type())
	}
	i, err := index(key, len(*items))
	if err != nil {
		return err
	}
	e.refs.RemoveChild(x, (*items)[i])
	(*items)[i] = val
	return e.refs.AddChild(x, val)
}

func opReverseItems(e *Engine, _ Instruction) error {
	x, err := e.Pop()
	if err != nil {
		return err
	}
	var s []Item
	if b, ok := x.(*Buffer); ok {
		for i, j := 0, len(b.data)-1; i < j; i, j = i+1, j-1 {
			b.data[i], b.data[j] = b.data[j], b.data[i]
		}
		b.touch()
		return nil
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "REVERSEITEMS on %s", x.Type())
	}
	s = *items
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return nil
}

func opRemove(e *Engine, _ Instruction) error {
	key, err := e.popKey()
	if err != nil {
		return err
	}
	x, err := e.Pop()
	if err != nil {
		return err
	}
	if m, ok := x.(*Map); ok {
		k, v, err := m.remove(key)
		if err != nil {
			return err
		}
		if k != nil {
			e.refs.RemoveChild(m, k)
			e.refs.RemoveChild(m, v)
		}
		return nil
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "REMOVE from %s", x.Type())
	}
	i, err := index(key, len(*items))
	if err != nil {
		return err
	}
	e.refs.RemoveChild(x, (*items)[i])
	*items = append((*items)[:i], (*items)[i+1:]...)
	return nil
}

func opClearItems(e *Engine, _ Instruction) error {
	x, err := e.Pop()
	if err != nil {
		return err
	}
	if m, ok := x.(*Map); ok {
		for i := range m.keys {
			e.refs.RemoveChild(m, m.keys[i])
			e.refs.RemoveChild(m, m.vals[i])
		}
		m.clear()
		return nil
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "CLEARITEMS on %s", x.Type())
	}
	for _, item := range *items {
		e.refs.RemoveChild(x, item)
	}
	*items = nil
	return nil
}

func opPopItem(e *Engine, _ Instruction) error {
	x, err := e.Pop()
	if err != nil {
		return err
	}
	items, ok := elements(x)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "POPITEM from %s", x.Type())
	}
	n := len(*items)
	if n == 0 {
		return errors.WithDetail(ErrIndexOutOfRange, "POPITEM from empty collection")
	}
	item := (*items)[n-1]
	if err := e.Push(item); err != nil {
		return err
	}
	e.refs.RemoveChild(x, item)
	(*items)[n-1] = nil
	*items = (*items)[:n-1]
	return nil
}

func opIsNull(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	return e.pushBool(isNull(item))
}

func opIsType(e *Engine, inst Instruction) error {
	t := ItemType(inst.TokenU8())
	if t == AnyType || !t.Valid() {
		return errors.WithDetailf(ErrInvalidType, "ISTYPE 0x%02x", uint8(t))
	}
	item, err := e.Pop()
	if err != nil {
		return err
	}
	return e.pushBool(item.Type() == t)
}

func opConvert(e *Engine, inst Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	r, err := Convert(item, ItemType(inst.TokenU8()))
	if err != nil {
		return err
	}
	return e.Push(r)
}
