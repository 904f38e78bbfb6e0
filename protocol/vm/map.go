package vm

import "chainvm/errors"

// maxKeySize bounds the encoding of a map key.
const maxKeySize = 64

type mapKey struct {
	t ItemType
	s string
}

// keyOf returns the lookup key for k, which must be a primitive whose
// encoding is at most 64 bytes.
func keyOf(k Item) (mapKey, error) {
	var b []byte
	switch k := k.(type) {
	case Boolean:
		b = k.bytes()
	case Integer:
		b = k.bytes()
	case ByteString:
		b = []byte(k)
	default:
		return mapKey{}, errors.WithDetailf(ErrMapKey, "%s cannot be a map key", k.Type())
	}
	if len(b) > maxKeySize {
		return mapKey{}, errors.WithDetailf(ErrMapKey, "key of %d bytes", len(b))
	}
	return mapKey{k.Type(), string(b)}, nil
}

// Map is an insertion-ordered dictionary from primitive keys to items.
type Map struct {
	keys  []Item
	vals  []Item
	index map[mapKey]int
}

func NewMap() *Map {
	return &Map{index: make(map[mapKey]int)}
}

func (*Map) Type() ItemType { return MapType }

func (m *Map) String() string {
	s := "map{"
	for i := range m.keys {
		if i > 0 {
			s += " "
		}
		if i == 8 {
			s += "..."
			break
		}
		s += m.keys[i].String() + ":" + m.vals[i].Type().String()
	}
	return s + "}"
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Item { return m.keys }

// Values returns the values in insertion order.
func (m *Map) Values() []Item { return m.vals }

func (m *Map) Get(k Item) (Item, bool, error) {
	mk, err := keyOf(k)
	if err != nil {
		return nil, false, err
	}
	i, ok := m.index[mk]
	if !ok {
		return nil, false, nil
	}
	return m.vals[i], true, nil
}

// Set stores v under k in a map that no engine holds yet, such as
// one a syscall is about to push.
func (m *Map) Set(k, v Item) error {
	_, err := m.set(k, v)
	return err
}

// set stores v under k, returning the value it replaced.
func (m *Map) set(k, v Item) (old Item, err error) {
	mk, err := keyOf(k)
	if err != nil {
		return nil, err
	}
	if i, ok := m.index[mk]; ok {
		old = m.vals[i]
		m.vals[i] = v
		return old, nil
	}
	m.index[mk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return nil, nil
}

// remove deletes k, returning the removed key and value.
func (m *Map) remove(k Item) (key, val Item, err error) {
	mk, err := keyOf(k)
	if err != nil {
		return nil, nil, err
	}
	i, ok := m.index[mk]
	if !ok {
		return nil, nil, nil
	}
	key, val = m.keys[i], m.vals[i]
	delete(m.index, mk)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		jk, _ := keyOf(m.keys[j])
		m.index[jk] = j
	}
	return key, val, nil
}

func (m *Map) clear() {
	m.keys = nil
	m.vals = nil
	m.index = make(map[mapKey]int)
}
