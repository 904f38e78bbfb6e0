// Package itemcodec serializes stack items as CBOR.
//
// Each item is a CBOR map with small integer keys: 1 holds the item
// type, 2 a boolean, 3 the bytes of an integer, byte string or buffer
// and 4 the elements of an array or struct. A map stores its keys and
// values alternately under 4. Pointers and interop values have no
// encoding.
package itemcodec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"chainvm/errors"
	"chainvm/protocol/vm"
)

// MaxDepth bounds the nesting of compound items in either direction.
// Self-referencing containers exceed it.
const MaxDepth = 64

var (
	ErrUnsupported = errors.New("item type cannot be encoded")
	ErrTooDeep     = errors.New("item nesting too deep")
	ErrMalformed   = errors.New("malformed item encoding")
)

type wire struct {
	Type  vm.ItemType `cbor:"1,keyasint"`
	Bool  bool        `cbor:"2,keyasint,omitempty"`
	Bytes []byte      `cbor:"3,keyasint,omitempty"`
	Items []wire      `cbor:"4,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("itemcodec: CBOR enc mode: %v", err))
	}
	// Two CBOR levels per item, plus the outer array of MarshalItems.
	decMode, err = cbor.DecOptions{MaxNestedLevels: 2*MaxDepth + 4}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("itemcodec: CBOR dec mode: %v", err))
	}
}

// Marshal encodes item.
func Marshal(item vm.Item) ([]byte, error) {
	w, err := toWire(item, 0)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(w)
}

// MarshalItems encodes a sequence of items, such as a result stack
// from bottom to top.
func MarshalItems(items []vm.Item) ([]byte, error) {
	ws := make([]wire, 0, len(items))
	for _, item := range items {
		w, err := toWire(item, 0)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return encMode.Marshal(ws)
}

// Unmarshal decodes an item encoded by Marshal.
func Unmarshal(data []byte) (vm.Item, error) {
	var w wire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, errors.Sub(ErrMalformed, err)
	}
	return fromWire(&w, 0)
}

// UnmarshalItems decodes a sequence encoded by MarshalItems.
func UnmarshalItems(data []byte) ([]vm.Item, error) {
	var ws []wire
	if err := decMode.Unmarshal(data, &ws); err != nil {
		return nil, errors.Sub(ErrMalformed, err)
	}
	items := make([]vm.Item, 0, len(ws))
	for i := range ws {
		item, err := fromWire(&ws[i], 0)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		items = append(items, item)
	}
	return items, nil
}

func toWire(item vm.Item, depth int) (wire, error) {
	if depth > MaxDepth {
		return wire{}, ErrTooDeep
	}
	w := wire{Type: item.Type()}
	switch item := item.(type) {
	case vm.Null:
	case vm.Boolean:
		w.Bool = bool(item)
	case vm.Integer, vm.ByteString, *vm.Buffer:
		b, err := vm.AsBytes(item)
		if err != nil {
			return wire{}, err
		}
		w.Bytes = append([]byte(nil), b...)
	case *vm.Array:
		return w, appendWire(&w, item.Items(), depth)
	case *vm.Struct:
		return w, appendWire(&w, item.Items(), depth)
	case *vm.Map:
		keys, vals := item.Keys(), item.Values()
		kv := make([]vm.Item, 0, 2*len(keys))
		for i := range keys {
			kv = append(kv, keys[i], vals[i])
		}
		return w, appendWire(&w, kv, depth)
	default:
		return wire{}, errors.WithDetailf(ErrUnsupported, "%s", item.Type())
	}
	return w, nil
}

func appendWire(w *wire, items []vm.Item, depth int) error {
	w.Items = make([]wire, 0, len(items))
	for _, it := range items {
		c, err := toWire(it, depth+1)
		if err != nil {
			return err
		}
		w.Items = append(w.Items, c)
	}
	return nil
}

func fromWire(w *wire, depth int) (vm.Item, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	switch w.Type {
	case vm.AnyType:
		return vm.Null{}, nil
	case vm.BooleanType:
		return vm.Boolean(w.Bool), nil
	case vm.IntegerType:
		i, err := vm.AsInteger(vm.ByteString(w.Bytes))
		if err != nil {
			return nil, errors.Sub(ErrMalformed, err)
		}
		return i, nil
	case vm.ByteStringType:
		return vm.ByteString(w.Bytes), nil
	case vm.BufferType:
		return vm.NewBuffer(append([]byte{}, w.Bytes...)), nil
	case vm.ArrayType, vm.StructType:
		items, err := fromWires(w.Items, depth)
		if err != nil {
			return nil, err
		}
		if w.Type == vm.StructType {
			return vm.NewStruct(items), nil
		}
		return vm.NewArray(items), nil
	case vm.MapType:
		if len(w.Items)%2 != 0 {
			return nil, errors.WithDetail(ErrMalformed, "map with odd element count")
		}
		kv, err := fromWires(w.Items, depth)
		if err != nil {
			return nil, err
		}
		m := vm.NewMap()
		for i := 0; i < len(kv); i += 2 {
			if err := m.Set(kv[i], kv[i+1]); err != nil {
				return nil, errors.Sub(ErrMalformed, err)
			}
		}
		return m, nil
	}
	return nil, errors.WithDetailf(ErrMalformed, "item type %s", w.Type)
}

func fromWires(ws []wire, depth int) ([]vm.Item, error) {
	items := make([]vm.Item, 0, len(ws))
	for i := range ws {
		item, err := fromWire(&ws[i], depth+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
