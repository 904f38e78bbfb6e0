package vm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/zeebo/xxh3"
)

// ItemType tags the stack item variants.
type ItemType uint8

const (
	AnyType        ItemType = 0x00
	PointerType    ItemType = 0x10
	BooleanType    ItemType = 0x20
	IntegerType    ItemType = 0x21
	ByteStringType ItemType = 0x28
	BufferType     ItemType = 0x30
	ArrayType      ItemType = 0x40
	StructType     ItemType = 0x41
	MapType        ItemType = 0x48
	InteropType    ItemType = 0x60
)

var itemTypeNames = map[ItemType]string{
	AnyType:        "Any",
	PointerType:    "Pointer",
	BooleanType:    "Boolean",
	IntegerType:    "Integer",
	ByteStringType: "ByteString",
	BufferType:     "Buffer",
	ArrayType:      "Array",
	StructType:     "Struct",
	MapType:        "Map",
	InteropType:    "InteropInterface",
}

func (t ItemType) String() string {
	if s, ok := itemTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ItemType(0x%02x)", uint8(t))
}

// Valid reports whether t names one of the item variants.
func (t ItemType) Valid() bool {
	_, ok := itemTypeNames[t]
	return ok
}

// ParseItemType looks up a type by name.
func ParseItemType(name string) (ItemType, bool) {
	for t, s := range itemTypeNames {
		if s == name {
			return t, true
		}
	}
	return 0, false
}

// An Item is a value on an evaluation stack, in a slot or in a
// container. Null, Boolean, Integer, ByteString and Pointer are
// immutable values; Buffer, Array, Struct, Map and Interop are
// referenced by pointer and compared by identity (Struct excepted).
type Item interface {
	Type() ItemType
	String() string
}

type Null struct{}

func (Null) Type() ItemType { return AnyType }
func (Null) String() string { return "null" }

type Boolean bool

func (Boolean) Type() ItemType { return BooleanType }
func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

func (b Boolean) bytes() []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

// Integer is an arbitrary-precision integer whose minimal
// two's-complement encoding is at most 32 bytes.
type Integer struct {
	small int64
	big   *big.Int // non-nil only when the value does not fit in small
}

// NewInt64 returns n as an Integer.
func NewInt64(n int64) Integer {
	return Integer{small: n}
}

// NewBigInt returns x as an Integer, or ErrIntegerOverflow if its
// encoding exceeds 32 bytes.
func NewBigInt(x *big.Int) (Integer, error) {
	if intSize(x) > maxIntegerSize {
		return Integer{}, ErrIntegerOverflow
	}
	return normalize(new(big.Int).Set(x)), nil
}

// normalize takes ownership of x.
func normalize(x *big.Int) Integer {
	if x.IsInt64() {
		return Integer{small: x.Int64()}
	}
	return Integer{big: x}
}

func (Integer) Type() ItemType { return IntegerType }

func (i Integer) String() string {
	if i.big != nil {
		return i.big.String()
	}
	return strconv.FormatInt(i.small, 10)
}

// Big returns a copy of the value as a big.Int.
func (i Integer) Big() *big.Int {
	if i.big != nil {
		return new(big.Int).Set(i.big)
	}
	return big.NewInt(i.small)
}

// Int64 returns the value and whether it fits in an int64.
func (i Integer) Int64() (int64, bool) {
	if i.big != nil {
		return 0, false
	}
	return i.small, true
}

func (i Integer) Sign() int {
	if i.big != nil {
		return i.big.Sign()
	}
	switch {
	case i.small < 0:
		return -1
	case i.small > 0:
		return 1
	}
	return 0
}

func (i Integer) Cmp(o Integer) int {
	if i.big == nil && o.big == nil {
		switch {
		case i.small < o.small:
			return -1
		case i.small > o.small:
			return 1
		}
		return 0
	}
	return i.Big().Cmp(o.Big())
}

func (i Integer) bytes() []byte {
	if i.big != nil {
		return bigBytes(i.big)
	}
	return int64Bytes(i.small)
}

// ByteString is an immutable byte sequence.
type ByteString string

func (ByteString) Type() ItemType { return ByteStringType }

func (s ByteString) String() string {
	return "0x" + hex.EncodeToString([]byte(s))
}

// Buffer is a mutable fixed-length byte region.
type Buffer struct {
	data   []byte
	digest uint64
	hashed bool
}

// NewBuffer returns a buffer holding b. It takes ownership of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

func (*Buffer) Type() ItemType { return BufferType }

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer[%d]#%016x", len(b.data), b.Hash())
}

func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Len() int      { return len(b.data) }

// Hash returns the xxh3 digest of the buffer's current contents.
func (b *Buffer) Hash() uint64 {
	if !b.hashed {
		b.digest = xxh3.Hash(b.data)
		b.hashed = true
	}
	return b.digest
}

// touch must follow every write to b.data.
func (b *Buffer) touch() {
	b.hashed = false
}

type Array struct {
	items []Item
}

// NewArray returns an array holding items. It takes ownership of items.
func NewArray(items []Item) *Array {
	return &Array{items: items}
}

func (*Array) Type() ItemType  { return ArrayType }
func (a *Array) String() string { return "array" + formatItems(a.items) }
func (a *Array) Items() []Item  { return a.items }
func (a *Array) Len() int       { return len(a.items) }

// Struct is an array with value semantics: it is cloned when
// duplicated or stored into a container and compared element-wise.
type Struct struct {
	items []Item
}

// NewStruct returns a struct holding items. It takes ownership of items.
func NewStruct(items []Item) *Struct {
	return &Struct{items: items}
}

func (*Struct) Type() ItemType  { return StructType }
func (s *Struct) String() string { return "struct" + formatItems(s.items) }
func (s *Struct) Items() []Item  { return s.items }
func (s *Struct) Len() int       { return len(s.items) }

// clone copies s, recursing into nested structs. At most limit items
// are copied in total.
func (s *Struct) clone(limit int) (*Struct, error) {
	n := limit
	return s.cloneN(&n)
}

func (s *Struct) cloneN(n *int) (*Struct, error) {
	items := make([]Item, len(s.items))
	for i, it := range s.items {
		*n--
		if *n < 0 {
			return nil, ErrStackOverflow
		}
		if sub, ok := it.(*Struct); ok {
			c, err := sub.cloneN(n)
			if err != nil {
				return nil, err
			}
			it = c
		}
		items[i] = it
	}
	return &Struct{items: items}, nil
}

func formatItems(items []Item) string {
	s := "["
	for i, it := range items {
		if i > 0 {
			s += " "
		}
		if i == 8 {
			s += "..."
			break
		}
		switch it.(type) {
		case *Array, *Struct, *Map:
			s += it.Type().String()
		default:
			s += it.String()
		}
	}
	return s + "]"
}

// Pointer is a script position pushed by PUSHA. It is only valid
// in contexts executing the script it was created in.
type Pointer struct {
	Script *Script
	Pos    int
}

func (Pointer) Type() ItemType { return PointerType }
func (p Pointer) String() string {
	return fmt.Sprintf("pointer(%d)", p.Pos)
}

// Interop carries an opaque host value.
type Interop struct {
	Value interface{}
}

func NewInterop(v interface{}) *Interop {
	return &Interop{Value: v}
}

func (*Interop) Type() ItemType   { return InteropType }
func (i *Interop) String() string { return fmt.Sprintf("interop(%T)", i.Value) }
