package vm

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"chainvm/errors"
)

func TestIntegerEncoding(t *testing.T) {
	cases := []struct {
		dec string
		hex string
	}{
		{"0", ""},
		{"1", "01"},
		{"-1", "ff"},
		{"127", "7f"},
		{"128", "8000"},
		{"-128", "80"},
		{"-129", "7fff"},
		{"255", "ff00"},
		{"256", "0001"},
		{"-9223372036854775808", "0000000000000080"},
		{"9223372036854775808", "000000000000008000"},
		{"-9223372036854775809", "ffffffffffffff7fff"},
	}
	for _, c := range cases {
		x, _ := new(big.Int).SetString(c.dec, 10)
		want, _ := hex.DecodeString(c.hex)

		if got := bigBytes(x); !bytes.Equal(got, want) {
			t.Errorf("bigBytes(%s) = %x want %s", c.dec, got, c.hex)
		}
		if got := intSize(x); got != len(want) {
			t.Errorf("intSize(%s) = %d want %d", c.dec, got, len(want))
		}
		if x.IsInt64() {
			if got := int64Bytes(x.Int64()); !bytes.Equal(got, want) {
				t.Errorf("int64Bytes(%s) = %x want %s", c.dec, got, c.hex)
			}
		}
		got := bytesToInteger(want)
		if got.String() != c.dec {
			t.Errorf("bytesToInteger(%s) = %s want %s", c.hex, got, c.dec)
		}
		if _, small := got.Int64(); small != x.IsInt64() {
			t.Errorf("bytesToInteger(%s) small = %v want %v", c.hex, small, x.IsInt64())
		}
	}
}

func TestNewBigInt(t *testing.T) {
	hi := new(big.Int).Lsh(bigOne, 255)
	hi.Sub(hi, bigOne)
	if _, err := NewBigInt(hi); err != nil {
		t.Errorf("NewBigInt(2^255-1) error: %v", err)
	}
	lo := new(big.Int).Neg(new(big.Int).Lsh(bigOne, 255))
	if _, err := NewBigInt(lo); err != nil {
		t.Errorf("NewBigInt(-2^255) error: %v", err)
	}
	over := new(big.Int).Add(hi, bigOne)
	if _, err := NewBigInt(over); err != ErrIntegerOverflow {
		t.Errorf("NewBigInt(2^255) error = %v want %v", err, ErrIntegerOverflow)
	}

	i, _ := NewBigInt(big.NewInt(7))
	if n, ok := i.Int64(); !ok || n != 7 {
		t.Errorf("NewBigInt(7).Int64() = %d, %v", n, ok)
	}
	x := big.NewInt(9)
	i, _ = NewBigInt(x)
	x.SetInt64(10)
	if i.String() != "9" {
		t.Errorf("NewBigInt kept a reference to its argument: %s", i)
	}
}

func TestMap(t *testing.T) {
	m := NewMap()
	if _, err := m.set(NewInt64(1), ByteString("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.set(ByteString("\x01"), ByteString("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.set(Boolean(true), ByteString("c")); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d want 3: keys of different types must not collide", m.Len())
	}

	old, err := m.set(NewInt64(1), ByteString("d"))
	if err != nil || old != ByteString("a") {
		t.Errorf("set(1) replaced %v, %v want a", old, err)
	}
	if v, ok, _ := m.Get(NewInt64(1)); !ok || v != ByteString("d") {
		t.Errorf("Get(1) = %v, %v want d", v, ok)
	}

	key, val, err := m.remove(ByteString("\x01"))
	if err != nil || key != ByteString("\x01") || val != ByteString("b") {
		t.Errorf("remove(0x01) = %v, %v, %v", key, val, err)
	}
	if v, ok, _ := m.Get(Boolean(true)); !ok || v != ByteString("c") {
		t.Errorf("Get(true) after removal = %v, %v want c", v, ok)
	}
	if got := describeAll(m.Keys()); strings.Join(got, " ") != "1 true" {
		t.Errorf("Keys() = %v want [1 true]", got)
	}
	if key, _, _ := m.remove(ByteString("missing")); key != nil {
		t.Errorf("remove(missing) = %v want nil", key)
	}

	m.clear()
	if m.Len() != 0 {
		t.Errorf("Len() after clear = %d", m.Len())
	}
	if _, ok, _ := m.Get(Boolean(true)); ok {
		t.Error("Get(true) found a cleared key")
	}
}

func TestMapKey(t *testing.T) {
	cases := []struct {
		key     Item
		wantErr error
	}{
		{NewInt64(-1), nil},
		{Boolean(false), nil},
		{ByteString(strings.Repeat("k", 64)), nil},
		{ByteString(strings.Repeat("k", 65)), ErrMapKey},
		{Null{}, ErrMapKey},
		{NewBuffer([]byte("k")), ErrMapKey},
		{NewArray(nil), ErrMapKey},
	}
	for _, c := range cases {
		_, err := keyOf(c.key)
		if errors.Root(err) != c.wantErr {
			t.Errorf("keyOf(%s) error = %v want %v", c.key, err, c.wantErr)
		}
	}
}

func TestEqual(t *testing.T) {
	limits := DefaultLimits
	buf := NewBuffer([]byte("x"))
	arr := NewArray(nil)
	nested := func() *Struct {
		return NewStruct([]Item{NewInt64(1), NewStruct([]Item{ByteString("a")})})
	}
	cases := []struct {
		a, b Item
		want bool
	}{
		{Null{}, Null{}, true},
		{Null{}, Boolean(false), false},
		{Boolean(true), Boolean(true), true},
		{Boolean(true), NewInt64(1), false},
		{NewInt64(5), NewInt64(5), true},
		{bytesToInteger([]byte{0, 0, 0, 0, 0, 0, 0, 0, 1}), bytesToInteger([]byte{0, 0, 0, 0, 0, 0, 0, 0, 1}), true},
		{ByteString("ab"), ByteString("ab"), true},
		{ByteString("ab"), NewBuffer([]byte("ab")), false},
		{buf, buf, true},
		{buf, NewBuffer([]byte("x")), false},
		{arr, arr, true},
		{arr, NewArray(nil), false},
		{nested(), nested(), true},
		{nested(), NewStruct([]Item{NewInt64(1), NewStruct([]Item{ByteString("b")})}), false},
		{nested(), NewStruct([]Item{NewInt64(1)}), false},
		{NewStruct(nil), NewArray(nil), false},
	}
	for i, c := range cases {
		got, err := Equal(c.a, c.b, &limits)
		if err != nil {
			t.Errorf("case %d: Equal(%s, %s) error: %v", i, c.a, c.b, err)
			continue
		}
		if got != c.want {
			t.Errorf("case %d: Equal(%s, %s) = %v want %v", i, c.a, c.b, got, c.want)
		}
	}

	limits.MaxComparableSize = 3
	if _, err := Equal(ByteString("abcd"), ByteString("abcd"), &limits); errors.Root(err) != ErrComparableSize {
		t.Errorf("Equal over budget error = %v want %v", err, ErrComparableSize)
	}
}

func TestConvert(t *testing.T) {
	cases := []struct {
		item    Item
		to      ItemType
		want    string
		wantErr error
	}{
		{NewInt64(5), ByteStringType, "0x05", nil},
		{NewInt64(0), BooleanType, "false", nil},
		{ByteString("\x01"), IntegerType, "1", nil},
		{ByteString("\x00\x00"), BooleanType, "false", nil},
		{ByteString(strings.Repeat("\x01", 33)), BooleanType, "", ErrInvalidCast},
		{ByteString(strings.Repeat("\x01", 33)), IntegerType, "", ErrInvalidCast},
		{Boolean(true), IntegerType, "1", nil},
		{Boolean(true), ByteStringType, "0x01", nil},
		{NewBuffer([]byte("ab")), ByteStringType, "0x6162", nil},
		{ByteString("ab"), BufferType, "buffer:6162", nil},
		{NewArray([]Item{NewInt64(1)}), StructType, "struct[1]", nil},
		{NewStruct([]Item{NewInt64(1)}), ArrayType, "array[1]", nil},
		{NewArray(nil), BooleanType, "true", nil},
		{Null{}, IntegerType, "null", nil},
		{NewMap(), IntegerType, "", ErrInvalidCast},
		{NewInt64(1), AnyType, "", ErrInvalidType},
		{NewInt64(1), ItemType(0x99), "", ErrInvalidType},
	}
	for _, c := range cases {
		got, err := Convert(c.item, c.to)
		if errors.Root(err) != c.wantErr {
			t.Errorf("Convert(%s, %s) error = %v want %v", c.item, c.to, err, c.wantErr)
			continue
		}
		if c.wantErr == nil && describe(got) != c.want {
			t.Errorf("Convert(%s, %s) = %s want %s", c.item, c.to, describe(got), c.want)
		}
	}

	a := NewArray([]Item{NewInt64(1)})
	if got, _ := Convert(a, ArrayType); got != Item(a) {
		t.Error("converting to the same type copied the array")
	}
	s, _ := Convert(a, StructType)
	a.items[0] = NewInt64(2)
	if describe(s) != "struct[1]" {
		t.Errorf("converted struct shares elements with its source: %s", describe(s))
	}
}

func TestBufferHash(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	h := b.Hash()
	if b.Hash() != h {
		t.Error("Hash() not stable")
	}
	b.data[0] = 'x'
	b.touch()
	if b.Hash() == h {
		t.Error("Hash() unchanged after write")
	}
	if NewBuffer([]byte("xbc")).Hash() != b.Hash() {
		t.Error("equal contents hash differently")
	}
}

func TestStructClone(t *testing.T) {
	inner := NewStruct([]Item{NewInt64(1)})
	arr := NewArray(nil)
	s := NewStruct([]Item{inner, arr})
	c, err := s.clone(10)
	if err != nil {
		t.Fatal(err)
	}
	if c.items[0] == Item(inner) {
		t.Error("nested struct was not copied")
	}
	if c.items[1] != Item(arr) {
		t.Error("array element was copied")
	}
	if _, err := s.clone(2); err != ErrStackOverflow {
		t.Errorf("clone(2) error = %v want %v", err, ErrStackOverflow)
	}
}

func TestRefCounter(t *testing.T) {
	rc := NewRefCounter(CountPrecise, 4)
	inner := NewArray([]Item{NewInt64(1)})
	outer := NewArray([]Item{inner, NewInt64(2)})

	if err := rc.Add(outer); err != nil {
		t.Fatal(err)
	}
	if rc.Size() != 4 {
		t.Errorf("Size() = %d want 4", rc.Size())
	}
	if rc.Count(outer) != 1 || rc.Count(inner) != 1 {
		t.Errorf("counts = %d, %d want 1, 1", rc.Count(outer), rc.Count(inner))
	}
	if rc.Count(NewInt64(1)) != 0 {
		t.Error("primitive has a count")
	}

	if err := rc.Add(inner); errors.Root(err) != ErrStackOverflow {
		t.Errorf("Add over the limit error = %v want %v", err, ErrStackOverflow)
	}
	if rc.Count(inner) != 2 {
		t.Errorf("Count(inner) = %d want 2", rc.Count(inner))
	}
	rc.Remove(inner)

	rc.Remove(outer)
	if rc.Size() != 0 || rc.Count(inner) != 0 || rc.Count(outer) != 0 {
		t.Errorf("after release: size %d counts %d, %d", rc.Size(), rc.Count(outer), rc.Count(inner))
	}

	rc.AddChild(outer, NewInt64(3))
	if rc.Size() != 0 {
		t.Errorf("AddChild on an unreachable parent counted: size %d", rc.Size())
	}

	legacy := NewRefCounter(CountLegacy, 1)
	if err := legacy.Add(outer); err != nil {
		t.Errorf("legacy Add error: %v", err)
	}
	if err := legacy.Check(); errors.Root(err) != ErrStackOverflow {
		t.Errorf("legacy Check error = %v want %v", err, ErrStackOverflow)
	}
}
