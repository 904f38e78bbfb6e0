package vm

import "chainvm/errors"

// AsBool interprets item as a condition.
func AsBool(item Item) (bool, error) {
	switch item := item.(type) {
	case Null:
		return false, nil
	case Boolean:
		return bool(item), nil
	case Integer:
		return item.Sign() != 0, nil
	case ByteString:
		if len(item) > maxIntegerSize {
			return false, errors.WithDetailf(ErrInvalidCast, "%d-byte string as boolean", len(item))
		}
		for i := 0; i < len(item); i++ {
			if item[i] != 0 {
				return true, nil
			}
		}
		return false, nil
	}
	return true, nil
}

// AsInteger interprets item as an integer.
func AsInteger(item Item) (Integer, error) {
	switch item := item.(type) {
	case Boolean:
		if item {
			return NewInt64(1), nil
		}
		return NewInt64(0), nil
	case Integer:
		return item, nil
	case ByteString:
		if len(item) > maxIntegerSize {
			return Integer{}, errors.WithDetailf(ErrInvalidCast, "%d-byte string as integer", len(item))
		}
		return bytesToInteger([]byte(item)), nil
	case *Buffer:
		if len(item.data) > maxIntegerSize {
			return Integer{}, errors.WithDetailf(ErrInvalidCast, "%d-byte buffer as integer", len(item.data))
		}
		return bytesToInteger(item.data), nil
	}
	return Integer{}, errors.WithDetailf(ErrInvalidCast, "%s as integer", item.Type())
}

// AsBytes returns the byte encoding of a primitive or the contents of
// a buffer. Callers must not modify the result.
func AsBytes(item Item) ([]byte, error) {
	switch item := item.(type) {
	case Boolean:
		return item.bytes(), nil
	case Integer:
		return item.bytes(), nil
	case ByteString:
		return []byte(item), nil
	case *Buffer:
		return item.data, nil
	}
	return nil, errors.WithDetailf(ErrInvalidCast, "%s as bytes", item.Type())
}

// AsInt returns item as an int, failing if it does not fit in 32 bits.
func AsInt(item Item) (int, error) {
	i, err := AsInteger(item)
	if err != nil {
		return 0, err
	}
	n, ok := i.Int64()
	if !ok || n < -1<<31 || n > 1<<31-1 {
		return 0, errors.WithDetailf(ErrBadValue, "%s out of int32 range", i)
	}
	return int(n), nil
}

func isPrimitive(item Item) bool {
	switch item.(type) {
	case Boolean, Integer, ByteString:
		return true
	}
	return false
}

// Convert converts item to type t. Buffers, arrays and structs are
// copied; converting to the item's own type returns it unchanged.
func Convert(item Item, t ItemType) (Item, error) {
	if t == AnyType || !t.Valid() {
		return nil, errors.WithDetailf(ErrInvalidType, "convert to %s", t)
	}
	if item.Type() == t {
		return item, nil
	}
	if _, ok := item.(Null); ok {
		return item, nil
	}
	if t == BooleanType {
		b, err := AsBool(item)
		return Boolean(b), err
	}
	switch item := item.(type) {
	case Boolean, Integer, ByteString, *Buffer:
		switch t {
		case IntegerType:
			return AsInteger(item)
		case ByteStringType:
			b, err := AsBytes(item)
			return ByteString(b), err
		case BufferType:
			b, err := AsBytes(item)
			if err != nil {
				return nil, err
			}
			return NewBuffer(append([]byte{}, b...)), nil
		}
	case *Array:
		if t == StructType {
			return NewStruct(append([]Item(nil), item.items...)), nil
		}
	case *Struct:
		if t == ArrayType {
			return NewArray(append([]Item(nil), item.items...)), nil
		}
	}
	return nil, errors.WithDetailf(ErrInvalidCast, "%s to %s", item.Type(), t)
}

// Equal reports whether a and b are equal under the VM's rules.
func Equal(a, b Item, limits *Limits) (bool, error) {
	budget := limits.MaxComparableSize
	return equal(a, b, limits, &budget)
}

func equal(a, b Item, limits *Limits, budget *int) (bool, error) {
	switch a := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok, nil
	case Boolean:
		bb, ok := b.(Boolean)
		return ok && a == bb, nil
	case Integer:
		bi, ok := b.(Integer)
		return ok && a.Cmp(bi) == 0, nil
	case ByteString:
		bs, ok := b.(ByteString)
		if !ok {
			return false, nil
		}
		n := len(a)
		if len(bs) > n {
			n = len(bs)
		}
		*budget -= n
		if *budget < 0 {
			return false, errors.WithDetailf(ErrComparableSize, "max %d bytes", limits.MaxComparableSize)
		}
		return a == bs, nil
	case Pointer:
		bp, ok := b.(Pointer)
		return ok && a.Script == bp.Script && a.Pos == bp.Pos, nil
	case *Struct:
		bs, ok := b.(*Struct)
		if !ok {
			return false, nil
		}
		return structEqual(a, bs, limits, budget)
	}
	return a == b, nil
}

// structEqual compares element-wise, visiting at most
// MaxStackSize elements.
func structEqual(a, b *Struct, limits *Limits, budget *int) (bool, error) {
	count := limits.MaxStackSize
	type pair struct{ a, b Item }
	work := []pair{{a, b}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		count--
		if count < 0 {
			return false, errors.WithDetail(ErrStackOverflow, "struct comparison too deep")
		}
		sa, aok := p.a.(*Struct)
		sb, bok := p.b.(*Struct)
		if aok && bok {
			if sa == sb {
				continue
			}
			if len(sa.items) != len(sb.items) {
				return false, nil
			}
			for i := len(sa.items) - 1; i >= 0; i-- {
				work = append(work, pair{sa.items[i], sb.items[i]})
			}
			continue
		}
		if aok != bok {
			return false, nil
		}
		eq, err := equal(p.a, p.b, limits, budget)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// itemSize is the byte size reported by SIZE for primitives and
// buffers.
func itemSize(item Item) (int, bool) {
	switch item := item.(type) {
	case Boolean:
		return 1, true
	case Integer:
		return len(item.bytes()), true
	case ByteString:
		return len(item), true
	case *Buffer:
		return len(item.data), true
	}
	return 0, false
}
