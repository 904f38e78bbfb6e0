package vm

import (
	"math/big"
)

// maxIntegerSize is the largest encoding, in bytes, of an Integer.
const maxIntegerSize = 32

var bigOne = big.NewInt(1)

// intSize returns the length of the minimal two's-complement
// encoding of x.
func intSize(x *big.Int) int {
	switch x.Sign() {
	case 0:
		return 0
	case 1:
		return x.BitLen()/8 + 1
	}
	m := new(big.Int).Neg(x)
	m.Sub(m, bigOne)
	return m.BitLen()/8 + 1
}

// bigBytes encodes x as minimal little-endian two's complement.
// Zero encodes as the empty slice.
func bigBytes(x *big.Int) []byte {
	switch x.Sign() {
	case 0:
		return []byte{}
	case 1:
		b := reverse(x.Bytes())
		if b[len(b)-1]&0x80 != 0 {
			b = append(b, 0)
		}
		return b
	}
	m := new(big.Int).Neg(x)
	m.Sub(m, bigOne)
	b := reverse(m.Bytes())
	for i := range b {
		b[i] = ^b[i]
	}
	if len(b) == 0 || b[len(b)-1]&0x80 == 0 {
		b = append(b, 0xff)
	}
	return b
}

// int64Bytes is bigBytes for an int64.
func int64Bytes(n int64) []byte {
	if n == 0 {
		return []byte{}
	}
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(n >> (8 * uint(i)))
	}
	for len(b) > 1 {
		last, prev := b[len(b)-1], b[len(b)-2]
		if (last == 0 && prev&0x80 == 0) || (last == 0xff && prev&0x80 != 0) {
			b = b[:len(b)-1]
			continue
		}
		break
	}
	return b
}

// bytesToInteger decodes little-endian two's complement.
func bytesToInteger(b []byte) Integer {
	if len(b) <= 8 {
		var n int64
		for i := len(b) - 1; i >= 0; i-- {
			n = n<<8 | int64(b[i])
		}
		if len(b) > 0 && len(b) < 8 && b[len(b)-1]&0x80 != 0 {
			n -= 1 << (8 * uint(len(b)))
		}
		return Integer{small: n}
	}
	x := new(big.Int).SetBytes(reverse(b))
	if b[len(b)-1]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(bigOne, 8*uint(len(b))))
	}
	return normalize(x)
}

func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}
	return r
}
