/*
Package checked implements integer arithmetic
with underflow and overflow checks.

Every function returns ok=false instead of a wrapped result.
Callers that need exact semantics beyond the machine word
fall back to math/big when ok is false.
*/
package checked

import (
	"errors"
	"math"
)

var ErrOverflow = errors.New("arithmetic overflow")

// AddInt64 returns a + b
// with an integer overflow check.
func AddInt64(a, b int64) (sum int64, ok bool) {
	if (b > 0 && a > math.MaxInt64-b) ||
		(b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// SubInt64 returns a - b
// with an integer overflow check.
func SubInt64(a, b int64) (diff int64, ok bool) {
	if (b > 0 && a < math.MinInt64+b) ||
		(b < 0 && a > math.MaxInt64+b) {
		return 0, false
	}
	return a - b, true
}

// MulInt64 returns a * b
// with an integer overflow check.
func MulInt64(a, b int64) (product int64, ok bool) {
	if (a > 0 && b > 0 && a > math.MaxInt64/b) ||
		(a > 0 && b <= 0 && b < math.MinInt64/a) ||
		(a <= 0 && b > 0 && a < math.MinInt64/b) ||
		(a < 0 && b <= 0 && b < math.MaxInt64/a) {
		return 0, false
	}
	return a * b, true
}

// DivInt64 returns a / b, truncated toward zero,
// with an integer overflow check.
func DivInt64(a, b int64) (quotient int64, ok bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a / b, true
}

// ModInt64 returns a % b, with the sign of a,
// with an integer overflow check.
func ModInt64(a, b int64) (remainder int64, ok bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a % b, true
}

// NegateInt64 returns -a
// with an integer overflow check.
func NegateInt64(a int64) (negated int64, ok bool) {
	if a == math.MinInt64 {
		return 0, false
	}
	return -a, true
}

// AbsInt64 returns |a|
// with an integer overflow check.
func AbsInt64(a int64) (abs int64, ok bool) {
	if a < 0 {
		return NegateInt64(a)
	}
	return a, true
}

// LshiftInt64 returns a << b
// with an integer overflow check.
func LshiftInt64(a, b int64) (result int64, ok bool) {
	if b < 0 || b >= 64 {
		return 0, false
	}
	if (a >= 0 && a > math.MaxInt64>>uint(b)) || (a < 0 && a < math.MinInt64>>uint(b)) {
		return 0, false
	}
	return a << uint(b), true
}

// RshiftInt64 returns a >> b, rounding toward negative infinity.
// Shifts of 64 or more saturate to 0 or -1.
func RshiftInt64(a, b int64) (result int64, ok bool) {
	if b < 0 {
		return 0, false
	}
	if b >= 64 {
		if a < 0 {
			return -1, true
		}
		return 0, true
	}
	return a >> uint(b), true
}

// AddUint32 returns a + b
// with an integer overflow check.
func AddUint32(a, b uint32) (sum uint32, ok bool) {
	if math.MaxUint32-a < b {
		return 0, false
	}
	return a + b, true
}
