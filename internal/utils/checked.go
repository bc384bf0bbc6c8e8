package utils

import "math"

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func overflow(what string) *AppError {
	return &AppError{Code: ErrArithmetic, Message: what + " overflow"}
}

func underflow(what string) *AppError {
	return &AppError{Code: ErrArithmetic, Message: what + " underflow"}
}

// CheckedAdd returns a+b or an ARITHMETIC error naming what overflowed.
func CheckedAdd[T integer](a, b T, what string) (T, error) {
	sum := a + b
	if b > 0 && sum < a {
		return a, overflow(what)
	}
	if b < 0 && sum > a {
		return a, underflow(what)
	}
	return sum, nil
}

// CheckedSub returns a-b or an ARITHMETIC error naming what underflowed.
func CheckedSub[T integer](a, b T, what string) (T, error) {
	diff := a - b
	if b > 0 && diff > a {
		return a, underflow(what)
	}
	if b < 0 && diff < a {
		return a, overflow(what)
	}
	return diff, nil
}

func Inc[T integer](v T, what string) (T, error) {
	return CheckedAdd(v, 1, what)
}

func Dec[T integer](v T, what string) (T, error) {
	return CheckedSub(v, 1, what)
}

// ToInt32 narrows a 64-bit intermediate result.
func ToInt32(v int64, what string) (int32, error) {
	if v > math.MaxInt32 {
		return 0, overflow(what)
	}
	if v < math.MinInt32 {
		return 0, underflow(what)
	}
	return int32(v), nil
}
