// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
)

var (
	_ encoding.TextUnmarshaler = (*Rat[int32])(nil)
	_ encoding.TextMarshaler   = Rat[int32]{}
)

// Rat is a rational number as stored in the file.
// It is never reduced, and a zero denominator is kept as is.
type Rat[T int32 | uint32] struct {
	num T
	den T
}

// NewRat returns a new Rat with the given numerator and denominator.
func NewRat[T int32 | uint32](num, den T) Rat[T] {
	return Rat[T]{num: num, den: den}
}

// Num returns the numerator of the rational number.
func (r Rat[T]) Num() T {
	return r.num
}

// Den returns the denominator of the rational number.
func (r Rat[T]) Den() T {
	return r.den
}

// Float64 returns the float64 representation of the rational number.
// A zero denominator gives ±Inf or NaN.
func (r Rat[T]) Float64() float64 {
	return float64(r.num) / float64(r.den)
}

// String returns the string representation of the rational number.
// If the denominator is 1, the string will be the numerator only.
func (r Rat[T]) String() string {
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

func (r *Rat[T]) UnmarshalText(text []byte) error {
	s := string(text)
	if !strings.Contains(s, "/") {
		num, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
		}
		if int64(T(num)) != num {
			return fmt.Errorf("failed to parse %q as a rational number: %d is out of range", s, num)
		}
		r.num = T(num)
		r.den = 1
		return nil
	}
	if _, err := fmt.Sscanf(s, "%d/%d", &r.num, &r.den); err != nil {
		return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
	}
	return nil
}

func (r Rat[T]) MarshalText() (text []byte, err error) {
	return []byte(r.String()), nil
}

func (Rat[T]) isValue() {}
