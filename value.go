// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"fmt"
	"strings"
)

// Value is the decoded value of an Entry.
//
// The set of implementations is closed; a type switch over the types below
// (plus Rational, SRational and *Directory) covers every value the decoder produces.
type Value interface {
	isValue()
}

type (
	// Byte is a single BYTE.
	Byte uint8
	// SByte is a single SBYTE.
	SByte int8
	// Bytes holds BYTE and SBYTE arrays and all UNDEFINED values as raw binary data.
	Bytes []byte
	// Text is an ASCII value without its NUL terminator.
	Text string

	Short  uint16
	Shorts []uint16
	Long   uint32
	// Longs holds LONG and IFD arrays.
	Longs   []uint32
	SShort  int16
	SShorts []int16
	SLong   int32
	SLongs  []int32

	Rational   = Rat[uint32]
	Rationals  []Rational
	SRational  = Rat[int32]
	SRationals []SRational

	Float   float32
	Floats  []float32
	Double  float64
	Doubles []float64

	// Long8 holds LONG8 and IFD8 values, always <= math.MaxInt64.
	Long8   uint64
	Long8s  []uint64
	SLong8  int64
	SLong8s []int64
)

// Unknown is a placeholder for a value of a type this package does not know.
type Unknown struct {
	Type  Type
	Count uint32
	// Offset is the stream position of the value data, relative to the TIFF header.
	Offset int64
}

func (Byte) isValue()       {}
func (SByte) isValue()      {}
func (Bytes) isValue()      {}
func (Text) isValue()       {}
func (Short) isValue()      {}
func (Shorts) isValue()     {}
func (Long) isValue()       {}
func (Longs) isValue()      {}
func (SShort) isValue()     {}
func (SShorts) isValue()    {}
func (SLong) isValue()      {}
func (SLongs) isValue()     {}
func (Rationals) isValue()  {}
func (SRationals) isValue() {}
func (Float) isValue()      {}
func (Floats) isValue()     {}
func (Double) isValue()     {}
func (Doubles) isValue()    {}
func (Long8) isValue()      {}
func (Long8s) isValue()     {}
func (SLong8) isValue()     {}
func (SLong8s) isValue()    {}
func (Unknown) isValue()    {}

func (u Unknown) String() string {
	return fmt.Sprintf("Unknown(type=%d, count=%d, offset=%d)", u.Type, u.Count, u.Offset)
}

// Uint64 returns v as an unsigned integer if v is an unsigned integer scalar.
func Uint64(v Value) (uint64, bool) {
	switch vv := v.(type) {
	case Byte:
		return uint64(vv), true
	case Short:
		return uint64(vv), true
	case Long:
		return uint64(vv), true
	case Long8:
		return uint64(vv), true
	default:
		return 0, false
	}
}

// FormatValue formats v for display.
// Arrays are truncated after limit elements, a limit <= 0 means no limit.
func FormatValue(v Value, limit int) string {
	switch vv := v.(type) {
	case Text:
		return fmt.Sprintf("%q", string(vv))
	case Bytes:
		return formatSlice([]byte(vv), limit)
	case Shorts:
		return formatSlice([]uint16(vv), limit)
	case Longs:
		return formatSlice([]uint32(vv), limit)
	case SShorts:
		return formatSlice([]int16(vv), limit)
	case SLongs:
		return formatSlice([]int32(vv), limit)
	case Rationals:
		return formatSlice([]Rational(vv), limit)
	case SRationals:
		return formatSlice([]SRational(vv), limit)
	case Floats:
		return formatSlice([]float32(vv), limit)
	case Doubles:
		return formatSlice([]float64(vv), limit)
	case Long8s:
		return formatSlice([]uint64(vv), limit)
	case SLong8s:
		return formatSlice([]int64(vv), limit)
	case *Directory:
		return fmt.Sprintf("Directory(%d entries)", vv.Len())
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func formatSlice[T any](s []T, limit int) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range s {
		if limit > 0 && i == limit {
			sb.WriteString(fmt.Sprintf(" ... (%d more)", len(s)-limit))
			break
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("%v", v))
	}
	sb.WriteString("]")
	return sb.String()
}
