// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"encoding"
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestStringer(t *testing.T) {
	c := qt.New(t)

	c.Assert(TypeByte.String(), qt.Equals, "Byte")
	c.Assert(TypeSRational.String(), qt.Equals, "SRational")
	c.Assert(TypeIFD.String(), qt.Equals, "IFD")
	c.Assert(TypeIFD8.String(), qt.Equals, "IFD8")
	c.Assert(Type(14).String(), qt.Equals, "Type(14)")
	c.Assert(Type(255).String(), qt.Equals, "Type(255)")

	var imageFormatAuto ImageFormat
	var imageFormat42 ImageFormat = 42
	c.Assert(JPEG.String(), qt.Equals, "JPEG")
	c.Assert(PNG.String(), qt.Equals, "PNG")
	c.Assert(TIFF.String(), qt.Equals, "TIFF")
	c.Assert(WebP.String(), qt.Equals, "WebP")
	c.Assert(HEIF.String(), qt.Equals, "HEIF")
	c.Assert(imageFormatAuto.String(), qt.Equals, "ImageFormatAuto")
	c.Assert(imageFormat42.String(), qt.Equals, "ImageFormat(42)")

	c.Assert(TagExifIFD.String(), qt.Equals, "ExifIFD")
	c.Assert(Tag(0x0001).String(), qt.Equals, "UnknownTag_0x0001")
	c.Assert(Tag(0x0001).name(TagGPSIFD), qt.Equals, "GPSLatitudeRef")
	c.Assert(Tag(0x0001).name(TagInteroperability), qt.Equals, "InteroperabilityIndex")
}

func TestTypeSize(t *testing.T) {
	c := qt.New(t)

	c.Assert(TypeByte.Size(), qt.Equals, 1)
	c.Assert(TypeShort.Size(), qt.Equals, 2)
	c.Assert(TypeIFD.Size(), qt.Equals, 4)
	c.Assert(TypeSRational.Size(), qt.Equals, 8)
	c.Assert(TypeSLong8.Size(), qt.Equals, 8)
	c.Assert(Type(0).Size(), qt.Equals, 0)
	c.Assert(Type(14).Size(), qt.Equals, 0)
	c.Assert(Type(-1).Size(), qt.Equals, 0)
	c.Assert(Type(255).IsKnown(), qt.IsFalse)

	c.Assert(valueLength(TypeRational, 3), qt.Equals, int64(24))
	c.Assert(valueLength(Type(255), 3), qt.Equals, int64(-1))
	c.Assert(valueLength(TypeDouble, math.MaxUint32), qt.Equals, int64(8)*math.MaxUint32)
}

func TestRat(t *testing.T) {
	c := qt.New(t)

	c.Run("NewRat", func(c *qt.C) {
		ru := NewRat[uint32](1, 2)
		c.Assert(ru.Num(), qt.Equals, uint32(1))
		c.Assert(ru.Den(), qt.Equals, uint32(2))

		ri := NewRat[int32](-1, 2)
		c.Assert(ri.Num(), qt.Equals, int32(-1))
		c.Assert(ri.Den(), qt.Equals, int32(2))

		// Kept as stored.
		ri = NewRat[int32](6, 9)
		c.Assert(ri.Num(), qt.Equals, int32(6))
		c.Assert(ri.Den(), qt.Equals, int32(9))
		ri = NewRat[int32](13, -3)
		c.Assert(ri.Num(), qt.Equals, int32(13))
		c.Assert(ri.Den(), qt.Equals, int32(-3))
	})

	c.Run("Zero denominator", func(c *qt.C) {
		ri := NewRat[int32](10, 0)
		c.Assert(ri.Den(), qt.Equals, int32(0))
		c.Assert(math.IsInf(ri.Float64(), 1), qt.IsTrue)
		c.Assert(math.IsNaN(NewRat[uint32](0, 0).Float64()), qt.IsTrue)
		c.Assert(ri.String(), qt.Equals, "10/0")
	})

	c.Run("Float64", func(c *qt.C) {
		c.Assert(NewRat[uint32](1, 4).Float64(), qt.Equals, 0.25)
		c.Assert(NewRat[int32](-3, 2).Float64(), qt.Equals, -1.5)
	})

	c.Run("MarshalText", func(c *qt.C) {
		var v encoding.TextMarshaler = NewRat[uint32](1, 2)
		text, err := v.MarshalText()
		c.Assert(err, qt.IsNil)
		c.Assert(string(text), qt.Equals, "1/2")
	})

	c.Run("UnmarshalText", func(c *qt.C) {
		ru := NewRat[uint32](1, 2)
		err := ru.UnmarshalText([]byte("3/4"))
		c.Assert(err, qt.IsNil)
		c.Assert(ru.Num(), qt.Equals, uint32(3))
		c.Assert(ru.Den(), qt.Equals, uint32(4))

		err = ru.UnmarshalText([]byte("4"))
		c.Assert(err, qt.IsNil)
		c.Assert(ru.Num(), qt.Equals, uint32(4))
		c.Assert(ru.Den(), qt.Equals, uint32(1))

		ri := NewRat[int32](0, 1)
		c.Assert(ri.UnmarshalText([]byte("-5/3")), qt.IsNil)
		c.Assert(ri.Num(), qt.Equals, int32(-5))

		c.Assert(ru.UnmarshalText([]byte("a/b")), qt.ErrorMatches, `failed to parse "a/b".*`)
		c.Assert(ru.UnmarshalText([]byte("abc")), qt.ErrorMatches, `failed to parse "abc".*`)
		c.Assert(ru.UnmarshalText([]byte("5000000000")), qt.ErrorMatches, `failed to parse "5000000000".*out of range`)
		c.Assert(ru.UnmarshalText([]byte("-1")), qt.ErrorMatches, `failed to parse "-1".*out of range`)
		c.Assert(ri.UnmarshalText([]byte("2147483648")), qt.ErrorMatches, `failed to parse "2147483648".*out of range`)
		c.Assert(ri.UnmarshalText([]byte("-2147483648")), qt.IsNil)
		c.Assert(ri.Num(), qt.Equals, int32(math.MinInt32))
		c.Assert(ru.Num(), qt.Equals, uint32(4))
	})

	c.Run("String", func(c *qt.C) {
		c.Assert(NewRat[uint32](1, 2).String(), qt.Equals, "1/2")
		c.Assert(NewRat[uint32](4, 1).String(), qt.Equals, "4")
		c.Assert(NewRat[int32](-72, 10).String(), qt.Equals, "-72/10")
	})
}

func TestFormatValue(t *testing.T) {
	c := qt.New(t)

	c.Assert(FormatValue(Text("Canon"), 0), qt.Equals, `"Canon"`)
	c.Assert(FormatValue(Short(3), 0), qt.Equals, "3")
	c.Assert(FormatValue(Shorts{1, 2, 3}, 0), qt.Equals, "[1 2 3]")
	c.Assert(FormatValue(Shorts{1, 2, 3}, 2), qt.Equals, "[1 2 ... (1 more)]")
	c.Assert(FormatValue(Rationals{NewRat[uint32](1, 2), NewRat[uint32](3, 1)}, 0), qt.Equals, "[1/2 3]")
	c.Assert(FormatValue(NewRat[int32](-1, 3), 0), qt.Equals, "-1/3")
	c.Assert(FormatValue(Unknown{Type: 255, Count: 3, Offset: 30}, 0), qt.Equals, "Unknown(type=255, count=3, offset=30)")
	c.Assert(FormatValue(&Directory{entries: make([]Entry, 2)}, 0), qt.Equals, "Directory(2 entries)")
	c.Assert(FormatValue(nil, 0), qt.Equals, "<nil>")
}

func TestUint64(t *testing.T) {
	c := qt.New(t)

	for _, v := range []Value{Byte(7), Short(7), Long(7), Long8(7)} {
		n, ok := Uint64(v)
		c.Assert(ok, qt.IsTrue)
		c.Assert(n, qt.Equals, uint64(7))
	}
	for _, v := range []Value{SLong(7), Longs{7}, Text("7"), Bytes{7}} {
		_, ok := Uint64(v)
		c.Assert(ok, qt.IsFalse)
	}
}
