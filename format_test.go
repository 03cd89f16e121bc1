// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd_test

import (
	"encoding/binary"
	"testing"

	"github.com/bep/ifd"
	"github.com/bep/ifd/internal/tifftest"

	qt "github.com/frankban/quicktest"
)

func testTIFF(order binary.ByteOrder) []byte {
	return tifftest.Encode(order, &tifftest.IFD{
		Entries: []tifftest.Entry{
			{Tag: uint16(ifd.TagMake), Type: uint16(ifd.TypeASCII), Count: 6, Data: []byte("Canon\x00")},
			{Tag: uint16(ifd.TagOrientation), Type: uint16(ifd.TypeShort), Count: 1, Data: tifftest.Values(order, uint16(6))},
			{Tag: uint16(ifd.TagExifIFD), Type: uint16(ifd.TypeLong), Count: 1, Sub: &tifftest.IFD{
				Entries: []tifftest.Entry{
					{Tag: 0x9003, Type: uint16(ifd.TypeASCII), Count: 20, Data: []byte("2024:01:02 03:04:05\x00")},
				},
			}},
		},
	})
}

func jpegSegment(marker uint16, data []byte) []byte {
	b := binary.BigEndian.AppendUint16(nil, marker)
	b = binary.BigEndian.AppendUint16(b, uint16(len(data)+2))
	return append(b, data...)
}

func wrapJPEG(tiff []byte) []byte {
	b := []byte{0xff, 0xd8}
	b = append(b, jpegSegment(0xffe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))...)
	b = append(b, jpegSegment(0xffe1, []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>"))...)
	b = append(b, jpegSegment(0xffe1, append([]byte("Exif\x00\x00"), tiff...))...)
	b = append(b, 0xff, 0xda)
	return b
}

func pngChunk(typ string, data []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	b = append(b, typ...)
	b = append(b, data...)
	// CRC, not checked.
	return append(b, 0, 0, 0, 0)
}

func wrapPNG(exif []byte) []byte {
	b := []byte("\x89PNG\r\n\x1a\n")
	b = append(b, pngChunk("IHDR", make([]byte, 13))...)
	if exif != nil {
		b = append(b, pngChunk("eXIf", exif)...)
	}
	b = append(b, pngChunk("IDAT", []byte{1, 2, 3})...)
	b = append(b, pngChunk("IEND", nil)...)
	return b
}

func riffChunk(fourCC string, data []byte) []byte {
	b := []byte(fourCC)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func wrapWebP(exif []byte) []byte {
	chunks := riffChunk("VP8X", make([]byte, 10))
	chunks = append(chunks, riffChunk("VP8L", []byte{0x2f, 0, 0, 0, 0})...)
	if exif != nil {
		chunks = append(chunks, riffChunk("EXIF", exif)...)
	}
	b := []byte("RIFF")
	b = binary.LittleEndian.AppendUint32(b, uint32(4+len(chunks)))
	b = append(b, "WEBP"...)
	return append(b, chunks...)
}

func isoBox(typ string, data ...[]byte) []byte {
	var payload []byte
	for _, d := range data {
		payload = append(payload, d...)
	}
	b := binary.BigEndian.AppendUint32(nil, uint32(8+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}

// wrapHEIF stores exif as an Exif item in a minimal HEIF container.
// A nil exif stores an image item only.
func wrapHEIF(exif []byte) []byte {
	itemType := "Exif"
	if exif == nil {
		itemType = "av01"
	}

	ftyp := isoBox("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))
	infe := isoBox("infe", []byte{2, 0, 0, 0, 0, 1, 0, 0}, []byte(itemType))
	iinf := isoBox("iinf", []byte{0, 0, 0, 0, 0, 1}, infe)

	const ilocSize = 8 + 4 + 2 + 2 + 6 + 8
	metaSize := 8 + 4 + len(iinf) + ilocSize
	// The item data follows the mdat box header.
	itemOffset := len(ftyp) + metaSize + 8

	item := []byte{0, 0, 0, 6, 'E', 'x', 'i', 'f', 0, 0}
	item = append(item, exif...)

	iloc := []byte{0, 0, 0, 0, 0x44, 0x00, 0, 1, 0, 1, 0, 0, 0, 1}
	iloc = binary.BigEndian.AppendUint32(iloc, uint32(itemOffset))
	iloc = binary.BigEndian.AppendUint32(iloc, uint32(len(item)))

	b := append(ftyp, isoBox("meta", []byte{0, 0, 0, 0}, iinf, isoBox("iloc", iloc))...)
	return append(b, isoBox("mdat", item)...)
}

func TestDecodeImageFormats(t *testing.T) {
	c := qt.New(t)

	for _, order := range byteOrders {
		tiff := testTIFF(order)
		withExifHeader := append([]byte("Exif\x00\x00"), tiff...)

		for _, test := range []struct {
			name   string
			format ifd.ImageFormat
			data   []byte
		}{
			{"TIFF", ifd.TIFF, tiff},
			{"JPEG", ifd.JPEG, wrapJPEG(tiff)},
			{"PNG", ifd.PNG, wrapPNG(tiff)},
			{"PNG with Exif header", ifd.PNG, wrapPNG(withExifHeader)},
			{"WebP", ifd.WebP, wrapWebP(tiff)},
			{"WebP with Exif header", ifd.WebP, wrapWebP(withExifHeader)},
			{"HEIF", ifd.HEIF, wrapHEIF(tiff)},
		} {
			c.Run(order.String()+"/"+test.name, func(c *qt.C) {
				for _, format := range []ifd.ImageFormat{test.format, ifd.ImageFormatAuto} {
					dir, err := decodeBytes(c, test.data, ifd.Options{ImageFormat: format})
					c.Assert(err, qt.IsNil)
					c.Assert(dir.Len(), qt.Equals, 3)
					c.Assert(dir.Entry(0).Value, qt.Equals, ifd.Value(ifd.Text("Canon")))
					c.Assert(dir.Entry(1).Value, qt.Equals, ifd.Value(ifd.Short(6)))
					exif, ok := dir.Entry(2).Value.(*ifd.Directory)
					c.Assert(ok, qt.IsTrue)
					c.Assert(exif.Entry(0).Value, qt.Equals, ifd.Value(ifd.Text("2024:01:02 03:04:05")))
				}
			})
		}
	}
}

func TestDecodeImageFormatsNoExif(t *testing.T) {
	c := qt.New(t)

	jpeg := []byte{0xff, 0xd8}
	jpeg = append(jpeg, jpegSegment(0xffe0, []byte("JFIF\x00"))...)
	jpeg = append(jpeg, 0xff, 0xda)

	for _, test := range []struct {
		name   string
		format ifd.ImageFormat
		data   []byte
	}{
		{"JPEG", ifd.JPEG, jpeg},
		{"PNG", ifd.PNG, wrapPNG(nil)},
		{"WebP", ifd.WebP, wrapWebP(nil)},
		{"HEIF", ifd.HEIF, wrapHEIF(nil)},
		{"HEIF without meta box", ifd.HEIF, isoBox("ftyp", []byte("avif\x00\x00\x00\x00"))},
	} {
		c.Run(test.name, func(c *qt.C) {
			_, err := decodeBytes(c, test.data, ifd.Options{ImageFormat: test.format})
			c.Assert(err, qt.ErrorIs, ifd.ErrNoExif)
		})
	}
}

func TestDecodeImageFormatsInvalid(t *testing.T) {
	c := qt.New(t)

	tiff := testTIFF(binary.LittleEndian)

	_, err := decodeBytes(c, tiff, ifd.Options{ImageFormat: ifd.JPEG})
	c.Assert(ifd.IsInvalidFormat(err), qt.IsTrue)

	_, err = decodeBytes(c, tiff, ifd.Options{ImageFormat: ifd.PNG})
	c.Assert(ifd.IsInvalidFormat(err), qt.IsTrue)

	_, err = decodeBytes(c, tiff, ifd.Options{ImageFormat: ifd.WebP})
	c.Assert(ifd.IsInvalidFormat(err), qt.IsTrue)

	_, err = decodeBytes(c, tiff, ifd.Options{ImageFormat: ifd.HEIF})
	c.Assert(ifd.IsInvalidFormat(err), qt.IsTrue)

	_, err = decodeBytes(c, tiff, ifd.Options{ImageFormat: ifd.ImageFormat(42)})
	c.Assert(err, qt.ErrorMatches, "unsupported image format")

	// Truncated segment.
	_, err = decodeBytes(c, wrapJPEG(tiff)[:30], ifd.Options{ImageFormat: ifd.JPEG})
	c.Assert(err, qt.ErrorIs, ifd.ErrIOFailure)
}
