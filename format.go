// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"bytes"
	"errors"
	"io"
	"math"

	"golang.org/x/image/riff"
)

// ImageFormat is the container format holding the TIFF structure.
//
//go:generate stringer -type=ImageFormat
type ImageFormat int

const (
	// ImageFormatAuto signals that the image format should be detected from the first bytes.
	// Unrecognized data is decoded as TIFF.
	ImageFormatAuto ImageFormat = iota
	// JPEG is the JPEG image format, Exif stored in an APP1 segment.
	JPEG
	// TIFF is a TIFF file or a raw TIFF structure.
	TIFF
	// PNG is the PNG image format, Exif stored in an eXIf chunk.
	PNG
	// WebP is the WebP image format, Exif stored in an EXIF chunk.
	WebP
	// HEIF is the HEIF/AVIF image format, Exif stored in an Exif item.
	HEIF
)

const (
	markerSOI  = 0xffd8
	markerSOS  = 0xffda
	markerEOI  = 0xffd9
	markerApp1 = 0xffe1
)

var (
	exifHeader   = []byte("Exif\x00\x00")
	pngSignature = []byte("\x89PNG\r\n\x1a\n")

	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
)

// ISOBMFF box and item types used in HEIF/AVIF containers.
var (
	fccFtyp = fourCC{'f', 't', 'y', 'p'}
	fccMeta = fourCC{'m', 'e', 't', 'a'}
	fccIinf = fourCC{'i', 'i', 'n', 'f'}
	fccInfe = fourCC{'i', 'n', 'f', 'e'}
	fccIloc = fourCC{'i', 'l', 'o', 'c'}
	fccExif = fourCC{'E', 'x', 'i', 'f'}
)

type fourCC [4]byte

// sniffImageFormat detects the image format from the first bytes at the current position.
func sniffImageFormat(b []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(b, []byte{0xff, 0xd8}):
		return JPEG
	case bytes.HasPrefix(b, pngSignature):
		return PNG
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], fccWEBP[:]):
		return WebP
	case len(b) >= 8 && bytes.Equal(b[4:8], fccFtyp[:]):
		return HEIF
	default:
		return TIFF
	}
}

// locate moves the decoder to the start of the TIFF header inside the
// container and makes that position the base of all offsets.
func (d *decoder) locate() error {
	format := d.opts.ImageFormat
	if format == ImageFormatAuto {
		format = sniffImageFormat(d.peek(12))
	}

	switch format {
	case TIFF:
		return nil
	case JPEG:
		return d.locateJPEG()
	case PNG:
		return d.locatePNG()
	case WebP:
		return d.locateWebP()
	case HEIF:
		return d.locateHEIF()
	default:
		return errors.New("unsupported image format")
	}
}

// peek returns up to n bytes at the current position without consuming them.
func (d *decoder) peek(n int) []byte {
	var b []byte
	d.preservePos(func() error {
		b = d.readBytesAvailable(n)
		return nil
	})
	return b
}

// rebase makes the current position the start of the TIFF header.
func (d *decoder) rebase() {
	d.base += d.pos()
}

// skipExifHeader skips the "Exif\0\0" identifier if present.
func (d *decoder) skipExifHeader(length int64) {
	if length < int64(len(exifHeader)) {
		return
	}
	pos := d.pos()
	b, err := d.readBytesVolatileE(len(exifHeader))
	if err == nil && bytes.Equal(b, exifHeader) {
		return
	}
	d.seek(pos)
}

func (d *decoder) locateJPEG() error {
	if soi := d.read2(); soi != markerSOI {
		return newInvalidFormatErrorf("invalid JPEG start of image marker %04x", soi)
	}

	for {
		marker := d.read2()

		if marker == 0 {
			continue
		}

		if marker == markerSOS || marker == markerEOI {
			return ErrNoExif
		}

		// The 16-bit length of the segment includes the 2 bytes for the length itself.
		length := d.read2()
		if length < 2 {
			return newInvalidFormatErrorf("invalid JPEG segment length %d", length)
		}
		length -= 2

		if marker == markerApp1 && int(length) >= len(exifHeader) {
			pos := d.pos()
			b := d.readBytesVolatile(len(exifHeader))
			if bytes.Equal(b, exifHeader) {
				d.rebase()
				return nil
			}
			// Not Exif, e.g. XMP.
			d.seek(pos)
		}

		d.skip(int64(length))
	}
}

// http://ftp-osl.osuosl.org/pub/libpng/documents/pngext-1.5.0.html#C.eXIf
// The eXIf chunk may appear anywhere between the IHDR and IEND chunks except between IDAT chunks.
// The data segment holds the TIFF structure without the "Exif\0\0" identifier,
// but some writers include it.
func (d *decoder) locatePNG() error {
	if sig := d.readBytesVolatile(len(pngSignature)); !bytes.Equal(sig, pngSignature) {
		return newInvalidFormatErrorf("invalid PNG signature")
	}

	for {
		chunkLength := int64(d.read4())
		typ := string(d.readBytesVolatile(4))

		switch typ {
		case "eXIf":
			d.skipExifHeader(chunkLength)
			d.rebase()
			return nil
		case "IEND":
			return ErrNoExif
		}

		d.skip(chunkLength)
		d.skip(4) // CRC
	}
}

func (d *decoder) locateWebP() error {
	formType, riffReader, err := riff.NewReader(d.r)
	if err != nil {
		return newInvalidFormatError(err)
	}
	if formType != fccWEBP {
		return newInvalidFormatErrorf("not a WebP file")
	}

	for {
		chunkID, chunkLen, _, err := riffReader.Next()
		if err == io.EOF {
			return ErrNoExif
		}
		if err != nil {
			return newInvalidFormatError(err)
		}

		if chunkID == fccEXIF {
			// The riff reader reads straight from R, so R is at the start of the chunk data.
			d.skipExifHeader(int64(chunkLen))
			d.rebase()
			return nil
		}
	}
}

// readBox reads an ISOBMFF box header and returns the position of the box,
// its total size including the header (0 means it extends to EOF) and its type.
func (d *decoder) readBox() (start int64, size uint64, typ fourCC) {
	start = d.pos()
	size = uint64(d.read4())
	copy(typ[:], d.readBytesVolatile(4))
	if size == 1 {
		size = d.read8()
	}
	return
}

func (d *decoder) readVarUint(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 2:
		return uint64(d.read2())
	case 4:
		return uint64(d.read4())
	case 8:
		return d.read8()
	default:
		panic(newInvalidFormatErrorf("invalid HEIF iloc field size %d", n))
	}
}

// locateHEIF finds the Exif item through the iinf and iloc boxes of the meta box.
// The item data starts with a 4 byte offset to the TIFF header.
func (d *decoder) locateHEIF() error {
	start, size, typ := d.readBox()
	if typ != fccFtyp {
		return newInvalidFormatErrorf("invalid HEIF file type box %q", typ[:])
	}
	if size < 8 {
		return newInvalidFormatErrorf("invalid HEIF box size %d", size)
	}
	d.seek(start + int64(size))

	var metaEnd int64
	for {
		if len(d.peek(8)) < 8 {
			return ErrNoExif
		}
		start, size, typ = d.readBox()
		if typ == fccMeta {
			metaEnd = math.MaxInt64
			if size != 0 {
				metaEnd = start + int64(size)
			}
			break
		}
		if size < 8 {
			return ErrNoExif
		}
		d.seek(start + int64(size))
	}
	d.skip(4) // version and flags

	var exifItemID uint32
	locations := make(map[uint32]uint64)

	for d.pos()+8 <= metaEnd && len(d.peek(8)) == 8 {
		start, size, typ = d.readBox()
		if size < 8 {
			break
		}
		switch typ {
		case fccIinf:
			exifItemID = d.decodeItemInfo()
		case fccIloc:
			d.decodeItemLocations(locations)
		}
		d.seek(start + int64(size))
	}

	offset, found := locations[exifItemID]
	if exifItemID == 0 || !found {
		return ErrNoExif
	}

	d.seek(int64(offset))
	headerOffset := d.read4()
	d.skip(int64(headerOffset))
	d.rebase()

	return nil
}

// decodeItemInfo returns the ID of the Exif item, 0 if none.
func (d *decoder) decodeItemInfo() uint32 {
	version := d.read4() >> 24
	var count uint32
	if version == 0 {
		count = uint32(d.read2())
	} else {
		count = d.read4()
	}

	for range count {
		start, size, typ := d.readBox()
		if size < 8 {
			break
		}
		if typ == fccInfe {
			infeVersion := d.read4() >> 24
			if infeVersion >= 2 {
				var itemID uint32
				if infeVersion == 2 {
					itemID = uint32(d.read2())
				} else {
					itemID = d.read4()
				}
				d.skip(2) // protection index
				var itemType fourCC
				copy(itemType[:], d.readBytesVolatile(4))
				if itemType == fccExif {
					return itemID
				}
			} else {
				d.opts.Warnf("HEIF item info entry version %d not supported", infeVersion)
			}
		}
		d.seek(start + int64(size))
	}

	return 0
}

// decodeItemLocations records the file offset of the first extent of every item
// stored with construction method 0.
func (d *decoder) decodeItemLocations(locations map[uint32]uint64) {
	version := d.read4() >> 24

	b := d.read1()
	offsetSize, lengthSize := int(b>>4), int(b&0x0f)
	b = d.read1()
	baseOffsetSize, indexSize := int(b>>4), int(b&0x0f)

	var count uint32
	if version < 2 {
		count = uint32(d.read2())
	} else {
		count = d.read4()
	}

	for range count {
		var itemID uint32
		if version < 2 {
			itemID = uint32(d.read2())
		} else {
			itemID = d.read4()
		}

		var constructionMethod uint16
		if version >= 1 {
			constructionMethod = d.read2() & 0x0f
		}
		d.skip(2) // data reference index
		baseOffset := d.readVarUint(baseOffsetSize)

		extentCount := d.read2()
		for i := range extentCount {
			if version >= 1 && indexSize > 0 {
				d.readVarUint(indexSize)
			}
			offset := d.readVarUint(offsetSize)
			d.readVarUint(lengthSize)
			if i == 0 && constructionMethod == 0 {
				locations[itemID] = baseOffset + offset
			}
		}
	}
}
