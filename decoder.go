// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	byteOrderBigEndian    = "MM"
	byteOrderLittleEndian = "II"
	tiffMagic             = 42

	// Size of an IFD entry record.
	entrySize = 12
	// Bytes dumped for an entry with an unknown type: tag, type and count plus 20 bytes.
	unknownTypeDumpSize = 8 + 20
)

type decoder struct {
	*streamReader
	opts Options

	pointerTags map[Tag]bool
	// Offsets of every IFD decoded so far, relative to the TIFF header.
	visited    map[int64]bool
	numEntries uint32
	valueSize  int64
}

func newDecoder(opts Options) *decoder {
	pointerTags := make(map[Tag]bool, len(opts.PointerTags))
	for _, tag := range opts.PointerTags {
		pointerTags[tag] = true
	}
	return &decoder{
		streamReader: newStreamReader(opts.R, binary.BigEndian),
		opts:         opts,
		pointerTags:  pointerTags,
		visited:      make(map[int64]bool),
	}
}

// decodeHeader reads the byte order mark and the magic number
// and returns the offset of IFD0.
func (d *decoder) decodeHeader() (int64, error) {
	bom := d.readBytesVolatile(2)
	switch string(bom) {
	case byteOrderLittleEndian:
		d.byteOrder = binary.LittleEndian
	case byteOrderBigEndian:
		d.byteOrder = binary.BigEndian
	default:
		return 0, newInvalidFormatErrorf("%w: invalid byte order mark %q, expected %q or %q", ErrMalformedHeader, bom, byteOrderLittleEndian, byteOrderBigEndian)
	}

	if magic := d.read2(); magic != tiffMagic {
		return 0, newInvalidFormatErrorf("%w: wrong magic %04x, expected %04x", ErrMalformedHeader, magic, tiffMagic)
	}

	ifdOffset := d.read4()
	if ifdOffset == 0 {
		// TIFF must contain at least one IFD.
		return 0, newInvalidFormatErrorf("%w: no IFD0", ErrMalformedHeader)
	}

	return int64(ifdOffset), nil
}

// decodeDirectory decodes the IFD chain starting at offset and expands
// all pointer tags into nested directories.
func (d *decoder) decodeDirectory(offset int64) (*Directory, error) {
	dir, err := d.decodeChain(0, offset)
	if err != nil {
		return nil, err
	}
	if err := d.expand(dir); err != nil {
		return nil, err
	}
	return dir, nil
}

// decodeChain decodes the IFD at offset and all IFDs linked to it
// through the next IFD offset into one flat Directory.
func (d *decoder) decodeChain(tag Tag, offset int64) (*Directory, error) {
	dir := &Directory{tag: tag, byteOrder: d.byteOrder}

	for {
		if d.visited[offset] {
			return nil, newInvalidFormatErrorf("%w: IFD at offset %d is referenced more than once", ErrCyclicStructure, offset)
		}
		d.visited[offset] = true

		d.seek(offset)
		numEntries := d.read2()

		d.numEntries += uint32(numEntries)
		if d.numEntries > d.opts.LimitNumEntries {
			return nil, newInvalidFormatErrorf("%w: more than %d entries", ErrLimitExceeded, d.opts.LimitNumEntries)
		}

		for range int(numEntries) {
			e, err := d.decodeEntry()
			if err != nil {
				return nil, err
			}
			dir.entries = append(dir.entries, e)
		}

		next := d.read4()
		if next == 0 {
			return dir, nil
		}
		offset = int64(next)
	}
}

func (d *decoder) decodeEntry() (Entry, error) {
	entryPos := d.pos()

	tag := Tag(d.read2())
	typ := Type(int16(d.read2()))
	count := int32(d.read4())

	if count < 0 {
		return Entry{}, newInvalidFormatErrorf("%w: illegal count %d for tag %s type %s at offset %d", ErrMalformedEntry, count, tag, typ, entryPos)
	}

	e := Entry{Tag: tag, Type: typ, Count: uint32(count)}
	length := valueLength(typ, e.Count)

	if length < 0 {
		d.warnUnknownType(entryPos, e)
	}

	if length > int64(d.opts.LimitValueSize) {
		return Entry{}, newInvalidFormatErrorf("%w: value of tag %s at offset %d is %d bytes, max is %d", ErrLimitExceeded, tag, entryPos, length, d.opts.LimitValueSize)
	}

	if length > 0 {
		d.valueSize += length
		if d.valueSize > int64(d.opts.LimitTotalValueSize) {
			return Entry{}, newInvalidFormatErrorf("%w: values are more than %d bytes in total", ErrLimitExceeded, d.opts.LimitTotalValueSize)
		}
	}

	if length > 0 && length <= 4 {
		v, err := d.decodeValue(typ, e.Count)
		if err != nil {
			return Entry{}, err
		}
		e.Value = v
		// The value slot is always 4 bytes.
		d.skip(4 - length)
		return e, nil
	}

	valueOffset := d.read4()
	err := d.preservePos(func() error {
		d.seek(int64(valueOffset))
		v, err := d.decodeValue(typ, e.Count)
		e.Value = v
		return err
	})
	if err != nil {
		return Entry{}, err
	}

	return e, nil
}

func (d *decoder) warnUnknownType(entryPos int64, e Entry) {
	d.preservePos(func() error {
		d.seek(entryPos)
		b := d.readBytesAvailable(unknownTypeDumpSize)
		d.opts.Warnf("unknown type %d for tag %s with count %d at offset %d:\n%s", int16(e.Type), e.Tag, e.Count, entryPos, hex.Dump(b))
		return nil
	})
}

// decodeValue decodes count values of type typ from the current position.
func (d *decoder) decodeValue(typ Type, count uint32) (Value, error) {
	n := int(count)
	order := d.byteOrder

	switch typ {
	case TypeASCII:
		return d.decodeText(n), nil
	case TypeByte:
		if n == 1 {
			return Byte(d.read1()), nil
		}
		// Keep BYTE arrays as binary data.
		return Bytes(d.readBytes(n)), nil
	case TypeSByte:
		if n == 1 {
			return SByte(int8(d.read1())), nil
		}
		return Bytes(d.readBytes(n)), nil
	case TypeUndefined:
		return Bytes(d.readBytes(n)), nil
	case TypeShort:
		if n == 1 {
			return Short(d.read2()), nil
		}
		return Shorts(readArray(d, n, 2, order.Uint16)), nil
	case TypeSShort:
		if n == 1 {
			return SShort(int16(d.read2())), nil
		}
		return SShorts(readArray(d, n, 2, func(b []byte) int16 {
			return int16(order.Uint16(b))
		})), nil
	case TypeLong, TypeIFD:
		if n == 1 {
			return Long(d.read4()), nil
		}
		return Longs(readArray(d, n, 4, order.Uint32)), nil
	case TypeSLong:
		if n == 1 {
			return SLong(int32(d.read4())), nil
		}
		return SLongs(readArray(d, n, 4, func(b []byte) int32 {
			return int32(order.Uint32(b))
		})), nil
	case TypeRational:
		v := readArray(d, n, 8, func(b []byte) Rational {
			return NewRat(order.Uint32(b), order.Uint32(b[4:]))
		})
		if n == 1 {
			return v[0], nil
		}
		return Rationals(v), nil
	case TypeSRational:
		v := readArray(d, n, 8, func(b []byte) SRational {
			return NewRat(int32(order.Uint32(b)), int32(order.Uint32(b[4:])))
		})
		if n == 1 {
			return v[0], nil
		}
		return SRationals(v), nil
	case TypeFloat:
		v := readArray(d, n, 4, func(b []byte) float32 {
			return math.Float32frombits(order.Uint32(b))
		})
		if n == 1 {
			return Float(v[0]), nil
		}
		return Floats(v), nil
	case TypeDouble:
		v := readArray(d, n, 8, func(b []byte) float64 {
			return math.Float64frombits(order.Uint64(b))
		})
		if n == 1 {
			return Double(v[0]), nil
		}
		return Doubles(v), nil
	case TypeLong8, TypeIFD8:
		v := readArray(d, n, 8, order.Uint64)
		for _, vv := range v {
			if vv > math.MaxInt64 {
				return nil, newInvalidFormatErrorf("%w: %s value %d > %d", ErrOutOfRange, typ, vv, int64(math.MaxInt64))
			}
		}
		if n == 1 {
			return Long8(v[0]), nil
		}
		return Long8s(v), nil
	case TypeSLong8:
		v := readArray(d, n, 8, func(b []byte) int64 {
			return int64(order.Uint64(b))
		})
		if n == 1 {
			return SLong8(v[0]), nil
		}
		return SLong8s(v), nil
	default:
		// Unknown types should be skipped.
		return Unknown{Type: typ, Count: count, Offset: d.pos()}, nil
	}
}

// decodeText reads n bytes of ASCII data.
// Most writers use UTF-8, which is ASCII compatible; anything else is
// read as ISO-8859-1.
func (d *decoder) decodeText(n int) Text {
	b := d.readBytes(n)
	b = trimTrailingNulls(b)
	if utf8.Valid(b) {
		return Text(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 maps every byte, so this should not happen.
		return Text(b)
	}
	return Text(s)
}

// readArray reads n values of size bytes each and converts them with conv.
func readArray[T any](d *decoder, n, size int, conv func([]byte) T) []T {
	b := d.readBytesVolatile(n * size)
	v := make([]T, n)
	for i := range v {
		v[i] = conv(b[i*size:])
	}
	return v
}

type expansion struct {
	dir   *Directory
	index int
	depth int
}

// expand replaces the pointer tag entries in dir and in the directories
// found below it with the nested directories they point to.
// Entries are expanded in entry-list order, depth first.
func (d *decoder) expand(dir *Directory) error {
	var stack []expansion

	push := func(dir *Directory, depth int) {
		// Push in reverse so the first entry is popped first.
		for i := len(dir.entries) - 1; i >= 0; i-- {
			if d.pointerTags[dir.entries[i].Tag] {
				stack = append(stack, expansion{dir: dir, index: i, depth: depth})
			}
		}
	}

	push(dir, 1)

	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if x.depth > d.opts.MaxDepth {
			return newInvalidFormatErrorf("%w: IFDs nested more than %d levels deep", ErrCyclicStructure, d.opts.MaxDepth)
		}

		e := x.dir.entries[x.index]
		sub, err := d.decodeSubDirectory(e)
		if err != nil {
			if isRecoverable(err) {
				d.opts.Warnf("failed to expand %s: %s", x.dir.TagName(e.Tag), err)
				continue
			}
			return err
		}

		x.dir.entries[x.index] = Entry{Tag: e.Tag, Type: e.Type, Count: e.Count, Value: sub}
		push(sub, x.depth+1)
	}

	return nil
}

func (d *decoder) decodeSubDirectory(e Entry) (*Directory, error) {
	offset, ok := Uint64(e.Value)
	if !ok {
		return nil, newInvalidFormatErrorf("%w: %T for tag %s", ErrUnsupportedPointerType, e.Value, e.Tag)
	}
	if offset == 0 {
		return nil, newInvalidFormatErrorf("%w: zero offset for tag %s", ErrMalformedEntry, e.Tag)
	}
	return d.decodeChain(e.Tag, int64(offset))
}

func trimTrailingNulls(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
