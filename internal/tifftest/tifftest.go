// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package tifftest builds TIFF structures in memory for tests.
package tifftest

import (
	"encoding/binary"
)

// Entry is an IFD entry to write.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32

	// Data is the value, encoded in the byte order of the Builder.
	// It's stored in the value slot if it fits in 4 bytes,
	// else after the IFD and the slot holds its offset.
	Data []byte

	// Sub, if set, is written as a nested IFD and the slot holds its offset.
	Sub *IFD

	// Slot, if set, is written verbatim to the value slot; Data and Sub are ignored.
	Slot []byte
}

// IFD is a directory to write.
type IFD struct {
	Entries []Entry
	Next    *IFD
}

// Builder writes TIFF structures.
type Builder struct {
	Order binary.ByteOrder
	buf   []byte
}

// NewBuilder creates a Builder writing in the given byte order.
func NewBuilder(order binary.ByteOrder) *Builder {
	return &Builder{Order: order}
}

// Encode returns a TIFF header followed by ifd0 and everything it refers to.
func Encode(order binary.ByteOrder, ifd0 *IFD) []byte {
	b := NewBuilder(order)
	b.Header(8)
	b.IFD(ifd0)
	return b.Bytes()
}

// Bytes returns the bytes written so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() uint32 {
	return uint32(len(b.buf))
}

// Header writes the byte order mark, the magic number and the offset of IFD0.
func (b *Builder) Header(ifd0 uint32) {
	if b.Order == binary.LittleEndian {
		b.Raw([]byte("II"))
	} else {
		b.Raw([]byte("MM"))
	}
	b.Uint16(42)
	b.Uint32(ifd0)
}

// Raw writes p as is.
func (b *Builder) Raw(p []byte) {
	b.buf = append(b.buf, p...)
}

// Uint16 writes v.
func (b *Builder) Uint16(v uint16) {
	b.Raw(Values(b.Order, v))
}

// Uint32 writes v.
func (b *Builder) Uint32(v uint32) {
	b.Raw(Values(b.Order, v))
}

// PutUint32At overwrites the 4 bytes at pos with v.
func (b *Builder) PutUint32At(pos, v uint32) {
	b.Order.PutUint32(b.buf[pos:], v)
}

// IFD writes d, its values, its nested IFDs and the IFDs linked to it,
// and returns the offset of d.
func (b *Builder) IFD(d *IFD) uint32 {
	start := b.Len()

	b.Uint16(uint16(len(d.Entries)))
	slots := make([]uint32, len(d.Entries))
	for i, e := range d.Entries {
		b.Uint16(e.Tag)
		b.Uint16(e.Type)
		b.Uint32(e.Count)
		slots[i] = b.Len()
		b.Uint32(0)
	}
	next := b.Len()
	b.Uint32(0)

	for i, e := range d.Entries {
		switch {
		case e.Slot != nil:
			copy(b.buf[slots[i]:slots[i]+4], e.Slot)
		case e.Sub != nil:
			b.PutUint32At(slots[i], b.IFD(e.Sub))
		case len(e.Data) <= 4:
			copy(b.buf[slots[i]:], e.Data)
		default:
			b.PutUint32At(slots[i], b.Len())
			b.Raw(e.Data)
		}
	}

	if d.Next != nil {
		b.PutUint32At(next, b.IFD(d.Next))
	}

	return start
}

// Values encodes vs in order.
// T must be a fixed-size type, e.g. uint16, int32, float64 or a struct of those.
func Values[T any](order binary.ByteOrder, vs ...T) []byte {
	var p []byte
	for _, v := range vs {
		var err error
		p, err = binary.Append(p, order, v)
		if err != nil {
			panic(err)
		}
	}
	return p
}
