// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// Internal error to signal that we should stop any further processing.
	// The real cause is stored in streamReader.readErr.
	errStop = errors.New("stop")

	errShortRead = errors.New("short read")
)

func newStreamReader(r io.ReadSeeker, byteOrder binary.ByteOrder) *streamReader {
	return &streamReader{
		r:         r,
		byteOrder: byteOrder,
	}
}

// streamReader is a wrapper around a ReadSeeker that provides methods to read binary data.
// All positions are relative to base, the start of the TIFF header.
// Note that this is not thread safe.
type streamReader struct {
	r         io.ReadSeeker
	byteOrder binary.ByteOrder

	// The absolute position in r of the TIFF header.
	base int64

	buf []byte

	readErr error
}

func (e *streamReader) allocateBuf(length int) {
	if length > cap(e.buf) {
		e.buf = make([]byte, length)
	}
}

func (e *streamReader) pos() int64 {
	n, err := e.r.Seek(0, io.SeekCurrent)
	if err != nil {
		e.stop(err)
	}
	return n - e.base
}

func (e *streamReader) read1() uint8 {
	const n = 1
	e.readNIntoBuf(n)
	return e.buf[0]
}

func (e *streamReader) read2() uint16 {
	const n = 2
	e.readNIntoBuf(n)
	return e.byteOrder.Uint16(e.buf[:n])
}

func (e *streamReader) read4() uint32 {
	const n = 4
	e.readNIntoBuf(n)
	return e.byteOrder.Uint32(e.buf[:n])
}

func (e *streamReader) read8() uint64 {
	const n = 8
	e.readNIntoBuf(n)
	return e.byteOrder.Uint64(e.buf[:n])
}

// readBytes reads n bytes into a newly allocated slice owned by the caller.
func (e *streamReader) readBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(e.r, b); err != nil {
		e.stop(err)
	}
	return b
}

// readBytesVolatile reads a slice of bytes from the stream
// which is not guaranteed to be valid after the next read.
func (e *streamReader) readBytesVolatile(n int) []byte {
	e.readNIntoBuf(n)
	return e.buf[:n]
}

func (e *streamReader) readBytesVolatileE(n int) ([]byte, error) {
	if err := e.readNIntoBufE(n); err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}

// readBytesAvailable reads up to n bytes and returns what could be read.
// It never stops the decoding and is meant for diagnostics.
func (e *streamReader) readBytesAvailable(n int) []byte {
	b := make([]byte, n)
	n2, _ := io.ReadFull(e.r, b)
	return b[:n2]
}

func (e *streamReader) readNIntoBuf(n int) {
	if err := e.readNIntoBufE(n); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) readNIntoBufE(n int) error {
	e.allocateBuf(n)
	n2, err := io.ReadFull(e.r, e.buf[:n])
	if err != nil {
		return err
	}
	if n != n2 {
		return errShortRead
	}
	return nil
}

// preservePos runs f and restores the stream position afterwards,
// also when f fails or stops the decoding.
func (e *streamReader) preservePos(f func() error) error {
	pos := e.pos()
	defer func() {
		// Ignore the error here; a failing seek will surface on the next read.
		e.r.Seek(pos+e.base, io.SeekStart)
	}()
	return f()
}

func (e *streamReader) seek(pos int64) {
	if _, err := e.r.Seek(pos+e.base, io.SeekStart); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) skip(n int64) {
	if _, err := e.r.Seek(n, io.SeekCurrent); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) stop(err error) {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	e.readErr = fmt.Errorf("%w: %w", ErrIOFailure, err)
	panic(errStop)
}
