// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package ifd decodes TIFF/Exif Image File Directories (IFDs).
//
// The decoder validates the TIFF header, walks the chain of linked IFDs,
// resolves every entry value (inline or stored at an offset) into a typed Value
// and expands the IFD pointer tags (Exif, GPS, Interoperability) into nested directories.
package ifd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	defaultMaxDepth        = 16
	defaultLimitNumEntries = 5000
	// 10 MB should be plenty for a single value.
	defaultLimitValueSize = 10 * 1024 * 1024
	// Many entries may point to the same data.
	defaultLimitTotalValueSize = 64 * 1024 * 1024
)

var (
	// ErrStopWalking is a sentinel error to signal that a walk should stop.
	ErrStopWalking = errors.New("stop walking")

	// ErrNoExif is returned when the container holds no Exif data.
	ErrNoExif = errors.New("no Exif data found")
)

// Options contains the options for Decode and DecodeAt.
type Options struct {
	// The Reader (typically a *os.File) to read from.
	// Decoding starts at the current position of R, and all offsets
	// in the file are relative to that position.
	R io.ReadSeeker

	// The image format in R.
	// If not set, the format is detected from the first bytes.
	ImageFormat ImageFormat

	// The tags whose values point to nested IFDs.
	// If nil, DefaultPointerTags is used.
	// Set to an empty non-nil slice to disable the expansion.
	PointerTags []Tag

	// Warnf will be called for each warning.
	Warnf func(string, ...any)

	// MaxDepth is the maximum nesting depth of IFDs.
	// Default value is 16.
	MaxDepth int

	// LimitNumEntries is the maximum number of entries to read in total.
	// Default value is 5000.
	LimitNumEntries uint32

	// LimitValueSize is the maximum size in bytes of a single entry value.
	// Default value is 10 MB.
	LimitValueSize uint32

	// LimitTotalValueSize is the maximum size in bytes of all entry values together.
	// Default value is 64 MB.
	LimitTotalValueSize uint32
}

func (o *Options) init() error {
	if o.R == nil {
		return errors.New("no reader provided")
	}
	if o.PointerTags == nil {
		o.PointerTags = DefaultPointerTags
	}
	if o.Warnf == nil {
		o.Warnf = func(string, ...any) {}
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.LimitNumEntries == 0 {
		o.LimitNumEntries = defaultLimitNumEntries
	}
	if o.LimitValueSize == 0 {
		o.LimitValueSize = defaultLimitValueSize
	}
	if o.LimitTotalValueSize == 0 {
		o.LimitTotalValueSize = defaultLimitTotalValueSize
	}
	return nil
}

// Decode reads the TIFF header and the IFD chain it points to from opts.R
// and returns it as one Directory with all IFD pointer tags expanded.
func Decode(opts Options) (dir *Directory, err error) {
	if err := opts.init(); err != nil {
		return nil, err
	}

	d := newDecoder(opts)

	defer func() {
		if r := recover(); r != nil {
			dir, err = nil, d.errFromRecover(r)
		}
	}()

	d.base = d.pos()

	if err := d.locate(); err != nil {
		return nil, err
	}

	offset, err := d.decodeHeader()
	if err != nil {
		return nil, err
	}

	return d.decodeDirectory(offset)
}

// DecodeAt decodes the IFD chain at offset without reading a TIFF header.
// The offset is relative to the current position of opts.R.
// opts.ImageFormat is ignored.
func DecodeAt(opts Options, byteOrder binary.ByteOrder, offset int64) (dir *Directory, err error) {
	if err := opts.init(); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}

	d := newDecoder(opts)
	d.byteOrder = byteOrder

	defer func() {
		if r := recover(); r != nil {
			dir, err = nil, d.errFromRecover(r)
		}
	}()

	d.base = d.pos()

	return d.decodeDirectory(offset)
}

func (d *decoder) errFromRecover(r any) error {
	if r == errStop {
		return d.readErr
	}
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("unknown panic: %v", r)
}
