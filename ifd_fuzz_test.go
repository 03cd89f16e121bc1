// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/bep/ifd"
)

func FuzzDecode(f *testing.F) {
	for _, order := range byteOrders {
		tiff := testTIFF(order)
		f.Add(tiff)
		f.Add(oracleTIFF(order))
		f.Add(wrapJPEG(tiff))
		f.Add(wrapPNG(tiff))
		f.Add(wrapWebP(tiff))
		f.Add(wrapHEIF(tiff))
	}
	f.Add([]byte("II*\x00\x08\x00\x00\x00\x01\x00\x69\x87\x04\x00\x01\x00\x00\x00\x08\x00\x00\x00\x00\x00\x00\x00"))

	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzDecodeBytes(t, data)
	})
}

func fuzzDecodeBytes(t *testing.T, data []byte) {
	dir, err := ifd.Decode(ifd.Options{
		R:              bytes.NewReader(data),
		LimitValueSize: 1 << 16,
	})
	if err != nil {
		if dir != nil {
			t.Fatalf("got both a directory and an error: %v", err)
		}
		if !ifd.IsInvalidFormat(err) && !errors.Is(err, ifd.ErrIOFailure) && !errors.Is(err, ifd.ErrNoExif) {
			t.Fatalf("unknown error class: %v", err)
		}
		return
	}
	if dir.ByteOrder() != binary.LittleEndian && dir.ByteOrder() != binary.BigEndian {
		t.Fatalf("unexpected byte order %v", dir.ByteOrder())
	}
	if err := dir.Walk(func(d *ifd.Directory, e ifd.Entry) error {
		if e.Value == nil {
			t.Fatalf("entry %s has no value", e.Tag)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}
