// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package foreign dispatches IFD entries holding data in another metadata
// format (XMP, IPTC, ICC profiles) to decoders registered by tag.
package foreign

import (
	"errors"
	"fmt"

	"github.com/bep/ifd"
)

// DecoderFunc decodes the raw payload of e.
// Return ifd.ErrStopWalking to stop the dispatch.
type DecoderFunc func(e ifd.Entry, data []byte) error

// Property is a single value decoded from a foreign format.
type Property struct {
	// Namespace is the XMP namespace URI or the IPTC record name.
	Namespace string
	Name      string
	// Value is a string or, for repeatable properties, a []string.
	Value any
}

func (p Property) String() string {
	return fmt.Sprintf("%s:%s=%v", p.Namespace, p.Name, p.Value)
}

// Registry maps tags to decoders.
// It is not safe for concurrent registration.
type Registry struct {
	decoders map[ifd.Tag]DecoderFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[ifd.Tag]DecoderFunc)}
}

// Register sets the decoder for tag, replacing any previous one.
func (r *Registry) Register(tag ifd.Tag, fn DecoderFunc) {
	r.decoders[tag] = fn
}

// Registered reports whether a decoder is registered for tag.
func (r *Registry) Registered(tag ifd.Tag) bool {
	_, found := r.decoders[tag]
	return found
}

// Dispatch walks dir and its nested directories and calls the registered
// decoder for every entry with a matching tag.
// Entries whose value can not be represented as raw bytes are skipped.
func (r *Registry) Dispatch(dir *ifd.Directory) error {
	err := dir.Walk(func(d *ifd.Directory, e ifd.Entry) error {
		fn, found := r.decoders[e.Tag]
		if !found {
			return nil
		}
		data, ok := rawBytes(d, e.Value)
		if !ok {
			return nil
		}
		return fn(e, data)
	})

	if errors.Is(err, ifd.ErrStopWalking) {
		return nil
	}
	return err
}

// rawBytes returns the bytes as stored in the file.
// Some writers store XMP and IPTC as SHORT or LONG arrays.
func rawBytes(dir *ifd.Directory, v ifd.Value) ([]byte, bool) {
	order := dir.ByteOrder()
	switch vv := v.(type) {
	case ifd.Bytes:
		return vv, true
	case ifd.Text:
		return []byte(vv), true
	case ifd.Byte:
		return []byte{byte(vv)}, true
	case ifd.Short:
		b := make([]byte, 2)
		order.PutUint16(b, uint16(vv))
		return b, true
	case ifd.Shorts:
		b := make([]byte, len(vv)*2)
		for i, s := range vv {
			order.PutUint16(b[i*2:], s)
		}
		return b, true
	case ifd.Long:
		b := make([]byte, 4)
		order.PutUint32(b, uint32(vv))
		return b, true
	case ifd.Longs:
		b := make([]byte, len(vv)*4)
		for i, l := range vv {
			order.PutUint32(b[i*4:], l)
		}
		return b, true
	default:
		return nil, false
	}
}
