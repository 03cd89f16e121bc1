// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"encoding/binary"
	"fmt"
	"iter"
)

// Entry is a decoded IFD entry.
//
// A tag is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for a pointer to another location where the data may be found;
//     this could be a pointer to the beginning of another IFD.
type Entry struct {
	Tag Tag
	// Type is the data type as declared in the file.
	// It's kept when the value is replaced by a nested *Directory.
	Type  Type
	Count uint32
	Value Value
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s(%d) %s", e.Tag, e.Type, e.Count, FormatValue(e.Value, 20))
}

// Directory is an ordered, read-only list of entries.
// Linked IFDs (the "next IFD" chain) are flattened into one Directory in link order.
type Directory struct {
	// The pointer tag this directory was expanded from, 0 for the root.
	tag       Tag
	byteOrder binary.ByteOrder
	entries   []Entry
}

func (*Directory) isValue() {}

// Tag returns the pointer tag this directory was expanded from, or 0 for the root directory.
func (d *Directory) Tag() Tag {
	return d.tag
}

// ByteOrder returns the byte order of the file the directory was decoded from.
func (d *Directory) ByteOrder() binary.ByteOrder {
	return d.byteOrder
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Entry returns the entry at index i.
func (d *Directory) Entry(i int) Entry {
	return d.entries[i]
}

// Entries returns a copy of the entries in decode order.
func (d *Directory) Entries() []Entry {
	entries := make([]Entry, len(d.entries))
	copy(entries, d.entries)
	return entries
}

// All iterates over the entries in decode order.
func (d *Directory) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range d.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Lookup returns the first entry with the given tag.
func (d *Directory) Lookup(tag Tag) (Entry, bool) {
	for _, e := range d.entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// TagName returns the name of tag in the namespace of this directory,
// e.g. the GPS tag names for the directory expanded from TagGPSIFD.
func (d *Directory) TagName(tag Tag) string {
	return tag.name(d.tag)
}

// Walk calls fn for every entry in d and in its nested directories, depth first.
// Nested entries are visited right after the entry holding their directory.
func (d *Directory) Walk(fn func(dir *Directory, e Entry) error) error {
	for _, e := range d.entries {
		if err := fn(d, e); err != nil {
			return err
		}
		if sub, ok := e.Value.(*Directory); ok {
			if err := sub.Walk(fn); err != nil {
				return err
			}
		}
	}
	return nil
}
