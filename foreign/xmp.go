// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package foreign

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/bep/ifd"
)

var xmpSkipNamespaces = map[string]bool{
	"xmlns": true,
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": true,
}

type rdf struct {
	XMLName      xml.Name
	Descriptions []rdfDescription `xml:"Description"`
}

// Note: We currently only handle a subset of XMP properties,
// but a very common subset.
type rdfDescription struct {
	XMLName   xml.Name
	Attrs     []xml.Attr `xml:",any,attr"`
	Creator   seqList    `xml:"creator"`
	Publisher bagList    `xml:"publisher"`
	Subject   bagList    `xml:"subject"`
	Rights    altList    `xml:"rights"`
	Title     altList    `xml:"title"`
}

type altList struct {
	XMLName xml.Name
	Alt     struct {
		Items []string `xml:"li"`
	} `xml:"Alt"`
}

type seqList struct {
	XMLName xml.Name
	Seq     struct {
		Items []string `xml:"li"`
	} `xml:"Seq"`
}

type bagList struct {
	XMLName xml.Name
	Bag     struct {
		Items []string `xml:"li"`
	} `xml:"Bag"`
}

type xmpmeta struct {
	XMLName xml.Name
	RDF     rdf `xml:"RDF"`
}

// DecodeXMP decodes the XMP packet in r and calls handle for every
// rdf:Description attribute and every creator, publisher, subject, rights
// and title list.
func DecodeXMP(r io.Reader, handle func(Property) error) error {
	var meta xmpmeta
	if err := xml.NewDecoder(r).Decode(&meta); err != nil {
		return &ifd.InvalidFormatError{Err: fmt.Errorf("decoding XMP: %w", err)}
	}

	for _, desc := range meta.RDF.Descriptions {
		for _, attr := range desc.Attrs {
			if xmpSkipNamespaces[attr.Name.Space] {
				continue
			}
			p := Property{
				Namespace: attr.Name.Space,
				Name:      firstUpper(attr.Name.Local),
				Value:     attr.Value,
			}
			if err := handle(p); err != nil {
				return err
			}
		}

		lists := []struct {
			name  xml.Name
			items []string
		}{
			{desc.Creator.XMLName, desc.Creator.Seq.Items},
			{desc.Publisher.XMLName, desc.Publisher.Bag.Items},
			{desc.Subject.XMLName, desc.Subject.Bag.Items},
			{desc.Rights.XMLName, desc.Rights.Alt.Items},
			{desc.Title.XMLName, desc.Title.Alt.Items},
		}
		for _, l := range lists {
			if err := handleList(l.name, l.items, handle); err != nil {
				return err
			}
		}
	}

	return nil
}

// XMPDecoder returns a DecoderFunc that decodes XMP packets with DecodeXMP.
func XMPDecoder(handle func(Property) error) DecoderFunc {
	return func(_ ifd.Entry, data []byte) error {
		return DecodeXMP(bytes.NewReader(data), handle)
	}
}

func handleList(name xml.Name, items []string, handle func(Property) error) error {
	if len(items) == 0 || name.Local == "" {
		return nil
	}

	var v any
	// This is how ExifTool does it:
	if len(items) == 1 {
		v = items[0]
	} else {
		v = items
	}

	return handle(Property{
		Namespace: name.Space,
		Name:      firstUpper(name.Local),
		Value:     v,
	})
}

func firstUpper(s string) string {
	if s == "" {
		return ""
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
