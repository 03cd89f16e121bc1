// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package foreign

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bep/ifd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	iptcRecordMarker      = 0x1c
	iptcCodedCharacterSet = 90
	iptcMetaDataBlockID   = 0x0404

	characterSetUTF8     = "UTF-8"
	characterSetISO88591 = "ISO-8859-1"
)

var (
	errIPTCTruncated = errors.New("IPTC: truncated data")
	errIPTCNoRecords = errors.New("IPTC: no records or image resource blocks found")

	photoshopBlockType = []byte("8BIM")
)

type iptcField struct {
	name       string
	short      bool
	repeatable bool
}

// Source: https://exiftool.org/TagNames/IPTC.html
var (
	iptcRecordNames = map[uint8]string{
		1:   "IPTCEnvelope",
		2:   "IPTCApplication",
		3:   "IPTCNewsPhoto",
		7:   "IPTCPreObjectData",
		8:   "IPTCObjectData",
		9:   "IPTCPostObjectData",
		240: "IPTCFotoStation",
	}

	iptcRecordFields = map[uint8]map[uint8]iptcField{
		1: {
			0:   {name: "EnvelopeRecordVersion", short: true},
			5:   {name: "Destination", repeatable: true},
			20:  {name: "FileFormat", short: true},
			22:  {name: "FileVersion", short: true},
			30:  {name: "ServiceIdentifier"},
			40:  {name: "EnvelopeNumber"},
			50:  {name: "ProductID", repeatable: true},
			60:  {name: "EnvelopePriority"},
			70:  {name: "DateSent"},
			80:  {name: "TimeSent"},
			90:  {name: "CodedCharacterSet"},
			100: {name: "UniqueObjectName"},
		},
		2: {
			0:   {name: "ApplicationRecordVersion", short: true},
			5:   {name: "ObjectName"},
			7:   {name: "EditStatus"},
			10:  {name: "Urgency"},
			12:  {name: "SubjectReference", repeatable: true},
			15:  {name: "Category"},
			20:  {name: "SupplementalCategories", repeatable: true},
			22:  {name: "FixtureIdentifier"},
			25:  {name: "Keywords", repeatable: true},
			26:  {name: "ContentLocationCode", repeatable: true},
			27:  {name: "ContentLocationName", repeatable: true},
			30:  {name: "ReleaseDate"},
			35:  {name: "ReleaseTime"},
			37:  {name: "ExpirationDate"},
			38:  {name: "ExpirationTime"},
			40:  {name: "SpecialInstructions"},
			55:  {name: "DateCreated"},
			60:  {name: "TimeCreated"},
			62:  {name: "DigitalCreationDate"},
			63:  {name: "DigitalCreationTime"},
			65:  {name: "OriginatingProgram"},
			70:  {name: "ProgramVersion"},
			80:  {name: "By-line", repeatable: true},
			85:  {name: "By-lineTitle", repeatable: true},
			90:  {name: "City"},
			92:  {name: "Sub-location"},
			95:  {name: "Province-State"},
			100: {name: "Country-PrimaryLocationCode"},
			101: {name: "Country-PrimaryLocationName"},
			103: {name: "OriginalTransmissionReference"},
			105: {name: "Headline"},
			110: {name: "Credit"},
			115: {name: "Source"},
			116: {name: "CopyrightNotice"},
			118: {name: "Contact", repeatable: true},
			120: {name: "Caption-Abstract"},
			122: {name: "Writer-Editor", repeatable: true},
		},
	}

	iptcValueConverters = map[string]func(string) string{
		"DateCreated":         convertIPTCDate,
		"DateSent":            convertIPTCDate,
		"ReleaseDate":         convertIPTCDate,
		"ExpirationDate":      convertIPTCDate,
		"DigitalCreationDate": convertIPTCDate,
		"DigitalCreationTime": convertIPTCTime,
		"TimeSent":            convertIPTCTime,
		"TimeCreated":         convertIPTCTime,
		"ReleaseTime":         convertIPTCTime,
		"ExpirationTime":      convertIPTCTime,
		"ProgramVersion": func(s string) string {
			return strings.TrimSuffix(s, ".0")
		},
	}
)

// DecodeIPTC decodes IPTC-IIM records and calls handle for every dataset.
// data is either a raw record stream, as stored in the IPTC tag, or a list of
// Photoshop image resource blocks, as stored in the Photoshop tag.
// Repeatable datasets are collected into one Property with a []string value
// and handled after the other datasets.
func DecodeIPTC(data []byte, handle func(Property) error) error {
	dec := &iptcDecoder{
		iso88591CharsetDecoder: charmap.ISO8859_1.NewDecoder(),
		repeatables:            make(map[string]int),
	}

	var err error
	switch {
	case bytes.HasPrefix(data, photoshopBlockType):
		err = dec.decodeBlocks(data)
	case len(data) > 0 && data[0] == iptcRecordMarker:
		err = dec.decodeRecords(data)
	default:
		err = errIPTCNoRecords
	}
	if err != nil {
		return &ifd.InvalidFormatError{Err: err}
	}

	for _, p := range dec.props {
		if err := handle(p); err != nil {
			return err
		}
	}
	for _, p := range dec.repeated {
		if err := handle(p); err != nil {
			return err
		}
	}
	return nil
}

// IPTCDecoder returns a DecoderFunc that decodes IPTC data with DecodeIPTC.
func IPTCDecoder(handle func(Property) error) DecoderFunc {
	return func(_ ifd.Entry, data []byte) error {
		return DecodeIPTC(data, handle)
	}
}

type iptcDecoder struct {
	charset                string
	iso88591CharsetDecoder *encoding.Decoder

	props    []Property
	repeated []Property
	// Index into repeated by namespace and name.
	repeatables map[string]int
}

// decodeBlocks decodes the IPTC data in Photoshop image resource blocks (8BIM).
func (d *iptcDecoder) decodeBlocks(b []byte) error {
	for len(b) >= 4 && bytes.Equal(b[:4], photoshopBlockType) {
		if len(b) < 7 {
			return errIPTCTruncated
		}
		identifier := binary.BigEndian.Uint16(b[4:6])

		// The name is a Pascal string padded to an even length.
		nameLength := 1 + int(b[6])
		if nameLength%2 == 1 {
			nameLength++
		}

		pos := 6 + nameLength
		if len(b) < pos+4 {
			return errIPTCTruncated
		}
		dataSize := int(binary.BigEndian.Uint32(b[pos:]))
		pos += 4
		if dataSize > len(b)-pos {
			return errIPTCTruncated
		}

		if identifier == iptcMetaDataBlockID {
			if err := d.decodeRecords(b[pos : pos+dataSize]); err != nil {
				return err
			}
		}

		pos += dataSize
		if dataSize%2 != 0 && pos < len(b) {
			// Padding byte.
			pos++
		}
		b = b[pos:]
	}
	return nil
}

// decodeRecords decodes the IPTC records delimited by 0x1C.
func (d *iptcDecoder) decodeRecords(b []byte) error {
	for len(b) > 0 && b[0] == iptcRecordMarker {
		if len(b) < 5 {
			return errIPTCTruncated
		}
		recordType, datasetNumber := b[1], b[2]
		recordSize := int(binary.BigEndian.Uint16(b[3:5]))
		b = b[5:]

		if recordSize&0x8000 != 0 {
			// Extended dataset, the low bits give the length of the size field.
			n := recordSize & 0x7fff
			if n > 4 || len(b) < n {
				return errIPTCTruncated
			}
			recordSize = 0
			for _, c := range b[:n] {
				recordSize = recordSize<<8 | int(c)
			}
			b = b[n:]
		}

		if recordSize > len(b) {
			return errIPTCTruncated
		}

		d.decodeRecord(recordType, datasetNumber, b[:recordSize])
		b = b[recordSize:]
	}
	return nil
}

func (d *iptcDecoder) decodeRecord(recordType, datasetNumber uint8, data []byte) {
	field, ok := iptcRecordFields[recordType][datasetNumber]
	if !ok {
		// Assume a non repeatable string.
		field = iptcField{name: fmt.Sprintf("%s%d", ifd.UnknownPrefix, datasetNumber)}
	}

	namespace, ok := iptcRecordNames[recordType]
	if !ok {
		namespace = fmt.Sprintf("IPTCUnknownRecord%d", recordType)
	}

	var v string
	switch {
	case field.short && len(data) == 2:
		v = strconv.Itoa(int(binary.BigEndian.Uint16(data)))
	case recordType == 1 && datasetNumber == iptcCodedCharacterSet:
		d.charset = resolveCodedCharacterSet(data)
		v = d.charset
		if v == "" {
			v = characterSetUTF8
		}
	default:
		v = d.decodeString(data)
	}

	if convert, found := iptcValueConverters[field.name]; found {
		v = convert(v)
	}

	if !field.repeatable {
		d.props = append(d.props, Property{Namespace: namespace, Name: field.name, Value: v})
		return
	}

	key := namespace + ":" + field.name
	i, found := d.repeatables[key]
	if !found {
		i = len(d.repeated)
		d.repeatables[key] = i
		d.repeated = append(d.repeated, Property{Namespace: namespace, Name: field.name, Value: []string{}})
	}
	d.repeated[i].Value = append(d.repeated[i].Value.([]string), v)
}

func (d *iptcDecoder) decodeString(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if d.charset == characterSetISO88591 || (d.charset == "" && !utf8.Valid(b)) {
		if s, err := d.iso88591CharsetDecoder.Bytes(b); err == nil {
			b = s
		}
	}
	return strings.TrimSpace(string(b))
}

// convertIPTCDate converts 20211020 and 2021-10-20 to 2021:10:20.
func convertIPTCDate(s string) string {
	if len(s) == 8 {
		return fmt.Sprintf("%s:%s:%s", s[:4], s[4:6], s[6:])
	}
	if len(s) == 10 {
		return fmt.Sprintf("%s:%s:%s", s[:4], s[5:7], s[8:])
	}
	return s
}

// convertIPTCTime converts 111116 to 11:11:16 and 130444+1000 to 13:04:44+10:00.
func convertIPTCTime(s string) string {
	if len(s) == 6 {
		return fmt.Sprintf("%s:%s:%s", s[:2], s[2:4], s[4:])
	}
	if len(s) == 11 {
		return fmt.Sprintf("%s:%s:%s%s:%s", s[:2], s[2:4], s[4:6], s[6:9], s[9:])
	}
	return s
}

// resolveCodedCharacterSet resolves the coded character set from the IPTC data
// to be either UTF-8 or ISO-8859-1 or an empty string if it cannot be resolved.
func resolveCodedCharacterSet(b []byte) string {
	const (
		esc           = 0x1B
		percent       = 0x25
		latinCapitalG = 0x47
		dot           = 0x2E
		latinCapitalA = 0x41
		minus         = 0x2D
	)

	if len(b) > 2 && b[0] == esc && b[1] == percent && b[2] == latinCapitalG {
		return characterSetUTF8
	}

	if len(b) > 2 && b[0] == esc && (b[1] == dot || b[1] == minus) && b[2] == latinCapitalA {
		return characterSetISO88591
	}

	if len(b) > 4 && b[0] == esc && (b[1] == dot || b[2] == dot || b[3] == dot) && b[4] == latinCapitalA {
		return characterSetISO88591
	}

	return ""
}
