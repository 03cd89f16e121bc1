// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import "fmt"

// Type is the data type code of an IFD entry.
//
//go:generate stringer -type=Type -trimprefix=Type
type Type int16

const (
	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
	TypeIFD       Type = 13 // Supplement 1

	// BigTIFF.
	TypeLong8  Type = 16
	TypeSLong8 Type = 17
	TypeIFD8   Type = 18
)

// Size in bytes of each type, indexed by type code.
// A zero size means that the type is not known.
var typeSizes = [...]int{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
	TypeIFD:       4,
	TypeLong8:     8,
	TypeSLong8:    8,
	TypeIFD8:      8,
}

// Size returns the size in bytes of a single value of t,
// or 0 if t is not a known type.
func (t Type) Size() int {
	if t < 0 || int(t) >= len(typeSizes) {
		return 0
	}
	return typeSizes[t]
}

// IsKnown reports whether t is one of the types this package decodes.
func (t Type) IsKnown() bool {
	return t.Size() > 0
}

// valueLength returns the size in bytes of count values of t,
// or -1 if the type is not known.
func valueLength(t Type, count uint32) int64 {
	size := t.Size()
	if size == 0 {
		return -1
	}
	return int64(size) * int64(count)
}

// Tag is the identifier of an IFD entry.
type Tag uint16

const (
	TagImageWidth       Tag = 0x0100
	TagImageLength      Tag = 0x0101
	TagCompression      Tag = 0x0103
	TagMake             Tag = 0x010f
	TagModel            Tag = 0x0110
	TagOrientation      Tag = 0x0112
	TagSubIFDs          Tag = 0x014a
	TagXMP              Tag = 0x02bc
	TagIPTC             Tag = 0x83bb
	TagPhotoshop        Tag = 0x8649
	TagExifIFD          Tag = 0x8769
	TagICCProfile       Tag = 0x8773
	TagGPSIFD           Tag = 0x8825
	TagInteroperability Tag = 0xa005
)

// DefaultPointerTags are the tags expanded into nested directories unless
// Options.PointerTags is set.
var DefaultPointerTags = []Tag{TagExifIFD, TagGPSIFD, TagInteroperability}

// String returns the name of t as found in IFD0 or the Exif IFD.
func (t Tag) String() string {
	return t.name(0)
}

func (t Tag) name(namespace Tag) string {
	var names map[Tag]string
	switch namespace {
	case TagGPSIFD:
		names = tagNamesGPS
	case TagInteroperability:
		names = tagNamesInterop
	default:
		names = tagNamesTIFF
	}
	if name, found := names[t]; found {
		return name
	}
	return fmt.Sprintf("%s0x%04x", UnknownPrefix, uint16(t))
}

// UnknownPrefix is used as prefix for unknown tag names.
const UnknownPrefix = "UnknownTag_"

var (
	tagNamesTIFF = map[Tag]string{
		0x00fe: "NewSubfileType",
		0x00ff: "SubfileType",
		0x0100: "ImageWidth",
		0x0101: "ImageLength",
		0x0102: "BitsPerSample",
		0x0103: "Compression",
		0x0106: "PhotometricInterpretation",
		0x010a: "FillOrder",
		0x010d: "DocumentName",
		0x010e: "ImageDescription",
		0x010f: "Make",
		0x0110: "Model",
		0x0111: "StripOffsets",
		0x0112: "Orientation",
		0x0115: "SamplesPerPixel",
		0x0116: "RowsPerStrip",
		0x0117: "StripByteCounts",
		0x011a: "XResolution",
		0x011b: "YResolution",
		0x011c: "PlanarConfiguration",
		0x0128: "ResolutionUnit",
		0x012d: "TransferFunction",
		0x0131: "Software",
		0x0132: "DateTime",
		0x013b: "Artist",
		0x013c: "HostComputer",
		0x013d: "Predictor",
		0x013e: "WhitePoint",
		0x013f: "PrimaryChromaticities",
		0x0140: "ColorMap",
		0x0142: "TileWidth",
		0x0143: "TileLength",
		0x0144: "TileOffsets",
		0x0145: "TileByteCounts",
		0x014a: "SubIFDs",
		0x0152: "ExtraSamples",
		0x0153: "SampleFormat",
		0x0201: "ThumbnailOffset",
		0x0202: "ThumbnailLength",
		0x0211: "YCbCrCoefficients",
		0x0212: "YCbCrSubSampling",
		0x0213: "YCbCrPositioning",
		0x0214: "ReferenceBlackWhite",
		0x02bc: "XMP",
		0x8298: "Copyright",
		0x829a: "ExposureTime",
		0x829d: "FNumber",
		0x83bb: "IPTC",
		0x8649: "Photoshop",
		0x8769: "ExifIFD",
		0x8773: "ICCProfile",
		0x8822: "ExposureProgram",
		0x8824: "SpectralSensitivity",
		0x8825: "GPSInfoIFD",
		0x8827: "ISOSpeedRatings",
		0x8828: "OECF",
		0x9000: "ExifVersion",
		0x9003: "DateTimeOriginal",
		0x9004: "DateTimeDigitized",
		0x9010: "OffsetTime",
		0x9011: "OffsetTimeOriginal",
		0x9012: "OffsetTimeDigitized",
		0x9101: "ComponentsConfiguration",
		0x9102: "CompressedBitsPerPixel",
		0x9201: "ShutterSpeedValue",
		0x9202: "ApertureValue",
		0x9203: "BrightnessValue",
		0x9204: "ExposureBiasValue",
		0x9205: "MaxApertureValue",
		0x9206: "SubjectDistance",
		0x9207: "MeteringMode",
		0x9208: "LightSource",
		0x9209: "Flash",
		0x920a: "FocalLength",
		0x9214: "SubjectArea",
		0x927c: "MakerNote",
		0x9286: "UserComment",
		0x9290: "SubSecTime",
		0x9291: "SubSecTimeOriginal",
		0x9292: "SubSecTimeDigitized",
		0x9c9b: "XPTitle",
		0x9c9c: "XPComment",
		0x9c9d: "XPAuthor",
		0x9c9e: "XPKeywords",
		0x9c9f: "XPSubject",
		0xa000: "FlashpixVersion",
		0xa001: "ColorSpace",
		0xa002: "PixelXDimension",
		0xa003: "PixelYDimension",
		0xa004: "RelatedSoundFile",
		0xa005: "InteroperabilityIFD",
		0xa20b: "FlashEnergy",
		0xa20c: "SpatialFrequencyResponse",
		0xa20e: "FocalPlaneXResolution",
		0xa20f: "FocalPlaneYResolution",
		0xa210: "FocalPlaneResolutionUnit",
		0xa214: "SubjectLocation",
		0xa215: "ExposureIndex",
		0xa217: "SensingMethod",
		0xa300: "FileSource",
		0xa301: "SceneType",
		0xa302: "CFAPattern",
		0xa401: "CustomRendered",
		0xa402: "ExposureMode",
		0xa403: "WhiteBalance",
		0xa404: "DigitalZoomRatio",
		0xa405: "FocalLengthIn35mmFilm",
		0xa406: "SceneCaptureType",
		0xa407: "GainControl",
		0xa408: "Contrast",
		0xa409: "Saturation",
		0xa40a: "Sharpness",
		0xa40b: "DeviceSettingDescription",
		0xa40c: "SubjectDistanceRange",
		0xa420: "ImageUniqueID",
		0xa430: "OwnerName",
		0xa431: "SerialNumber",
		0xa432: "LensInfo",
		0xa433: "LensMake",
		0xa434: "LensModel",
		0xa435: "LensSerialNumber",
	}

	tagNamesGPS = map[Tag]string{
		0x00: "GPSVersionID",
		0x01: "GPSLatitudeRef",
		0x02: "GPSLatitude",
		0x03: "GPSLongitudeRef",
		0x04: "GPSLongitude",
		0x05: "GPSAltitudeRef",
		0x06: "GPSAltitude",
		0x07: "GPSTimeStamp",
		0x08: "GPSSatellites",
		0x09: "GPSStatus",
		0x0a: "GPSMeasureMode",
		0x0b: "GPSDOP",
		0x0c: "GPSSpeedRef",
		0x0d: "GPSSpeed",
		0x0e: "GPSTrackRef",
		0x0f: "GPSTrack",
		0x10: "GPSImgDirectionRef",
		0x11: "GPSImgDirection",
		0x12: "GPSMapDatum",
		0x13: "GPSDestLatitudeRef",
		0x14: "GPSDestLatitude",
		0x15: "GPSDestLongitudeRef",
		0x16: "GPSDestLongitude",
		0x17: "GPSDestBearingRef",
		0x18: "GPSDestBearing",
		0x19: "GPSDestDistanceRef",
		0x1a: "GPSDestDistance",
		0x1b: "GPSProcessingMethod",
		0x1c: "GPSAreaInformation",
		0x1d: "GPSDateStamp",
		0x1e: "GPSDifferential",
	}

	tagNamesInterop = map[Tag]string{
		0x0001: "InteroperabilityIndex",
		0x0002: "InteroperabilityVersion",
		0x1000: "RelatedImageFileFormat",
		0x1001: "RelatedImageWidth",
		0x1002: "RelatedImageLength",
	}
)
