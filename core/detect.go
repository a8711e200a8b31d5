package core

import (
	"bytes"
)

// FormatID enumerates every recognised container.
type FormatID string

const (
	FmtPNG  FormatID = "png"
	FmtWebP FormatID = "webp"
	FmtJPEG FormatID = "jpeg"
	FmtAVIF FormatID = "avif"

	FmtUnknown FormatID = "unknown"
)

// HeaderSize is the length of the prefix inspected by Detect.
const HeaderSize = 16

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// formatNames maps format IDs to the names printed in file headers.
var formatNames = map[FormatID]string{
	FmtPNG:  "PNG",
	FmtWebP: "WebP",
	FmtJPEG: "JPEG",
	FmtAVIF: "AVIF",
}

// Name returns the human-readable format name.
func (id FormatID) Name() string {
	if n, ok := formatNames[id]; ok {
		return n
	}
	return "Unknown"
}

// Detect classifies a buffer by the magic bytes in its header prefix.
// Only the first HeaderSize bytes are inspected; the first match wins.
func Detect(b []byte) FormatID {
	if len(b) > HeaderSize {
		b = b[:HeaderSize]
	}
	switch {
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, pngSignature):
		return FmtPNG
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// JPEG: FF D8 FF
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// AVIF: ftyp box at offset 4 with an avif/avis brand
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectFtypBrand(b)
	}
	return FmtUnknown
}

func detectFtypBrand(b []byte) FormatID {
	switch string(b[8:12]) {
	case "avif", "avis":
		return FmtAVIF
	default:
		return FmtUnknown
	}
}
