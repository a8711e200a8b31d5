// Package exif finds the EXIF UserComment inside a byte window and decodes
// its charset-tagged text.
package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"
	goexif "github.com/rwcarlsen/goexif/exif"
)

// Strategy selects how the UserComment tag is located.
type Strategy string

const (
	// Structural walks IFD0 and the Exif sub-IFD, falling back to Scan when
	// the TIFF structure cannot be decoded.
	Structural Strategy = "structural"
	// Scan searches for the first big-endian 0x9286 tag id after the TIFF base.
	Scan Strategy = "scan"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Structural, Scan:
		return Strategy(s), nil
	case "":
		return Structural, nil
	}
	return "", fmt.Errorf("unknown exif strategy %q (want %s or %s)", s, Structural, Scan)
}

// TagUserComment is the EXIF tag id of UserComment.
const TagUserComment = 0x9286

// DefaultSearchWindow is how much of a JPEG/AVIF file is searched for EXIF.
const DefaultSearchWindow = 64 << 10

var marker = []byte("Exif\x00\x00")

// Comment is a located UserComment payload split into charset and text.
type Comment struct {
	Charset CharsetID
	Text    []byte
}

// Locator finds and decodes UserComment payloads.
type Locator struct {
	Strategy Strategy
	Decoder  Decoder
}

// NewLocator returns a Locator with the given strategy and UTF-16 unit cap.
func NewLocator(s Strategy, maxUnits int) Locator {
	return Locator{Strategy: s, Decoder: Decoder{MaxUnits: maxUnits}}
}

// TIFFBase returns the offset just past the Exif\0\0 marker.
func TIFFBase(window []byte) (int, bool) {
	pos := bytes.Index(window, marker)
	if pos < 0 {
		return 0, false
	}
	return pos + len(marker), true
}

// chunkBase is TIFFBase for an isolated EXIF chunk, which may also start
// directly with the TIFF header.
func chunkBase(chunk []byte) (int, bool) {
	if base, ok := TIFFBase(chunk); ok {
		return base, true
	}
	if isTIFFHeader(chunk) {
		return 0, true
	}
	return 0, false
}

func isTIFFHeader(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}

// Find locates and decodes the UserComment in a window that carries an
// Exif\0\0 marker. ok is false when there is nothing printable.
func (l Locator) Find(window []byte) (string, bool) {
	base, ok := TIFFBase(window)
	if !ok {
		return "", false
	}
	return l.decodeAt(window, base)
}

// FindInChunk is Find for an isolated EXIF chunk (WebP EXIF, PNG eXIf).
func (l Locator) FindInChunk(chunk []byte) (string, bool) {
	base, ok := chunkBase(chunk)
	if !ok {
		return "", false
	}
	return l.decodeAt(chunk, base)
}

func (l Locator) decodeAt(window []byte, base int) (string, bool) {
	c, ok := l.Locate(window, base)
	if !ok {
		return "", false
	}
	return l.Decoder.Decode(c.Charset, c.Text)
}

// Locate finds the UserComment payload of the TIFF structure starting at
// base and splits off its charset id.
func (l Locator) Locate(window []byte, base int) (Comment, bool) {
	if base < 0 || base > len(window) {
		return Comment{}, false
	}
	var (
		payload []byte
		ok      bool
	)
	switch l.Strategy {
	case Scan:
		payload, ok = scanPayload(window, base)
	default:
		var fallback bool
		payload, ok, fallback = structuralPayload(window, base)
		if fallback {
			payload, ok = scanPayload(window, base)
		}
	}
	if !ok {
		return Comment{}, false
	}
	id, text := splitCharset(payload)
	return Comment{Charset: id, Text: text}, true
}

// structuralPayload reads the UserComment tag through the IFD tree. fallback
// is set when the tree could not be read and a raw scan should be tried.
func structuralPayload(window []byte, base int) (payload []byte, ok, fallback bool) {
	tiffData := window[base:]
	if !isTIFFHeader(tiffData) {
		return nil, false, true
	}
	if !ifdChainBounded(tiffData) {
		log.Debug().Int("base", base).Msg("IFD chain loops or overruns, scanning for UserComment")
		return nil, false, true
	}
	x, err := goexif.Decode(bytes.NewReader(tiffData))
	if err != nil && goexif.IsCriticalError(err) {
		log.Debug().Err(err).Int("base", base).Msg("TIFF decode failed, scanning for UserComment")
		return nil, false, true
	}
	tag, getErr := x.Get(goexif.UserComment)
	if getErr != nil {
		// a sub-IFD that failed to load may still hold the tag
		return nil, false, err != nil
	}
	if len(tag.Val) < 8 {
		log.Debug().Int("len", len(tag.Val)).Msg("UserComment too short for a charset id")
		return nil, false, false
	}
	return tag.Val, true, false
}

// maxIFDHops limits the IFD0 next-offset chain accepted by the structural
// strategy. Real files carry IFD0 and at most a thumbnail IFD1.
const maxIFDHops = 8

// ifdChainBounded walks the top-level IFD chain of a TIFF and reports whether
// it ends within maxIFDHops without revisiting an offset or leaving tiff.
func ifdChainBounded(tiff []byte) bool {
	if len(tiff) < 8 {
		return false
	}
	var order binary.ByteOrder = binary.BigEndian
	if tiff[0] == 'I' {
		order = binary.LittleEndian
	}
	size := uint64(len(tiff))
	seen := make(map[uint64]bool, maxIFDHops)
	off := uint64(order.Uint32(tiff[4:8]))
	for hops := 0; off != 0; hops++ {
		if hops == maxIFDHops || seen[off] || off+2 > size {
			return false
		}
		seen[off] = true
		n := uint64(order.Uint16(tiff[off : off+2]))
		next := off + 2 + 12*n
		if next+4 > size {
			return false
		}
		off = uint64(order.Uint32(tiff[next : next+4]))
	}
	return true
}

// scanPayload finds the first 0x92 0x86 pair after base and reads it as a
// big-endian IFD entry whose value offset is relative to base.
func scanPayload(window []byte, base int) ([]byte, bool) {
	for i := base; i+12 <= len(window); i++ {
		if window[i] != 0x92 || window[i+1] != 0x86 {
			continue
		}
		n := binary.BigEndian.Uint32(window[i+4 : i+8])
		off := binary.BigEndian.Uint32(window[i+8 : i+12])
		return span(window, uint64(base)+uint64(off), uint64(n))
	}
	return nil, false
}

func span(window []byte, start, n uint64) ([]byte, bool) {
	if n < 8 || start+n > uint64(len(window)) {
		log.Debug().Uint64("offset", start).Uint64("len", n).Msg("UserComment out of bounds")
		return nil, false
	}
	return window[start : start+n], true
}

// splitCharset separates the 8-byte charset id from the text. Some encoders
// write the id four bytes late behind zero padding.
func splitCharset(p []byte) (CharsetID, []byte) {
	var id CharsetID
	if len(p) >= 12 && bytes.Equal(p[:4], []byte{0, 0, 0, 0}) {
		copy(id[:], p[4:12])
		if id.Known() {
			return id, p[12:]
		}
	}
	copy(id[:], p[:8])
	return id, p[8:]
}
