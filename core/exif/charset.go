package exif

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
)

// CharsetID is the 8-byte character code prefix of a UserComment payload.
type CharsetID [8]byte

var (
	CharsetUnicode   = CharsetID{'U', 'N', 'I', 'C', 'O', 'D', 'E', 0}
	CharsetASCII     = CharsetID{'A', 'S', 'C', 'I', 'I', 0, 0, 0}
	CharsetJIS       = CharsetID{'J', 'I', 'S', 0, 0, 0, 0, 0}
	CharsetUndefined = CharsetID{}
)

// DefaultMaxUnits caps the UTF-16 code units decoded from one comment.
const DefaultMaxUnits = 5000

const bom = 0xFEFF

func (c CharsetID) String() string {
	return strings.TrimRight(string(c[:]), "\x00")
}

// Known reports whether c is one of the four charsets the decoder handles.
func (c CharsetID) Known() bool {
	switch c {
	case CharsetUnicode, CharsetASCII, CharsetJIS, CharsetUndefined:
		return true
	}
	return false
}

// Decoder turns UserComment text into printable strings.
type Decoder struct {
	// MaxUnits limits UTF-16 decoding; zero means DefaultMaxUnits.
	MaxUnits int
}

// Decode decodes text according to id. ok is false when the record should
// be dropped: unrecognised charset, invalid text or an empty result.
func (d Decoder) Decode(id CharsetID, text []byte) (s string, ok bool) {
	switch id {
	case CharsetUnicode:
		s, ok = d.decodeUTF16(text)
	case CharsetASCII, CharsetJIS:
		// JIS is read as ASCII-compatible bytes; no ISO-2022-JP shifting.
		s, ok = decodeUTF8(text)
	case CharsetUndefined:
		s, ok = decodeUTF8(text)
		if ok && strings.TrimSpace(s) == "" {
			ok = false
		}
	default:
		log.Debug().Str("charset", id.String()).Msg("unrecognised UserComment charset")
		return "", false
	}
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func decodeUTF8(text []byte) (string, bool) {
	text = bytes.TrimRight(text, "\x00")
	if !utf8.Valid(text) {
		return "", false
	}
	return string(text), true
}

// byteOrder infers the UTF-16 byte order from the first code unit and
// reports how many bytes of BOM to skip.
func byteOrder(text []byte) (order binary.ByteOrder, skip int) {
	if len(text) < 2 {
		return binary.BigEndian, 0
	}
	le := binary.LittleEndian.Uint16(text)
	be := binary.BigEndian.Uint16(text)
	switch {
	case le == bom:
		return binary.LittleEndian, 2
	case be == bom:
		return binary.BigEndian, 2
	case le >= 0x20 && le <= 0x7E:
		return binary.LittleEndian, 0
	default:
		return binary.BigEndian, 0
	}
}

func (d Decoder) decodeUTF16(text []byte) (string, bool) {
	limit := d.MaxUnits
	if limit <= 0 {
		limit = DefaultMaxUnits
	}
	order, start := byteOrder(text)

	end := start
	units := 0
	var pending uint16 // unmatched high surrogate
	for end+1 < len(text) && units < limit {
		u := order.Uint16(text[end:])
		if u == 0 || u == bom {
			break
		}
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if pending != 0 {
				return "", false
			}
			pending = u
		case u >= 0xDC00 && u <= 0xDFFF:
			if pending == 0 {
				return "", false
			}
			pending = 0
		default:
			if pending != 0 {
				return "", false
			}
		}
		end += 2
		units++
	}
	if pending != 0 {
		log.Debug().Msg("UserComment ends in an unpaired surrogate")
		return "", false
	}

	endian := unicode.BigEndian
	if order == binary.LittleEndian {
		endian = unicode.LittleEndian
	}
	out, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder().Bytes(text[start:end])
	if err != nil {
		return "", false
	}
	return string(out), true
}
