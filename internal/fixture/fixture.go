// Package fixture builds small in-memory containers for tests.
package fixture

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// PNGChunk encodes one chunk with its length and CRC.
func PNGChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

// PNG joins the signature, an IHDR, the given chunks and IEND.
func PNG(chunks ...[]byte) []byte {
	out := append([]byte{}, pngSignature...)
	out = append(out, PNGChunk("IHDR", make([]byte, 13))...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, PNGChunk("IEND", nil)...)
}

// TEXt builds a tEXt chunk.
func TEXt(keyword, value string) []byte {
	return PNGChunk("tEXt", []byte(keyword+"\x00"+value))
}

// ITXt builds an iTXt chunk, optionally zlib-compressed.
func ITXt(keyword, text string, compressed bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(keyword)
	buf.WriteByte(0)
	if compressed {
		buf.Write([]byte{1, 0})
	} else {
		buf.Write([]byte{0, 0})
	}
	buf.WriteString("en\x00")
	buf.WriteString(keyword + "\x00")
	if compressed {
		buf.Write(Deflate([]byte(text)))
	} else {
		buf.WriteString(text)
	}
	return PNGChunk("iTXt", buf.Bytes())
}

// ZTXt builds a zTXt chunk from raw (uncompressed) text bytes.
func ZTXt(keyword string, text []byte) []byte {
	data := append([]byte(keyword+"\x00"), 0)
	return PNGChunk("zTXt", append(data, Deflate(text)...))
}

// Deflate zlib-compresses b.
func Deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(b)
	zw.Close()
	return buf.Bytes()
}

// RIFFChunk encodes a RIFF sub-chunk with a little-endian size and a pad
// byte after odd-sized data.
func RIFFChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(typ)
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// WebP wraps chunks in a RIFF/WEBP header.
func WebP(chunks ...[]byte) []byte {
	body := []byte("WEBP")
	for _, c := range chunks {
		body = append(body, c...)
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// UserCommentTIFF builds a TIFF with IFD0 pointing at an Exif sub-IFD that
// holds a single UNDEFINED UserComment entry.
//
//	0   header
//	8   IFD0: ExifIFDPointer -> 26
//	26  Exif IFD: UserComment, count len(payload), offset 44
//	44  payload
func UserCommentTIFF(order binary.ByteOrder, payload []byte) []byte {
	return UserCommentTIFFCount(order, payload, uint32(len(payload)))
}

// UserCommentTIFFCount is UserCommentTIFF with an explicit entry count.
func UserCommentTIFFCount(order binary.ByteOrder, payload []byte, count uint32) []byte {
	var buf bytes.Buffer
	if order == binary.LittleEndian {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	w := func(v any) { binary.Write(&buf, order, v) }
	w(uint16(42))
	w(uint32(8))

	w(uint16(1))
	w(uint16(0x8769))
	w(uint16(4)) // LONG
	w(uint32(1))
	w(uint32(26))
	w(uint32(0))

	w(uint16(1))
	w(uint16(0x9286))
	w(uint16(7)) // UNDEFINED
	w(count)
	w(uint32(44))
	w(uint32(0))

	buf.Write(payload)
	return buf.Bytes()
}

// EXIF prefixes a TIFF structure with the Exif\0\0 marker.
func EXIF(tiff []byte) []byte {
	return append([]byte("Exif\x00\x00"), tiff...)
}

// JPEG wraps an APP1 payload between SOI and EOI.
func JPEG(app1 []byte) []byte {
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	n := len(app1) + 2
	out = append(out, byte(n>>8), byte(n))
	out = append(out, app1...)
	return append(out, 0xFF, 0xD9)
}

// AVIF builds an ftyp box with the given brand followed by an Exif item
// payload (4-byte header offset, then the data).
func AVIF(brand string, exifData []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(20))
	buf.WriteString("ftyp")
	buf.WriteString(brand)
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.WriteString("mif1")
	binary.Write(&buf, binary.BigEndian, uint32(len(exifData)+12))
	buf.WriteString("mdat")
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.Write(exifData)
	return buf.Bytes()
}

// UTF16 encodes s as UTF-16 in the given order, optionally with a BOM.
func UTF16(s string, order binary.ByteOrder, bom bool) []byte {
	units := utf16.Encode([]rune(s))
	if bom {
		units = append([]uint16{0xFEFF}, units...)
	}
	out := make([]byte, 2*len(units))
	for i, u := range units {
		order.PutUint16(out[2*i:], u)
	}
	return out
}

// Comment joins a charset id and text into a UserComment payload.
func Comment(charset string, text []byte) []byte {
	id := make([]byte, 8)
	copy(id, charset)
	return append(id, text...)
}
