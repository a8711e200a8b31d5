package image

import (
	"encoding/binary"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/rs/zerolog/log"
)

// walkRIFFChunks calls fn for each sub-chunk after the 12-byte RIFF/WEBP
// header until fn returns false or a chunk runs past the buffer. Odd-sized
// chunks are followed by one padding byte.
func walkRIFFChunks(b []byte, fn func(typ string, data []byte) bool) {
	offset := 12
	for offset+8 <= len(b) {
		typ := string(b[offset : offset+4])
		size := uint64(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		start := offset + 8
		end := uint64(start) + size
		if end > uint64(len(b)) {
			log.Debug().Str("chunk", typ).Int("offset", offset).Uint64("size", size).Msg("RIFF chunk overruns file, stopping")
			return
		}
		if !fn(typ, b[start:int(end)]) {
			return
		}
		offset = int(end)
		if size%2 != 0 {
			offset++ // padding
		}
	}
}

// walkWebP extracts the UserComment from the first EXIF chunk.
func (e *Extractor) walkWebP(b []byte) []core.TextRecord {
	var recs []core.TextRecord
	walkRIFFChunks(b, func(typ string, data []byte) bool {
		if typ != "EXIF" {
			return true
		}
		if text, ok := e.opts.Locator.FindInChunk(data); ok {
			recs = append(recs, userComment(text))
		}
		return false
	})
	return recs
}
