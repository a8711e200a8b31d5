package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

var errInflateLimit = errors.New("decompressed text exceeds limit")

type pngChunk struct {
	typ    string
	offset int
	data   []byte
}

// walkPNGChunks calls fn for every complete chunk after the signature.
// The walk ends at the first chunk whose data and CRC run past the buffer.
func walkPNGChunks(b []byte, fn func(c pngChunk)) {
	c := 8
	for c+8 < len(b) {
		length := uint64(binary.BigEndian.Uint32(b[c : c+4]))
		start := c + 8
		next := uint64(start) + length + 4
		if next > uint64(len(b)) {
			log.Debug().Int("offset", c).Uint64("len", length).Msg("PNG chunk overruns file, stopping")
			return
		}
		fn(pngChunk{typ: string(b[c+4 : c+8]), offset: c, data: b[start : start+int(length)]})
		c = int(next)
	}
}

func (e *Extractor) walkPNG(b []byte) []core.TextRecord {
	var recs []core.TextRecord
	walkPNGChunks(b, func(c pngChunk) {
		var (
			rec core.TextRecord
			ok  bool
		)
		switch c.typ {
		case "tEXt":
			rec, ok = parseTEXt(c.data)
		case "iTXt":
			rec, ok = e.parseITXt(c.data)
		case "zTXt":
			rec, ok = e.parseZTXt(c.data)
		case "eXIf":
			var text string
			if text, ok = e.opts.Locator.FindInChunk(c.data); ok {
				rec = userComment(text)
			}
		default:
			return
		}
		if !ok {
			log.Debug().Str("chunk", c.typ).Int("offset", c.offset).Msg("skipping chunk")
			return
		}
		recs = append(recs, rec)
	})
	return recs
}

// splitKeyword splits chunk data at the first NUL. The keyword must be
// valid UTF-8.
func splitKeyword(data []byte) (keyword string, rest []byte, ok bool) {
	null := bytes.IndexByte(data, 0)
	if null < 0 || !utf8.Valid(data[:null]) {
		return "", nil, false
	}
	return string(data[:null]), data[null+1:], true
}

// permissiveUTF8 returns text as a string, or "" when it is not valid UTF-8.
func permissiveUTF8(text []byte) string {
	if !utf8.Valid(text) {
		return ""
	}
	return string(text)
}

// parseTEXt reads keyword\0value.
func parseTEXt(data []byte) (core.TextRecord, bool) {
	key, rest, ok := splitKeyword(data)
	if !ok {
		return core.TextRecord{}, false
	}
	return core.TextRecord{Keyword: key, Value: permissiveUTF8(rest), Source: core.SourceText}, true
}

// parseITXt reads keyword\0 flag method language\0 translated\0 text.
func (e *Extractor) parseITXt(data []byte) (core.TextRecord, bool) {
	key, rest, ok := splitKeyword(data)
	if !ok || len(rest) < 2 {
		return core.TextRecord{}, false
	}
	compressed, method := rest[0] == 1, rest[1]
	rest = rest[2:]
	// language tag and translated keyword
	for i := 0; i < 2; i++ {
		n := bytes.IndexByte(rest, 0)
		if n < 0 {
			return core.TextRecord{}, false
		}
		rest = rest[n+1:]
	}

	text := rest
	if compressed {
		if method != 0 {
			return core.TextRecord{}, false
		}
		var err error
		if text, err = inflate(rest, e.opts.MaxInflate); err != nil {
			log.Debug().Str("keyword", key).Err(err).Msg("iTXt inflate failed")
			return core.TextRecord{}, false
		}
	}
	return core.TextRecord{Keyword: key, Value: permissiveUTF8(text), Source: core.SourceIText}, true
}

// parseZTXt reads keyword\0 method compressed-text. The text is Latin-1
// unless it happens to be valid UTF-8.
func (e *Extractor) parseZTXt(data []byte) (core.TextRecord, bool) {
	key, rest, ok := splitKeyword(data)
	if !ok || len(rest) < 1 || rest[0] != 0 {
		return core.TextRecord{}, false
	}
	text, err := inflate(rest[1:], e.opts.MaxInflate)
	if err != nil {
		log.Debug().Str("keyword", key).Err(err).Msg("zTXt inflate failed")
		return core.TextRecord{}, false
	}
	value := string(text)
	if !utf8.Valid(text) {
		if value, err = charmap.ISO8859_1.NewDecoder().String(value); err != nil {
			return core.TextRecord{}, false
		}
	}
	return core.TextRecord{Keyword: key, Value: value, Source: core.SourceZText}, true
}

func inflate(data []byte, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open zlib stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, errInflateLimit
	}
	return out, nil
}
