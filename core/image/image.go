// Package image walks PNG, WebP, JPEG and AVIF containers for embedded
// generation metadata.
package image

import (
	"github.com/ankit-chaubey/promptscope/core"
	"github.com/ankit-chaubey/promptscope/core/exif"
	"github.com/rs/zerolog/log"
)

// DefaultMaxInflate caps the decompressed size of one iTXt/zTXt chunk.
const DefaultMaxInflate = 16 << 20

// Options controls extraction limits and the UserComment strategy.
type Options struct {
	Locator      exif.Locator
	SearchWindow int   // bytes of a JPEG/AVIF searched for EXIF
	MaxInflate   int64 // decompressed size cap for compressed PNG text
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		Locator:      exif.NewLocator(exif.Structural, exif.DefaultMaxUnits),
		SearchWindow: exif.DefaultSearchWindow,
		MaxInflate:   DefaultMaxInflate,
	}
}

// Extractor reads files through a core.Source and extracts their records.
type Extractor struct {
	src  core.Source
	opts Options
}

// New returns an Extractor. A nil src reads files into memory.
func New(src core.Source, opts Options) *Extractor {
	if src == nil {
		src = core.FileSource{}
	}
	if opts.SearchWindow <= 0 {
		opts.SearchWindow = exif.DefaultSearchWindow
	}
	if opts.MaxInflate <= 0 {
		opts.MaxInflate = DefaultMaxInflate
	}
	return &Extractor{src: src, opts: opts}
}

// View opens path and extracts every record from it. Only I/O failures are
// returned as errors; an unrecognised container yields Format FmtUnknown.
func (e *Extractor) View(path string) (*core.Metadata, error) {
	var m *core.Metadata
	err := core.WithView(e.src, path, func(b []byte) error {
		m = e.Extract(path, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Extract classifies data and runs the matching walker.
func (e *Extractor) Extract(path string, data []byte) *core.Metadata {
	m := &core.Metadata{FilePath: path, Format: core.Detect(data)}

	switch m.Format {
	case core.FmtPNG:
		m.Records = e.walkPNG(data)
	case core.FmtWebP:
		m.Records = e.walkWebP(data)
	case core.FmtJPEG, core.FmtAVIF:
		m.Records = e.searchEXIF(data)
	default:
		log.Debug().Str("path", path).Msg("no recognised signature")
	}
	return m
}

// searchEXIF looks for a UserComment near the start of the file, where
// JPEG APP1 and small AVIF Exif items live.
func (e *Extractor) searchEXIF(data []byte) []core.TextRecord {
	window := data
	if len(window) > e.opts.SearchWindow {
		window = window[:e.opts.SearchWindow]
	}
	if text, ok := e.opts.Locator.Find(window); ok {
		return []core.TextRecord{userComment(text)}
	}
	return nil
}

func userComment(text string) core.TextRecord {
	return core.TextRecord{Keyword: "UserComment", Value: text, Source: core.SourceEXIF}
}
