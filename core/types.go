// Package core defines the shared types, format detection, file views and
// output rendering for promptscope.
package core

// Record sources. A record's source decides how it is labelled.
const (
	SourceText  = "tEXt"
	SourceIText = "iTXt"
	SourceZText = "zTXt"
	SourceEXIF  = "EXIF"
)

// TextRecord is one keyword/value pair discovered inside a container.
type TextRecord struct {
	Keyword string // Chunk keyword (e.g. "parameters", "Comment") or "UserComment"
	Value   string // Decoded text, never aliasing the file view
	Source  string // Carrier the record came from (tEXt, iTXt, zTXt, EXIF)
}

// Metadata holds every record extracted from a single file, in discovery order.
type Metadata struct {
	FilePath string
	Format   FormatID
	Records  []TextRecord
}

// Supported reports whether the file matched a known container.
func (m *Metadata) Supported() bool {
	return m.Format != FmtUnknown
}

// Keywords returns the record keywords in discovery order.
func (m *Metadata) Keywords() []string {
	out := make([]string, 0, len(m.Records))
	for _, r := range m.Records {
		out = append(out, r.Keyword)
	}
	return out
}
