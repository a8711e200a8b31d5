package image

import (
	"encoding/binary"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/ankit-chaubey/promptscope/internal/fixture"
)

func extract(data []byte) *core.Metadata {
	return New(nil, DefaultOptions()).Extract("test", data)
}

func TestPNGTextChunks(t *testing.T) {
	data := fixture.PNG(
		fixture.TEXt("parameters", "steps: 20"),
		fixture.PNGChunk("IDAT", []byte{1, 2, 3}),
		fixture.TEXt("Software", "NovelAI"),
		fixture.TEXt("Comment", `{"a":1}`),
	)

	m := extract(data)
	want := []core.TextRecord{
		{Keyword: "parameters", Value: "steps: 20", Source: core.SourceText},
		{Keyword: "Software", Value: "NovelAI", Source: core.SourceText},
		{Keyword: "Comment", Value: `{"a":1}`, Source: core.SourceText},
	}
	if diff := cmp.Diff(want, m.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	qt.Assert(t, m.Format, qt.Equals, core.FmtPNG)
}

func TestPNGParametersRendered(t *testing.T) {
	c := qt.New(t)

	m := extract(fixture.PNG(fixture.TEXt("parameters", "steps: 20")))
	sections := core.NewRenderer(nil, false).RenderAll(m.Records)
	c.Assert(sections, qt.HasLen, 1)
	c.Assert(sections[0].Label, qt.Equals, "Stable Diffusion (A1111)")
	c.Assert(sections[0].Value, qt.Equals, "steps: 20")
}

func TestPNGTextEncoding(t *testing.T) {
	c := qt.New(t)
	data := fixture.PNG(
		fixture.PNGChunk("tEXt", []byte("bad\xffkey\x00value")),
		fixture.PNGChunk("tEXt", []byte("prompt\x00caf\xe9")),
		fixture.PNGChunk("tEXt", []byte("no separator")),
		fixture.TEXt("workflow", ""),
	)

	m := extract(data)
	c.Assert(m.Records, qt.DeepEquals, []core.TextRecord{
		{Keyword: "prompt", Value: "", Source: core.SourceText},
		{Keyword: "workflow", Value: "", Source: core.SourceText},
	})
}

func TestPNGCompressedText(t *testing.T) {
	c := qt.New(t)
	data := fixture.PNG(
		fixture.ITXt("prompt", `{"3":{"class_type":"KSampler"}}`, true),
		fixture.ITXt("workflow", "日本語", false),
		fixture.ZTXt("Description", []byte("caf\xe9")),
		fixture.ZTXt("parameters", []byte("utf-8 ✓")),
	)

	m := extract(data)
	c.Assert(m.Records, qt.DeepEquals, []core.TextRecord{
		{Keyword: "prompt", Value: `{"3":{"class_type":"KSampler"}}`, Source: core.SourceIText},
		{Keyword: "workflow", Value: "日本語", Source: core.SourceIText},
		{Keyword: "Description", Value: "café", Source: core.SourceZText},
		{Keyword: "parameters", Value: "utf-8 ✓", Source: core.SourceZText},
	})
}

func TestPNGCompressedTextLimits(t *testing.T) {
	c := qt.New(t)
	opts := DefaultOptions()
	opts.MaxInflate = 4
	data := fixture.PNG(
		fixture.ZTXt("parameters", []byte("longer than four")),
		fixture.PNGChunk("zTXt", []byte("prompt\x00\x00not zlib")),
		fixture.PNGChunk("zTXt", []byte("prompt\x00\x01")),
		fixture.PNGChunk("iTXt", []byte("prompt\x00\x01\x00en\x00")),
		fixture.ITXt("ok", "tiny", true),
	)

	m := New(nil, opts).Extract("test", data)
	c.Assert(m.Keywords(), qt.DeepEquals, []string{"ok"})
}

func TestPNGEXIfChunk(t *testing.T) {
	c := qt.New(t)
	tiff := fixture.UserCommentTIFF(binary.BigEndian, fixture.Comment("ASCII", []byte("from eXIf")))
	data := fixture.PNG(fixture.TEXt("parameters", "p"), fixture.PNGChunk("eXIf", tiff))

	m := extract(data)
	c.Assert(m.Records, qt.DeepEquals, []core.TextRecord{
		{Keyword: "parameters", Value: "p", Source: core.SourceText},
		{Keyword: "UserComment", Value: "from eXIf", Source: core.SourceEXIF},
	})
}

func TestPNGTruncated(t *testing.T) {
	full := fixture.PNG(fixture.TEXt("parameters", "steps: 20"), fixture.TEXt("prompt", "{}"))

	tests := map[string]struct {
		data []byte
		want []string
	}{
		"signature only":     {full[:8], nil},
		"cut in second text": {full[:len(full)-20], []string{"parameters"}},
		"cut before crc":     {full[:8+25+8+len("parameters\x00steps: 20")], nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			m := extract(tt.data)
			c.Assert(m.Format, qt.Equals, core.FmtPNG)
			c.Assert(m.Keywords(), qt.DeepEquals, emptyIfNil(tt.want))
		})
	}
}

func TestPNGOverrunningLength(t *testing.T) {
	c := qt.New(t)
	chunk := fixture.TEXt("parameters", "steps: 20")
	binary.BigEndian.PutUint32(chunk, 0xFFFFFFF0)
	data := fixture.PNG(fixture.TEXt("prompt", "first"), chunk, fixture.TEXt("Comment", "after"))

	m := extract(data)
	c.Assert(m.Keywords(), qt.DeepEquals, []string{"prompt"})
}

func TestWalkPNGChunks(t *testing.T) {
	c := qt.New(t)
	data := fixture.PNG(fixture.PNGChunk("tEXt", []byte("a\x00b")))

	var types []string
	walkPNGChunks(data, func(ch pngChunk) { types = append(types, ch.typ) })
	c.Assert(types, qt.DeepEquals, []string{"IHDR", "tEXt", "IEND"})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func TestInflateLimit(t *testing.T) {
	c := qt.New(t)

	out, err := inflate(fixture.Deflate([]byte("12345")), 5)
	c.Assert(err, qt.IsNil)
	c.Assert(string(out), qt.Equals, "12345")

	_, err = inflate(fixture.Deflate([]byte("123456")), 5)
	c.Assert(errors.Is(err, errInflateLimit), qt.IsTrue)

	_, err = inflate([]byte("plain"), 5)
	c.Assert(err, qt.ErrorMatches, "failed to open zlib stream: .*")
}
