package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON     bool
	Renderer *Renderer
	Out      io.Writer
	Err      io.Writer
}

// NewPrinter creates a Printer writing sections to stdout and diagnostics
// to stderr.
func NewPrinter(jsonMode bool, r *Renderer) *Printer {
	if r == nil {
		r = NewRenderer(nil, false)
	}
	return &Printer{JSON: jsonMode, Renderer: r, Out: os.Stdout, Err: os.Stderr}
}

// PrintMetadata renders a Metadata struct to the configured output.
// Unsupported files produce a single diagnostic line and nothing on Out.
func (p *Printer) PrintMetadata(m *Metadata) error {
	if !m.Supported() {
		p.PrintUnsupported(m.FilePath)
		return nil
	}
	sections := p.Renderer.RenderAll(m.Records)
	if p.JSON {
		return p.printJSON(m, sections)
	}
	return p.printText(m, sections)
}

func (p *Printer) printText(m *Metadata, sections []Section) error {
	if _, err := fmt.Fprintf(p.Out, "=== %s File: %s ===\n", m.Format.Name(), m.FilePath); err != nil {
		return err
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(p.Out, "--- %s ---\n%s\n", s.Label, s.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printJSON(m *Metadata, sections []Section) error {
	type jsonSection struct {
		Label   string `json:"label"`
		Keyword string `json:"keyword"`
		Source  string `json:"source"`
		Value   string `json:"value"`
	}
	type jsonOutput struct {
		FilePath string        `json:"file"`
		Format   string        `json:"format"`
		Sections []jsonSection `json:"sections"`
	}

	out := jsonOutput{
		FilePath: m.FilePath,
		Format:   m.Format.Name(),
		Sections: []jsonSection{},
	}
	for _, s := range sections {
		out.Sections = append(out.Sections, jsonSection{
			Label:   s.Label,
			Keyword: s.Keyword,
			Source:  s.Source,
			Value:   s.Value,
		})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(b))
	return err
}

// PrintUnsupported writes the unsupported-format diagnostic.
func (p *Printer) PrintUnsupported(path string) {
	fmt.Fprintf(p.Err, "Unsupported file format: %s\n", path)
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "Error: "+msg)
}
