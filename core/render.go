package core

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Policy selects how a record value is formatted.
type Policy int

const (
	// Verbatim prints the value unchanged.
	Verbatim Policy = iota
	// JSONOrVerbatim pretty-prints values that parse as JSON and prints
	// everything else unchanged.
	JSONOrVerbatim
)

// Rule maps a keyword to its section label and formatting policy.
type Rule struct {
	Label  string
	Policy Policy
}

// EXIFLabel is the fixed label for EXIF UserComment records.
const EXIFLabel = "EXIF UserComment"

// defaultRules are the keywords written by the common generators.
var defaultRules = map[string]Rule{
	"Description":     {Label: "NovelAI [Prompt]", Policy: Verbatim},
	"Comment":         {Label: "NovelAI [Settings]", Policy: JSONOrVerbatim},
	"parameters":      {Label: "Stable Diffusion (A1111)", Policy: Verbatim},
	"generation_data": {Label: "ComfyUI [Generation Data]", Policy: JSONOrVerbatim},
	"prompt":          {Label: "prompt", Policy: Verbatim},
	"workflow":        {Label: "workflow", Policy: Verbatim},
}

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// Section is a rendered record ready for output.
type Section struct {
	Label   string
	Keyword string
	Source  string
	Value   string
}

// Renderer turns records into labelled sections. The zero value is not
// usable; call NewRenderer.
type Renderer struct {
	rules     map[string]Rule
	knownOnly bool
}

// NewRenderer returns a renderer using the default keyword table extended
// (or overridden) by extra. When knownOnly is set, records whose keyword has
// no rule are dropped; EXIF records are always kept.
func NewRenderer(extra map[string]Rule, knownOnly bool) *Renderer {
	rules := make(map[string]Rule, len(defaultRules)+len(extra))
	for k, v := range defaultRules {
		rules[k] = v
	}
	for k, v := range extra {
		if v.Label == "" {
			v.Label = k
		}
		rules[k] = v
	}
	return &Renderer{rules: rules, knownOnly: knownOnly}
}

// Known reports whether keyword has a rule.
func (r *Renderer) Known(keyword string) bool {
	_, ok := r.rules[keyword]
	return ok
}

// Render formats one record. ok is false when the record is filtered out.
func (r *Renderer) Render(rec TextRecord) (s Section, ok bool) {
	s = Section{Keyword: rec.Keyword, Source: rec.Source}
	if rec.Source == SourceEXIF {
		s.Label = EXIFLabel
		s.Value = rec.Value
		return s, true
	}

	rule, known := r.rules[rec.Keyword]
	if !known {
		if r.knownOnly {
			return s, false
		}
		rule = Rule{Label: rec.Keyword, Policy: Verbatim}
	}
	s.Label = rule.Label
	s.Value = formatValue(rec.Value, rule.Policy)
	return s, true
}

// RenderAll formats records in order, skipping filtered ones.
func (r *Renderer) RenderAll(recs []TextRecord) []Section {
	out := make([]Section, 0, len(recs))
	for _, rec := range recs {
		if s, ok := r.Render(rec); ok {
			out = append(out, s)
		}
	}
	return out
}

func formatValue(v string, p Policy) string {
	if p != JSONOrVerbatim || !gjson.Valid(v) {
		return v
	}
	return strings.TrimRight(string(pretty.PrettyOptions([]byte(v), prettyOptions)), "\n")
}
