package slides

import (
	"regexp"
	"strings"
)

const (
	styleStart = "<STYLE_INSTRUCTIONS>"
	styleEnd   = "</STYLE_INSTRUCTIONS>"
)

// a slide heading: optional markdown hashes, a slide word, then its number
var headingPattern = regexp.MustCompile(`(?m)^(?:\s*#{1,6}\s*)?(?:Slide|幻灯片|第\d+张幻灯片|##)\s*\d+[:\s]*.*$`)

var requiredFields = []string{"叙事目标", "narrative goal", "关键内容"}

var inlineMarkers = []string{"// 叙事目标", "// NARRATIVE GOAL"}

type Slide struct {
	Style   string `json:"style"`
	Content string `json:"content"`
}

// Span is a half-open byte range [Start, End) of the parsed text.
type Span struct {
	Start int
	End   int
}

type BoundaryFinder interface {
	FindSlideBoundaries(text string) []Span
}

type RegexBoundaryFinder struct {
	Pattern *regexp.Regexp
}

// FindSlideBoundaries returns one span per heading, each running to the next heading.
func (f RegexBoundaryFinder) FindSlideBoundaries(text string) []Span {
	pattern := f.Pattern
	if pattern == nil {
		pattern = headingPattern
	}
	locs := pattern.FindAllStringIndex(text, -1)
	spans := make([]Span, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		spans[i] = Span{Start: loc[0], End: end}
	}
	return spans
}

type Parser struct {
	finder BoundaryFinder
}

func NewParser(finder BoundaryFinder) *Parser {
	if finder == nil {
		finder = RegexBoundaryFinder{}
	}
	return &Parser{finder: finder}
}

// Parse uses the default regex boundaries.
func Parse(content string) []Slide {
	return NewParser(nil).Parse(content)
}

// Parse never returns an empty slice. Headed slides are tried first, then the
// inline narrative marker, then the whole content as one slide.
func (p *Parser) Parse(content string) []Slide {
	style := extractStyle(content)

	var out []Slide
	for _, span := range p.finder.FindSlideBoundaries(content) {
		text := content[span.Start:span.End]
		if hasRequiredField(text) {
			out = append(out, Slide{Style: style, Content: text})
		}
	}
	if len(out) > 0 {
		return out
	}

	if marker, ok := findMarker(content); ok {
		parts := strings.Split(content, marker)
		for _, part := range parts[1:] {
			out = append(out, Slide{Style: style, Content: marker + part})
		}
		return out
	}

	return []Slide{{Style: style, Content: content}}
}

func extractStyle(content string) string {
	start := strings.Index(content, styleStart)
	end := strings.Index(content, styleEnd)
	if start == -1 || end <= start {
		return ""
	}
	return content[start+len(styleStart) : end]
}

func hasRequiredField(text string) bool {
	lower := strings.ToLower(text)
	for _, f := range requiredFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

func findMarker(content string) (string, bool) {
	for _, m := range inlineMarkers {
		if strings.Contains(content, m) {
			return m, true
		}
	}
	return "", false
}
