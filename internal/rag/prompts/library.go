package prompts

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownType = errors.New("unknown transformation type")

// Library holds every template the generation layer formats.
type Library struct {
	transformations map[string]string
	chat            string
	insightReport   string
	insightSimple   string
}

// overrides is the layout of the optional YAML prompts file. Empty fields keep the defaults.
type overrides struct {
	Chat            string            `yaml:"chat"`
	InsightReport   string            `yaml:"insight_report"`
	InsightSimple   string            `yaml:"insight_simple"`
	Transformations map[string]string `yaml:"transformations"`
}

func Default() *Library {
	return &Library{
		transformations: maps.Clone(defaultTransformations),
		chat:            defaultChat,
		insightReport:   defaultInsightReport,
		insightSimple:   defaultInsightSimple,
	}
}

// Load returns the defaults with any templates from path layered on top.
// An empty path is not an error.
func Load(path string) (*Library, error) {
	lib := Default()
	if path == "" {
		return lib, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	var o overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing prompts file %s: %w", path, err)
	}
	lib.apply(o)
	return lib, nil
}

func (l *Library) apply(o overrides) {
	if o.Chat != "" {
		l.chat = o.Chat
	}
	if o.InsightReport != "" {
		l.insightReport = o.InsightReport
	}
	if o.InsightSimple != "" {
		l.insightSimple = o.InsightSimple
	}
	for name, tmpl := range o.Transformations {
		if strings.TrimSpace(tmpl) != "" {
			l.transformations[name] = tmpl
		}
	}
}

// Types lists the known transformation types in sorted order.
func (l *Library) Types() []string {
	return slices.Sorted(maps.Keys(l.transformations))
}

func (l *Library) Has(t string) bool {
	_, ok := l.transformations[t]
	return ok
}

// Transformation formats the template for t. Unknown types fail with ErrUnknownType.
func (l *Library) Transformation(t, sources, length, format, prompt string) (string, error) {
	tmpl, ok := l.transformations[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return strings.NewReplacer(
		"{sources}", sources,
		"{type}", t,
		"{length}", length,
		"{format}", format,
		"{prompt}", prompt,
	).Replace(tmpl), nil
}

func (l *Library) Chat(history, context, question string) string {
	return strings.NewReplacer(
		"{history}", history,
		"{context}", context,
		"{question}", question,
	).Replace(l.chat)
}

// InsightReport asks for the five-section analysis used when the insight tool is missing.
func (l *Library) InsightReport(summary string) string {
	return strings.ReplaceAll(l.insightReport, "{summary}", summary)
}

func (l *Library) InsightSimple(summary string) string {
	return strings.ReplaceAll(l.insightSimple, "{summary}", summary)
}

// Title is the note title for a transformation type.
func Title(t string) string {
	if title, ok := titles[t]; ok {
		return title
	}
	return "Note"
}
