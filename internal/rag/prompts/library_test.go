package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_KnownTypes(t *testing.T) {
	lib := Default()
	want := []string{"faq", "glossary", "infograph", "insight", "mindmap", "outline", "podcast", "ppt", "quiz", "study_guide", "summary", "timeline"}
	if got := lib.Types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Types() = %v", got)
	}
	for _, typ := range want {
		if Title(typ) == "Note" {
			t.Errorf("type %s has no title", typ)
		}
	}
}

func TestTransformation_Formats(t *testing.T) {
	lib := Default()
	got, err := lib.Transformation("summary", "\n## Source 1: a.txt\nbody\n", "short", "markdown", "focus on costs")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"## Source 1: a.txt", "Length: short", "Output format: markdown", "focus on costs", "Write a summary"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted prompt is missing %q", want)
		}
	}
	if strings.ContainsAny(got, "{}") {
		t.Errorf("unreplaced placeholder left in %q", got)
	}
}

func TestTransformation_SinglePass(t *testing.T) {
	lib := Default()
	got, err := lib.Transformation("outline", "a source that mentions {length} literally", "long", "markdown", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "mentions {length} literally") {
		t.Error("placeholders inside source text must not be substituted")
	}
}

func TestTransformation_UnknownType(t *testing.T) {
	_, err := Default().Transformation("haiku", "", "", "", "")
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestChatAndInsight(t *testing.T) {
	lib := Default()
	chat := lib.Chat("User: hi\n", "[Source 1] text\n", "what is it?")
	if !strings.Contains(chat, "User: hi") || !strings.Contains(chat, "[Source 1] text") || !strings.Contains(chat, "Question: what is it?") {
		t.Errorf("chat prompt = %q", chat)
	}

	report := lib.InsightReport("the summary")
	for _, section := range []string{"Key findings", "Trends", "risks", "Opportunities", "Strategic recommendations", "the summary"} {
		if !strings.Contains(report, section) {
			t.Errorf("insight report prompt missing %q", section)
		}
	}
	if simple := lib.InsightSimple("the summary"); !strings.HasSuffix(simple, "the summary") {
		t.Errorf("simple prompt = %q", simple)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `chat: "CHAT {question}"
transformations:
  summary: "SHORT {type} {sources}"
  haiku: "HAIKU {sources}"
  outline: "   "
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := lib.Chat("", "", "q"); got != "CHAT q" {
		t.Errorf("chat override = %q", got)
	}
	if got, _ := lib.Transformation("summary", "S", "", "", ""); got != "SHORT summary S" {
		t.Errorf("summary override = %q", got)
	}
	if !lib.Has("haiku") {
		t.Error("new type from file should be registered")
	}
	if got, _ := lib.Transformation("outline", "", "", "", ""); !strings.Contains(got, "hierarchical outline") {
		t.Error("blank override should keep the default")
	}
	if Default().Has("haiku") {
		t.Error("overrides leaked into the defaults")
	}
}

func TestLoad_Errors(t *testing.T) {
	if lib, err := Load(""); err != nil || lib == nil {
		t.Fatalf("empty path should give defaults, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("transformations: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("malformed yaml should fail")
	}
}
