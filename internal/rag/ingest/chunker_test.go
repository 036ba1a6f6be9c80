package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestSplit_EmptyText(t *testing.T) {
	if got := Split("", 10, 2); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
	if got := Split("   \n\t ", 10, 2); len(got) != 0 {
		t.Errorf("whitespace only: expected no chunks, got %d", len(got))
	}
}

func TestSplit_ChunkCount(t *testing.T) {
	tests := []struct {
		n, size, overlap int
		want             int
	}{
		{n: 2500, size: 1000, overlap: 200, want: 3},
		{n: 1000, size: 1000, overlap: 200, want: 1},
		{n: 1001, size: 1000, overlap: 200, want: 2},
		{n: 10, size: 3, overlap: 0, want: 4},
		{n: 10, size: 4, overlap: 2, want: 4},
		{n: 5, size: 10, overlap: 3, want: 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d size=%d overlap=%d", tt.n, tt.size, tt.overlap), func(t *testing.T) {
			got := Split(words(tt.n), tt.size, tt.overlap)
			if len(got) != tt.want {
				t.Fatalf("got %d chunks, want %d", len(got), tt.want)
			}
			// ceil((N - overlap) / (size - overlap)) whenever N > size
			if tt.n > tt.size {
				step := tt.size - tt.overlap
				formula := (tt.n - tt.overlap + step - 1) / step
				if formula != tt.want {
					t.Errorf("formula %d disagrees with %d", formula, tt.want)
				}
			}
		})
	}
}

func TestSplit_WordWindowsReconstruct(t *testing.T) {
	const n, size, overlap = 2500, 1000, 200
	text := words(n)
	chunks := Split(text, size, overlap)

	var rebuilt []string
	for i, c := range chunks {
		toks := strings.Fields(c)
		if i > 0 {
			toks = toks[overlap:]
		}
		rebuilt = append(rebuilt, toks...)
	}
	if strings.Join(rebuilt, " ") != text {
		t.Fatal("chunks minus overlap do not rebuild the input")
	}

	wantStarts := []string{"w0", "w800", "w1600"}
	for i, c := range chunks {
		if !strings.HasPrefix(c, wantStarts[i]+" ") {
			t.Errorf("chunk %d starts with %q, want %s", i, c[:10], wantStarts[i])
		}
	}
	if last := strings.Fields(chunks[2]); last[len(last)-1] != "w2499" {
		t.Errorf("last chunk should end at w2499, got %s", last[len(last)-1])
	}
}

func TestSplit_CJKWindowsReconstruct(t *testing.T) {
	text := strings.Repeat("我们今天讨论的是检索增强生成系统", 20)
	runes := []rune(text)
	const size, overlap = 50, 10

	chunks := Split(text, size, overlap)

	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	if b.String() != text {
		t.Fatal("CJK chunks minus overlap do not rebuild the input")
	}
	want := (len(runes) - overlap + (size - overlap) - 1) / (size - overlap)
	if len(chunks) != want {
		t.Errorf("got %d chunks, want %d", len(chunks), want)
	}
}

func TestSplit_ModeSelection(t *testing.T) {
	// both strings are 100 runes long, 40% vs 10% ideographs
	mostlyCJK := strings.Repeat("中", 40) + strings.Repeat("a", 60)
	mostlyLatin := strings.Repeat("中", 10) + strings.Repeat("a", 90)

	if !IsCJKDominant(mostlyCJK) {
		t.Error("40% CJK should be CJK dominant")
	}
	if IsCJKDominant(mostlyLatin) {
		t.Error("10% CJK should not be CJK dominant")
	}

	// no whitespace: word mode yields a single token, character mode yields windows
	if got := Split(mostlyCJK, 30, 0); len(got) != 4 {
		t.Errorf("CJK mode: got %d chunks, want 4", len(got))
	}
	if got := Split(mostlyLatin, 30, 0); len(got) != 1 {
		t.Errorf("word mode: got %d chunks, want 1", len(got))
	}
}

func TestSplit_DegenerateParameters(t *testing.T) {
	text := words(50)

	if got := Split(text, 0, -1); len(got) != 1 {
		t.Errorf("defaults should fit 50 words in one chunk, got %d", len(got))
	}

	// overlap >= size must not loop forever, step is clamped to 1
	got := Split(words(5), 3, 3)
	if len(got) != 3 {
		t.Fatalf("clamped step: got %d chunks, want 3", len(got))
	}
	if got[0] != "w0 w1 w2" || got[2] != "w2 w3 w4" {
		t.Errorf("unexpected windows %q", got)
	}
}

func TestSplit_WhitespaceNormalised(t *testing.T) {
	got := Split("alpha\n\nbeta\tgamma   delta", 2, 0)
	if len(got) != 2 || got[0] != "alpha beta" || got[1] != "gamma delta" {
		t.Errorf("got %q", got)
	}
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected DocType
	}{
		{"test.pdf", PDF},
		{"DOC.DOCX", DOCX},
		{"notes.txt", TEXT},
		{"readme.md", TEXT},
		{"image.png", ERR},
	}
	for _, tt := range tests {
		if got := GetDocType(tt.path); got != tt.expected {
			t.Errorf("GetDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestExtractDocument_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Title\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ExtractDocument(path)
	if err != nil {
		t.Fatalf("ExtractDocument: %v", err)
	}
	if got != "# Title\nbody" {
		t.Errorf("got %q", got)
	}
}

func TestExtractDocument_Unsupported(t *testing.T) {
	_, err := ExtractDocument("picture.png")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported error, got %v", err)
	}
}
