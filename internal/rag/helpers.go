package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/notex/internal/domain/notebookModel"
)

const imageLanguageNote = "Note: write every piece of text in the image in the same language as the content above."

// buildSourceContext concatenates the sources in order, each under its own header.
// Content longer than limit runes is cut and marked with its full length.
func buildSourceContext(sources []notebookModel.Source, limit int) string {
	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "\n## Source %d: %s\n", i+1, src.Name)

		n := utf8.RuneCountInString(src.Content)
		if n <= limit {
			b.WriteString(src.Content)
		} else {
			b.WriteString(string([]rune(src.Content)[:limit]))
			fmt.Fprintf(&b, "\n... [Content truncated, total length: %d]", n)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildChatContext(docs []notebookModel.Chunk) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant information from the sources:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[Source %d] %s\n", i+1, d.Text)
		if d.SourceName != "" {
			fmt.Fprintf(&b, "Source: %s\n\n", d.SourceName)
		}
	}
	return b.String()
}

// buildHistory renders at most the last window messages. Older ones are ignored.
func buildHistory(history []notebookModel.ChatMessage, window int) string {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	var b strings.Builder
	for _, msg := range history {
		role := "Assistant"
		if msg.Role == notebookModel.RoleUser {
			role = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	return b.String()
}

func summarizeSources(sources []notebookModel.Source) []notebookModel.SourceSummary {
	out := make([]notebookModel.SourceSummary, 0, len(sources))
	for _, src := range sources {
		out = append(out, notebookModel.SourceSummary{Id: src.Id, Name: src.Name, Type: string(src.Type)})
	}
	return out
}

// dedupeChunkSources keeps the first chunk of each source name.
func dedupeChunkSources(docs []notebookModel.Chunk) []notebookModel.SourceSummary {
	out := []notebookModel.SourceSummary{}
	seen := make(map[string]struct{})
	for _, d := range docs {
		if d.SourceName == "" {
			continue
		}
		if _, ok := seen[d.SourceName]; ok {
			continue
		}
		seen[d.SourceName] = struct{}{}
		out = append(out, notebookModel.SourceSummary{Id: d.SourceName, Name: d.SourceName, Type: string(notebookModel.SourceTypeFile)})
	}
	return out
}
