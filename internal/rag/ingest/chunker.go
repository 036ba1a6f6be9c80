package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/notex/internal/config"
)

// cjkThreshold is the share of CJK ideographs above which text is windowed by character.
const cjkThreshold = 0.3

// Split cuts text into overlapping windows. Mostly-CJK text is windowed over runes,
// everything else over whitespace-delimited words re-joined with single spaces.
func Split(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = config.DefaultChunkOverlap
	}
	step := max(1, chunkSize-overlap)

	if text == "" {
		return []string{}
	}

	if IsCJKDominant(text) {
		runes := []rune(text)
		return windows(len(runes), chunkSize, step, func(start, end int) string {
			return string(runes[start:end])
		})
	}

	words := strings.Fields(text)
	return windows(len(words), chunkSize, step, func(start, end int) string {
		return strings.Join(words[start:end], " ")
	})
}

// IsCJKDominant reports whether more than 30% of the runes are CJK Unified Ideographs.
func IsCJKDominant(text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}
	cjk := 0
	for _, r := range text {
		if r >= '\u4e00' && r <= '\u9fff' {
			cjk++
		}
	}
	return float64(cjk)/float64(total) > cjkThreshold
}

func windows(n, size, step int, cut func(start, end int) string) []string {
	chunks := []string{}
	for i := 0; i < n; i += step {
		end := min(i+size, n)
		chunks = append(chunks, cut(i, end))
		if end >= n {
			break
		}
	}
	return chunks
}
