package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/dslipak/pdf"
	readability "github.com/go-shiori/go-readability"
	"github.com/lu4p/cat"
)

type DocType string

const (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	TEXT DocType = "TEXT"
	ERR  DocType = "ERROR"
)

const pageExtractTimeout = 10 * time.Second

var ErrUnsupportedDocument = errors.New("unsupported document type")

var logger = logger_i.NewLogger("ingest")

type rawPage struct {
	Number  int
	Content string
}

func GetDocType(docPath string) DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return PDF
	case ".docx", ".odt", ".rtf":
		return DOCX
	case ".txt", ".md", ".markdown", ".csv", ".json", ".html", ".htm", ".log", "":
		return TEXT
	default:
		return ERR
	}
}

// ExtractDocument returns the plain text of an uploaded file.
func ExtractDocument(path string) (string, error) {
	docType := GetDocType(path)
	logger.Debug("extracting document", "path", path, "type", docType)

	switch docType {
	case PDF:
		pages, err := extractPDF(path)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(pages))
		for _, p := range pages {
			parts = append(parts, p.Content)
		}
		return strings.Join(parts, "\n\n"), nil
	case DOCX:
		text, err := cat.File(path)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
		}
		return text, nil
	case TEXT:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, filepath.Ext(path))
	}
}

// ExtractFromURL downloads a page and keeps its readable article text.
func ExtractFromURL(url string) (title string, text string, err error) {
	article, err := readability.FromURL(url, config.URLFetchTimeout)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch URL content: %w", err)
	}
	text = strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", "", fmt.Errorf("no readable content at %s", url)
	}
	return article.Title, text, nil
}

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "path", path)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going, one bad page should not lose the document
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, rawPage{Number: i, Content: content})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}
	return pages, nil
}

// some malformed pdfs make GetPlainText spin, so every page gets a deadline
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errors.New("page extraction timeout")
	}
}
