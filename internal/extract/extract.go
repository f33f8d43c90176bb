// Package extract pulls plain text out of PDF documents and splits it
// into retrieval-sized chunks.
//
// The splitting policy: each page's text is split on blank lines into
// paragraphs, paragraphs are trimmed and empty ones dropped, and any
// paragraph longer than 512 characters is re-split into windows of at
// most 100 words. Chunks come back in document order.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

const (
	// maxParagraphChars is the paragraph length above which word-window
	// splitting kicks in.
	maxParagraphChars = 512

	// windowWords is the maximum word count of a re-split chunk.
	windowWords = 100
)

// Extractor produces ordered text chunks from a document on disk.
type Extractor interface {
	Extract(path string) ([]string, error)
}

// PDFExtractor extracts text from PDF files.
type PDFExtractor struct{}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the PDF at path and returns its chunks in page order.
// A readable PDF with no extractable text returns an empty slice and
// nil error; deciding whether that is fatal belongs to the caller.
func (e *PDFExtractor) Extract(path string) (chunks []string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = aderrors.Wrap(aderrors.ErrCodePDFRead, "cannot parse PDF",
				fmt.Errorf("parser panic: %v", r)).WithDetail("path", path)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, aderrors.Wrap(aderrors.ErrCodePDFRead, "cannot open PDF", err).
			WithDetail("path", path).
			WithSuggestion("check the file exists and is a valid PDF")
	}
	defer f.Close()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, aderrors.Wrap(aderrors.ErrCodePDFRead,
				fmt.Sprintf("cannot extract text from page %d", pageNum), err).
				WithDetail("path", path)
		}

		chunks = append(chunks, chunkText(text)...)
	}

	return chunks, nil
}

// chunkText applies the splitting policy to one page of text.
func chunkText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if len(paragraph) <= maxParagraphChars {
			chunks = append(chunks, paragraph)
			continue
		}

		words := strings.Fields(paragraph)
		for start := 0; start < len(words); start += windowWords {
			end := start + windowWords
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, strings.Join(words[start:end], " "))
		}
	}

	return chunks
}
