// Package extract pulls plain text out of uploaded files.
//
// Extraction never fails the upload: a DOCX or PDF that cannot be decoded
// falls back to reading the file as UTF-8, and unreadable files yield "".
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// MIME types with dedicated handling.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPDF  = "application/pdf"
	MIMEHTML = "text/html"
)

// Extractor reads files from disk and returns their text.
type Extractor struct {
	logger *zap.Logger
}

// New creates an extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// File extracts text from the file at path. mimeType may be empty; the file
// extension is consulted as well.
func (e *Extractor) File(path, mimeType string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("Failed to read upload", zap.String("path", path), zap.Error(err))
		return ""
	}
	return e.Bytes(data, filepath.Base(path), mimeType)
}

// Bytes extracts text from in-memory content.
func (e *Extractor) Bytes(data []byte, name, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case mimeType == MIMEDocx || ext == ".docx":
		text, err := docxText(data)
		if err == nil {
			return text
		}
		e.logger.Warn("Failed to parse DOCX, reading as text", zap.String("name", name), zap.Error(err))
	case strings.HasPrefix(mimeType, MIMEHTML) || ext == ".html" || ext == ".htm":
		return stripHTML(string(data))
	case mimeType == MIMEPDF || ext == ".pdf":
		text, err := pdfText(data)
		if err == nil {
			return text
		}
		e.logger.Warn("Failed to parse PDF, reading as text", zap.String("name", name), zap.Error(err))
	}

	return strings.ToValidUTF8(string(data), "�")
}

type docxBody struct {
	Paragraphs []struct {
		Runs []struct {
			Text []struct {
				Content string `xml:",chardata"`
			} `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

// docxText joins the text runs of word/document.xml, one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var body docxBody
		if err := xml.Unmarshal(raw, &body); err != nil {
			return "", err
		}
		lines := make([]string, len(body.Paragraphs))
		for i, p := range body.Paragraphs {
			var b strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
			lines[i] = b.String()
		}
		return strings.TrimSpace(strings.Join(lines, "\n")), nil
	}
	return "", nil
}

// pdfText concatenates the plain text of every page. Image-only PDFs yield "".
func pdfText(data []byte) (text string, err error) {
	// The decoder panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), "�")), nil
}

var (
	invisibleBlocks = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComments    = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBoundaries = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	anyTag          = regexp.MustCompile(`<[^>]+>`)
	runsOfSpaces    = regexp.MustCompile(`[ \t]+`)
)

// stripHTML drops markup and keeps one line per block element.
func stripHTML(s string) string {
	s = invisibleBlocks.ReplaceAllString(s, "")
	s = htmlComments.ReplaceAllString(s, "")
	s = blockBoundaries.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = runsOfSpaces.ReplaceAllString(s, " ")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
