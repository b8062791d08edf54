package infrastructure

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"talentvibe/domain"
	"talentvibe/logger"
)

// Extractor turns uploaded file bytes into plain text. Stateless;
// dispatch is by filename suffix. Callers must treat blank trimmed output
// as unreadable and never persist it.
type Extractor struct {
	log *logger.Logger
}

func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{log: log.With("component", "Extractor")}
}

func (e *Extractor) ExtractText(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(data)
	case ".docx":
		return e.extractDOCX(data)
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrUnreadable, filename)
		}
		return string(data), nil
	}
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: read PDF: %v", domain.ErrUnreadable, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: page count: %v", domain.ErrUnreadable, err)
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			e.log.Warn("failed to load PDF page", "page", i, "error", err)
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			e.log.Warn("failed to build extractor for PDF page", "page", i, "error", err)
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			e.log.Warn("failed to extract text from PDF page", "page", i, "error", err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text in any PDF page", domain.ErrUnreadable)
	}
	return text, nil
}

func (e *Extractor) extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read DOCX: %v", domain.ErrUnreadable, err)
	}
	defer doc.Close()

	text, err := paragraphText(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("%w: parse DOCX content: %v", domain.ErrUnreadable, err)
	}
	return text, nil
}

// paragraphText walks the WordprocessingML body and emits the text of
// each paragraph followed by a newline.
func paragraphText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		b     strings.Builder
		inRun bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inRun {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
