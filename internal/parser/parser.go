package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"document-qa/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

var pdfMagic = []byte("%PDF-")

// ExtractText returns the plain text of an uploaded document. The format
// is picked from the file extension, falling back to the PDF header.
func ExtractText(upload models.Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Name))
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = parsePDF(upload.Data)
	case ".docx":
		text, err = parseDOCX(upload.Data)
	case ".pptx":
		text, err = parsePPTX(upload.Data)
	case ".xlsx":
		text, err = parseXLSX(upload.Data)
	case ".xlsm", ".xltx", ".xltm":
		text, err = parseWorkbook(upload.Data)
	case ".txt", ".md":
		text = string(upload.Data)
	default:
		if !IsPDF(upload.Data) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, upload.Name)
		}
		text, err = parsePDF(upload.Data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", upload.Name, err)
	}
	log.Debug().Str("file", upload.Name).Int("chars", len(text)).Msg("Extracted text")
	return text, nil
}

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

func parsePDF(data []byte) (string, error) {
	pages, err := PageTexts(data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// PageTexts returns the plain text of every page, in page order.
func PageTexts(data []byte) (pages []string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func parseDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document.xml
	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range strings.Split(content, "</w:p>") {
		text := strings.TrimSpace(extractTextFromXML(p, "w:t"))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func parsePPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var slides []*zip.File
	for _, file := range zr.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var texts []string
	for _, file := range slides {
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(extractTextFromXML(string(body), "a:t"))
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n"), nil
}

func slideNumber(name string) int {
	var n int
	fmt.Sscanf(strings.TrimPrefix(name, "ppt/slides/slide"), "%d.xml", &n)
	return n
}

func parseXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString(strings.Join(cells, "\t"))
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

// parseWorkbook handles macro-enabled and template workbooks.
func parseWorkbook(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

// extractTextFromXML concatenates the character data of every <tag>
// element, separated by spaces.
func extractTextFromXML(xmlContent, tag string) string {
	open, end := "<"+tag, "</"+tag+">"
	var parts []string
	for _, part := range strings.Split(xmlContent, open)[1:] {
		// skip look-alike tags such as <w:tab/> or <w:tbl>
		gt := strings.Index(part, ">")
		if gt < 0 || (part[0] != '>' && part[0] != ' ') || strings.HasSuffix(part[:gt], "/") {
			continue
		}
		body := part[gt+1:]
		if idx := strings.Index(body, end); idx >= 0 {
			parts = append(parts, body[:idx])
		}
	}
	return unescapeXML(strings.Join(parts, " "))
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
