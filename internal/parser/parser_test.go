package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/models"
	"document-qa/internal/testutil"
)

func TestExtractText_PDF(t *testing.T) {
	data := testutil.BuildPDF("First page", "Second page")
	text, err := ExtractText(models.Upload{Name: "doc.pdf", Data: data})
	require.NoError(t, err)
	require.Contains(t, text, "First page")
	require.Contains(t, text, "Second page")
	require.Less(t, indexOf(text, "First"), indexOf(text, "Second"))
}

func TestExtractText_PDFWithoutExtension(t *testing.T) {
	data := testutil.BuildPDF("Sniffed")
	require.True(t, IsPDF(data))
	require.False(t, IsPDF([]byte("PK\x03\x04")))
	text, err := ExtractText(models.Upload{Name: "upload", Data: data})
	require.NoError(t, err)
	require.Contains(t, text, "Sniffed")
}

func TestExtractText_PlainText(t *testing.T) {
	text, err := ExtractText(models.Upload{Name: "notes.TXT", Data: []byte("hello\nworld")})
	require.NoError(t, err)
	require.Equal(t, "hello\nworld", text)
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText(models.Upload{Name: "song.mp3", Data: []byte("ID3")})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText(models.Upload{Name: "broken.pdf", Data: []byte("%PDF-1.4 garbage")})
	require.Error(t, err)
}

func TestPageTexts(t *testing.T) {
	pages, err := PageTexts(testutil.BuildPDF("one", "two", "three"))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Contains(t, pages[2], "three")
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">A &amp; B</w:t></w:r></w:p>`
	require.Equal(t, "Hello A & B", extractTextFromXML(xml, "w:t"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
