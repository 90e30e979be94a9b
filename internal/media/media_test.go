package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/models"
	"document-qa/internal/parser"
	"document-qa/internal/testutil"
)

func TestKinds(t *testing.T) {
	require.Equal(t, []Kind{KindPDF, KindImage, KindVideo, KindAudio}, Kinds())
	require.Equal(t, "PDF files", KindPDF.Label())
	require.Equal(t, "Video, mp4 file", KindVideo.Label())

	k, err := ParseKind("audio")
	require.NoError(t, err)
	require.Equal(t, KindAudio, k)

	_, err = ParseKind("spreadsheet")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestPlaceholdersNotSupported(t *testing.T) {
	gen := &testutil.FakeGenerator{Reply: "unused"}
	reg := DefaultRegistry(gen, "")
	for _, kind := range []Kind{KindImage, KindVideo, KindAudio} {
		h, err := reg.Lookup(kind)
		require.NoError(t, err)
		require.Equal(t, kind, h.Kind())

		_, err = h.Prepare(context.Background(), t.TempDir(), []models.Upload{{Name: "x", Data: []byte("x")}})
		require.ErrorIs(t, err, ErrNotSupported)
		_, err = h.Ask(context.Background(), &Prepared{Kind: kind}, "what?", models.DefaultLLMConfig("gemini-1.5-flash"))
		require.ErrorIs(t, err, ErrNotSupported)
	}
	require.Empty(t, gen.Requests())

	_, err := reg.Lookup("hologram")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestPDFPrepareAndAsk(t *testing.T) {
	gen := &testutil.FakeGenerator{Reply: "Two topics."}
	h, err := DefaultRegistry(gen, "").Lookup(KindPDF)
	require.NoError(t, err)

	dir := t.TempDir()
	p, err := h.Prepare(context.Background(), dir, []models.Upload{
		{Name: "a.pdf", Data: testutil.BuildPDF("Apples")},
		{Name: "b.pdf", Data: testutil.BuildPDF("Bananas", "Cherries")},
	})
	require.NoError(t, err)
	require.Equal(t, 3, p.Pages)
	require.Equal(t, []string{"a.pdf", "b.pdf"}, p.Files)
	require.Equal(t, filepath.Join(dir, models.MergedPDFName), p.Path)
	require.FileExists(t, p.Path)

	decoded, err := base64.StdEncoding.DecodeString(p.Base64)
	require.NoError(t, err)
	require.Equal(t, p.Data, decoded)

	pages, err := parser.PageTexts(p.Data)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Contains(t, pages[0], "Apples")
	require.Contains(t, pages[2], "Cherries")

	cfg := models.DefaultLLMConfig("gemini-1.5-pro")
	out, err := h.Ask(context.Background(), p, "What is this about?", cfg)
	require.NoError(t, err)
	require.Equal(t, "Two topics.", out)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "Analyze this PDF content and answer the question: What is this about?", reqs[0].Prompt)
	require.Equal(t, cfg, reqs[0].Config)
	require.Len(t, reqs[0].Attachments, 1)
	require.Equal(t, "application/pdf", reqs[0].Attachments[0].MIMEType)
	require.Equal(t, p.Data, reqs[0].Attachments[0].Data)

	require.NoError(t, p.Remove())
	_, err = os.Stat(p.Path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, p.Remove())
}

func TestPDFPrepareInMemory(t *testing.T) {
	h := NewPDFHandler(&testutil.FakeGenerator{}, "")
	p, err := h.Prepare(context.Background(), "", []models.Upload{{Name: "a.pdf", Data: testutil.BuildPDF("A")}})
	require.NoError(t, err)
	require.Empty(t, p.Path)
	require.Equal(t, 1, p.Pages)
}

func TestPDFAskValidation(t *testing.T) {
	gen := &testutil.FakeGenerator{}
	h := NewPDFHandler(gen, "")
	p, err := h.Prepare(context.Background(), "", []models.Upload{{Name: "a.pdf", Data: testutil.BuildPDF("A")}})
	require.NoError(t, err)

	_, err = h.Ask(context.Background(), nil, "q", models.DefaultLLMConfig("m"))
	require.ErrorIs(t, err, ErrNotPrepared)

	_, err = h.Ask(context.Background(), p, " ", models.DefaultLLMConfig("m"))
	require.ErrorIs(t, err, ErrEmptyQuestion)

	cfg := models.DefaultLLMConfig("m")
	cfg.MaxTokens = 50
	_, err = h.Ask(context.Background(), p, "q", cfg)
	require.ErrorIs(t, err, models.ErrInvalidLLMConfig)
	require.Empty(t, gen.Requests())
}

func TestPDFPrepareCorrupt(t *testing.T) {
	dir := t.TempDir()
	h := NewPDFHandler(&testutil.FakeGenerator{}, "out.pdf")
	_, err := h.Prepare(context.Background(), dir, []models.Upload{{Name: "broken.pdf", Data: []byte("not a pdf")}})
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, "out.pdf"))
}
