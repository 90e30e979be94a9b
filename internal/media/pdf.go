package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/pdfmerge"
)

const pdfMIMEType = "application/pdf"

// PDFHandler merges all uploaded PDFs into one document and sends it
// inline alongside the question.
type PDFHandler struct {
	merger     *pdfmerge.Merger
	generator  llmservice.Generator
	outputName string
}

func NewPDFHandler(generator llmservice.Generator, outputName string) *PDFHandler {
	if outputName == "" {
		outputName = models.MergedPDFName
	}
	return &PDFHandler{
		merger:     pdfmerge.NewMerger(),
		generator:  generator,
		outputName: outputName,
	}
}

func (h *PDFHandler) Kind() Kind { return KindPDF }

func (h *PDFHandler) Prepare(ctx context.Context, workDir string, uploads []models.Upload) (*Prepared, error) {
	var out string
	if workDir != "" {
		out = filepath.Join(workDir, h.outputName)
	}
	res, err := h.merger.Merge(ctx, uploads, out)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.Name
	}
	return &Prepared{
		Kind:   KindPDF,
		Files:  names,
		Path:   res.Path,
		Data:   res.Data,
		Base64: base64.StdEncoding.EncodeToString(res.Data),
		Pages:  res.Pages,
	}, nil
}

func (h *PDFHandler) Ask(ctx context.Context, p *Prepared, question string, cfg models.LLMConfig) (string, error) {
	if p == nil || p.Kind != KindPDF {
		return "", ErrNotPrepared
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	log.Debug().Str("model", cfg.Model).Int("pages", p.Pages).Int("bytes", len(p.Data)).Msg("Asking about merged PDF")
	return h.generator.Generate(ctx, llmservice.Request{
		Prompt: fmt.Sprintf(models.AnalyzePDFPromptTemplate, question),
		Config: cfg,
		Attachments: []llmservice.Attachment{
			{MIMEType: pdfMIMEType, Data: p.Data},
		},
	})
}
