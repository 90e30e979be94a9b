package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"slices"

	"document-qa/internal/models"
)

// samplingForm carries the slider values; absent fields keep the
// session's previous choice.
type samplingForm struct {
	Model       string   `form:"model"`
	Temperature *float64 `form:"temperature"`
	TopP        *float64 `form:"top_p"`
	MaxTokens   *int     `form:"max_tokens"`
}

type askForm struct {
	samplingForm
	Question string `form:"question"`
}

type mediaUploadForm struct {
	samplingForm
	Kind string `form:"kind"`
}

// resolve merges the form into base and re-checks the slider ranges.
// A non-empty allowed list restricts the model choice.
func (f samplingForm) resolve(base models.LLMConfig, allowed []string) (models.LLMConfig, error) {
	cfg := base
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.Temperature != nil {
		cfg.Temperature = *f.Temperature
	}
	if f.TopP != nil {
		cfg.TopP = *f.TopP
	}
	if f.MaxTokens != nil {
		cfg.MaxTokens = *f.MaxTokens
	}
	if len(allowed) > 0 && !slices.Contains(allowed, cfg.Model) {
		return base, fmt.Errorf("%w: unknown model %q", models.ErrInvalidLLMConfig, cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func readUpload(fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return models.Upload{Name: fh.Filename, Data: data}, nil
}

func readUploads(files []*multipart.FileHeader) ([]models.Upload, error) {
	uploads := make([]models.Upload, 0, len(files))
	for _, fh := range files {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}
