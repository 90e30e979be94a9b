package pdfmerge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
	"document-qa/internal/models"
)

var ErrInvalidPDF = errors.New("invalid pdf")

func init() {
	// keep pdfcpu from creating its config dir under the user's home
	api.DisableConfigDir()
}

// Result describes a merged document.
type Result struct {
	Path  string
	Data  []byte
	Pages int
}

type Merger struct {
	conf *model.Configuration
}

func NewMerger() *Merger {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Merger{conf: conf}
}

// Merge concatenates every page of every upload, in upload order, and
// writes the result to outputPath. An empty outputPath skips the write.
// Any unreadable input aborts the merge and leaves outputPath untouched.
func (m *Merger) Merge(ctx context.Context, uploads []models.Upload, outputPath string) (*Result, error) {
	var (
		buf   bytes.Buffer
		pages int
	)
	if len(uploads) == 0 {
		writeEmptyPDF(&buf)
	} else {
		readers := make([]io.ReadSeeker, 0, len(uploads))
		for _, upload := range uploads {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			n, err := m.PageCount(upload.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPDF, upload.Name, err)
			}
			pages += n
			readers = append(readers, bytes.NewReader(upload.Data))
		}
		if err := api.MergeRaw(readers, &buf, false, m.newConf()); err != nil {
			return nil, fmt.Errorf("merge pdfs: %w", err)
		}
	}

	res := &Result{Path: outputPath, Data: buf.Bytes(), Pages: pages}
	if outputPath != "" {
		if err := writeAtomic(outputPath, res.Data); err != nil {
			return nil, err
		}
	}
	log.Info().Int("files", len(uploads)).Int("pages", pages).Str("path", outputPath).Msg("Merged PDF")
	return res, nil
}

// PageCount validates data as a PDF and returns its number of pages.
func (m *Merger) PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), m.newConf())
}

// newConf returns a fresh copy since pdfcpu mutates the configuration
// it is handed.
func (m *Merger) newConf() *model.Configuration {
	conf := *m.conf
	return &conf
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so a failed write never leaves a partial file at path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := helper.CreateFolder(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write merged pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write merged pdf: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write merged pdf: %w", err)
	}
	return nil
}
