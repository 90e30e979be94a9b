// Package media answers questions about uploaded media through Gemini.
// Only PDFs are handled today; the other kinds are explicit placeholders.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"

	"document-qa/internal/models"
)

var (
	ErrNotSupported  = errors.New("not yet supported")
	ErrUnknownKind   = errors.New("unknown media kind")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNotPrepared   = errors.New("no files prepared")
)

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var labels = map[Kind]string{
	KindPDF:   "PDF files",
	KindImage: "Images",
	KindVideo: "Video, mp4 file",
	KindAudio: "Audio files",
}

// Kinds lists every kind in the order it is offered to the user.
func Kinds() []Kind {
	return []Kind{KindPDF, KindImage, KindVideo, KindAudio}
}

func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := labels[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Prepared holds what a handler produced from the uploads of one
// interaction.
type Prepared struct {
	Kind   Kind
	Files  []string
	Path   string
	Data   []byte
	Base64 string
	Pages  int
}

// Remove deletes the on-disk artifact, if any.
func (p *Prepared) Remove() error {
	if p == nil || p.Path == "" {
		return nil
	}
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type Handler interface {
	Kind() Kind
	// Prepare turns the uploads into something Ask can send. Artifacts
	// are written under workDir; an empty workDir keeps them in memory.
	Prepare(ctx context.Context, workDir string, uploads []models.Upload) (*Prepared, error)
	Ask(ctx context.Context, p *Prepared, question string, cfg models.LLMConfig) (string, error)
}
