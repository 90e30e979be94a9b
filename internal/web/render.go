package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/media"
	"document-qa/internal/models"
	"document-qa/internal/parser"
	"document-qa/internal/pdfmerge"
	"document-qa/internal/rag"
	"document-qa/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	errNoUpload      = errors.New("please upload a file")
	errEmptyQuestion = errors.New("please enter a question")
	errBadForm       = errors.New("invalid form input")
)

// page is the view model shared by every template.
type page struct {
	Title      string
	Fatal      string
	Error      string
	State      string
	Files      []string
	Question   string
	Answer     template.HTML
	Config     models.LLMConfig
	Models     []string
	Kinds      []kindOption
	Kind       string
	Pages      int
	MergedPath string
	Preview    template.URL
	Limits     limits
}

type kindOption struct {
	Value    string
	Label    string
	Selected bool
}

type limits struct {
	MinTemperature, MaxTemperature, StepTemperature float64
	MinTopP, MaxTopP, StepTopP                      float64
	MinTokens, MaxTokens, StepTokens                int
}

var sliderLimits = limits{
	MinTemperature: models.MinTemperature, MaxTemperature: models.MaxTemperature, StepTemperature: 0.25,
	MinTopP: models.MinTopP, MaxTopP: models.MaxTopP, StepTopP: 0.01,
	MinTokens: models.MinMaxTokens, MaxTokens: models.MaxMaxTokens, StepTokens: 100,
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
}

// renderMarkdown converts an LLM answer to HTML. Raw HTML in the answer
// is not passed through.
func (s *Server) renderMarkdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		log.Error().Err(err).Msg("Error rendering markdown")
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

// statusFor maps a flow error to the HTTP status of the re-rendered page.
func statusFor(err error) int {
	var (
		pe     *llmservice.ProviderError
		tooBig *http.MaxBytesError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, config.ErrMissingOpenAIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &pe):
		return http.StatusBadGateway
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, media.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrAnswerPending), errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoFiles),
		errors.Is(err, errNoUpload),
		errors.Is(err, errEmptyQuestion),
		errors.Is(err, errBadForm),
		errors.Is(err, rag.ErrEmptyQuestion),
		errors.Is(err, media.ErrEmptyQuestion),
		errors.Is(err, media.ErrUnknownKind),
		errors.Is(err, media.ErrNotPrepared),
		errors.Is(err, models.ErrInvalidLLMConfig),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrInvalidChunkOptions),
		errors.Is(err, pdfmerge.ErrInvalidPDF):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (s *Server) fail(c *gin.Context, tmpl string, p page, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	p.Error = errorMessage(err)
	c.HTML(status, tmpl, p)
}
