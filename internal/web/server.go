// Package web serves the form UI for both question-answering flows.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/media"
	"document-qa/internal/rag"
	"document-qa/internal/session"
)

const (
	pdfCookie   = "pdf_session"
	mediaCookie = "media_session"
)

// Deps are the flow implementations the server dispatches to. QA is nil
// when the PDF flow cannot run; QAErr then holds the reason.
type Deps struct {
	QA       *rag.PDFQA
	QAErr    error
	Registry *media.Registry
}

type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	qa       *rag.PDFQA
	qaErr    error
	registry *media.Registry
	md       goldmark.Markdown

	pdfSessions   *session.Store[*rag.KnowledgeBase]
	mediaSessions *session.Store[*media.Prepared]
	cookieMaxAge  int

	closers []func() error
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	ttl, err := time.ParseDuration(cfg.Server.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("server: invalid session_ttl %q: %w", cfg.Server.SessionTTL, err)
	}
	if deps.QA == nil && deps.QAErr == nil {
		deps.QAErr = config.ErrMissingOpenAIKey
	}

	s := &Server{
		cfg:           cfg,
		qa:            deps.QA,
		qaErr:         deps.QAErr,
		registry:      deps.Registry,
		md:            newMarkdown(),
		pdfSessions:   session.NewStore[*rag.KnowledgeBase](cfg.Server.MaxSessions, ttl, cfg.OpenAISampling(), nil),
		mediaSessions: session.NewStore(cfg.Server.MaxSessions, ttl, cfg.GeminiSampling(), releasePrepared),
		cookieMaxAge:  int(ttl.Seconds()),
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.router = s.newRouter(tmpl)
	return s, nil
}

// NewFromConfig builds the real OpenAI and Gemini collaborators. A missing
// OpenAI key is not fatal: the PDF flow shows the message instead.
func NewFromConfig(cfg *config.Config) (*Server, error) {
	qa, err := rag.NewFromConfig(cfg)
	if err != nil {
		if !errors.Is(err, config.ErrMissingOpenAIKey) {
			return nil, err
		}
		log.Warn().Msg(err.Error())
	}
	gemini := llmservice.NewGeminiGenerator(cfg.GoogleAPIKey)
	s, err := New(cfg, Deps{
		QA:       qa,
		QAErr:    err,
		Registry: media.DefaultRegistry(gemini, cfg.Merge.OutputName),
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, gemini.Close)
	return s, nil
}

func (s *Server) newRouter(tmpl *template.Template) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), limitBody(s.cfg.Server.MaxUploadMB<<20))
	r.MaxMultipartMemory = s.cfg.Server.MaxUploadMB << 20
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	pdf := r.Group("/pdf")
	pdf.GET("", s.pdfPage)
	pdf.POST("/upload", s.pdfUpload)
	pdf.POST("/ask", s.pdfAsk)
	pdf.POST("/reset", s.pdfReset)

	m := r.Group("/media")
	m.GET("", s.mediaPage)
	m.POST("/upload", s.mediaUpload)
	m.POST("/ask", s.mediaAsk)
	m.POST("/reset", s.mediaReset)
	m.GET("/merged", s.mediaMerged)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close drops every session, removing merged files from disk.
func (s *Server) Close() error {
	s.pdfSessions.Purge()
	s.mediaSessions.Purge()
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// releasePrepared removes a merged file, its upload directory and, once
// empty, the session directory.
func releasePrepared(p *media.Prepared) {
	if p == nil {
		return
	}
	if err := p.Remove(); err != nil {
		log.Error().Err(err).Str("path", p.Path).Msg("Error removing merged file")
		return
	}
	if p.Path == "" {
		return
	}
	uploadDir := filepath.Dir(p.Path)
	if err := os.RemoveAll(uploadDir); err != nil {
		log.Error().Err(err).Str("dir", uploadDir).Msg("Error removing upload directory")
		return
	}
	// fails while another upload of the session is still on disk
	_ = os.Remove(filepath.Dir(uploadDir))
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Title: "Document Q&A"})
}
