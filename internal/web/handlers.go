package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
	"document-qa/internal/media"
	"document-qa/internal/rag"
	"document-qa/internal/session"
)

// currentSession resolves the cookie to a session, issuing a new cookie
// when the old one is missing or expired.
func currentSession[T any](c *gin.Context, store *session.Store[T], cookie string, maxAge int) (*session.Session[T], error) {
	id, _ := c.Cookie(cookie)
	sess, err := store.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if sess.ID != id {
		c.SetCookie(cookie, sess.ID, maxAge, "/", "", false, true)
	}
	return sess, nil
}

func (s *Server) pdfView(sess *session.Session[*rag.KnowledgeBase]) page {
	snap := sess.Snapshot()
	p := page{
		Title:    "Chat with PDF",
		State:    snap.State.String(),
		Files:    snap.Files,
		Question: snap.Question,
		Answer:   s.renderMarkdown(snap.Answer),
		Config:   snap.Config,
		Limits:   sliderLimits,
		Error:    errorMessage(snap.Err),
	}
	if s.qa == nil {
		p.Fatal = errorMessage(s.qaErr)
	}
	return p
}

func (s *Server) pdfPage(c *gin.Context) {
	sess, err := currentSession(c, s.pdfSessions, pdfCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "pdf.html", page{Title: "Chat with PDF"}, err)
		return
	}
	c.HTML(http.StatusOK, "pdf.html", s.pdfView(sess))
}

func (s *Server) pdfUpload(c *gin.Context) {
	sess, err := currentSession(c, s.pdfSessions, pdfCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "pdf.html", page{Title: "Chat with PDF"}, err)
		return
	}
	if s.qa == nil {
		s.fail(c, "pdf.html", s.pdfView(sess), s.qaErr)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), uploadError(err))
		return
	}
	upload, err := readUpload(fh)
	if err != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), err)
		return
	}

	kb, err := s.qa.Ingest(c.Request.Context(), upload)
	if err != nil {
		log.Error().Err(err).Str("file", upload.Name).Msg("Error indexing upload")
		sess.Reset()
		sess.Fail(err)
		s.fail(c, "pdf.html", s.pdfView(sess), err)
		return
	}
	sess.Load([]string{upload.Name}, kb)
	c.HTML(http.StatusOK, "pdf.html", s.pdfView(sess))
}

func (s *Server) pdfAsk(c *gin.Context) {
	sess, err := currentSession(c, s.pdfSessions, pdfCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "pdf.html", page{Title: "Chat with PDF"}, err)
		return
	}
	if s.qa == nil {
		s.fail(c, "pdf.html", s.pdfView(sess), s.qaErr)
		return
	}

	var form askForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), fmt.Errorf("%w: %v", errBadForm, err))
		return
	}
	// the PDF flow always uses the configured OpenAI model
	form.Model = ""
	cfg, err := form.resolve(sess.Config(), nil)
	if err != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), err)
		return
	}
	sess.SetConfig(cfg)

	question := strings.TrimSpace(form.Question)
	if question == "" {
		s.fail(c, "pdf.html", s.pdfView(sess), errEmptyQuestion)
		return
	}
	kb, ticket, err := sess.BeginAsk(question)
	if err != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), err)
		return
	}

	var content string
	answer, err := s.qa.Ask(c.Request.Context(), kb, question, cfg)
	if err == nil {
		content = answer.Content
	}
	if ferr := sess.Finish(ticket, content, err); ferr != nil {
		s.fail(c, "pdf.html", s.pdfView(sess), ferr)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Error answering question")
		s.fail(c, "pdf.html", s.pdfView(sess), err)
		return
	}
	c.HTML(http.StatusOK, "pdf.html", s.pdfView(sess))
}

func (s *Server) pdfReset(c *gin.Context) {
	if sess, err := currentSession(c, s.pdfSessions, pdfCookie, s.cookieMaxAge); err == nil {
		sess.Reset()
	}
	c.Redirect(http.StatusSeeOther, "/pdf")
}

func (s *Server) mediaView(sess *session.Session[*media.Prepared], selected media.Kind) page {
	snap := sess.Snapshot()
	p := page{
		Title:    "Chat with Gemini",
		State:    snap.State.String(),
		Files:    snap.Files,
		Question: snap.Question,
		Answer:   s.renderMarkdown(snap.Answer),
		Config:   snap.Config,
		Models:   s.cfg.Gemini.Models,
		Limits:   sliderLimits,
		Error:    errorMessage(snap.Err),
	}
	if prep, ok := sess.Artifact(); ok && prep != nil {
		if selected == "" {
			selected = prep.Kind
		}
		p.Pages = prep.Pages
		p.MergedPath = prep.Path
		if prep.Base64 != "" {
			p.Preview = template.URL("data:application/pdf;base64," + prep.Base64)
		}
	}
	if selected == "" {
		selected = media.KindPDF
	}
	p.Kind = string(selected)
	for _, k := range media.Kinds() {
		p.Kinds = append(p.Kinds, kindOption{Value: string(k), Label: k.Label(), Selected: k == selected})
	}
	return p
}

func (s *Server) mediaPage(c *gin.Context) {
	sess, err := currentSession(c, s.mediaSessions, mediaCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "media.html", page{Title: "Chat with Gemini"}, err)
		return
	}
	c.HTML(http.StatusOK, "media.html", s.mediaView(sess, ""))
}

func (s *Server) mediaUpload(c *gin.Context) {
	sess, err := currentSession(c, s.mediaSessions, mediaCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "media.html", page{Title: "Chat with Gemini"}, err)
		return
	}

	var form mediaUploadForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), fmt.Errorf("%w: %v", errBadForm, err))
		return
	}
	kind, err := media.ParseKind(form.Kind)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), err)
		return
	}
	cfg, err := form.resolve(sess.Config(), s.cfg.Gemini.Models)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, kind), err)
		return
	}
	sess.SetConfig(cfg)

	handler, err := s.registry.Lookup(kind)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, kind), err)
		return
	}
	mf, err := c.MultipartForm()
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, kind), uploadError(err))
		return
	}
	uploads, err := readUploads(mf.File["files"])
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, kind), err)
		return
	}
	if len(uploads) == 0 {
		s.fail(c, "media.html", s.mediaView(sess, kind), errNoUpload)
		return
	}

	workDir, err := s.mediaWorkDir(sess.ID)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, kind), err)
		return
	}
	prep, err := handler.Prepare(c.Request.Context(), workDir, uploads)
	if err != nil {
		if !errors.Is(err, media.ErrNotSupported) {
			log.Error().Err(err).Str("kind", string(kind)).Msg("Error preparing upload")
		}
		sess.Fail(err)
		s.fail(c, "media.html", s.mediaView(sess, kind), err)
		return
	}
	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.Name
	}
	sess.Load(names, prep)
	c.HTML(http.StatusOK, "media.html", s.mediaView(sess, kind))
}

func (s *Server) mediaAsk(c *gin.Context) {
	sess, err := currentSession(c, s.mediaSessions, mediaCookie, s.cookieMaxAge)
	if err != nil {
		s.fail(c, "media.html", page{Title: "Chat with Gemini"}, err)
		return
	}

	var form askForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), fmt.Errorf("%w: %v", errBadForm, err))
		return
	}
	cfg, err := form.resolve(sess.Config(), s.cfg.Gemini.Models)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), err)
		return
	}
	sess.SetConfig(cfg)

	question := strings.TrimSpace(form.Question)
	if question == "" {
		s.fail(c, "media.html", s.mediaView(sess, ""), errEmptyQuestion)
		return
	}
	prep, ticket, err := sess.BeginAsk(question)
	if err != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), err)
		return
	}

	var answer string
	handler, err := s.registry.Lookup(prep.Kind)
	if err == nil {
		answer, err = handler.Ask(c.Request.Context(), prep, question, cfg)
	}
	if ferr := sess.Finish(ticket, answer, err); ferr != nil {
		s.fail(c, "media.html", s.mediaView(sess, ""), ferr)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Error answering question")
		s.fail(c, "media.html", s.mediaView(sess, ""), err)
		return
	}
	c.HTML(http.StatusOK, "media.html", s.mediaView(sess, ""))
}

func (s *Server) mediaReset(c *gin.Context) {
	if sess, err := currentSession(c, s.mediaSessions, mediaCookie, s.cookieMaxAge); err == nil {
		sess.Reset()
	}
	c.Redirect(http.StatusSeeOther, "/media")
}

func (s *Server) mediaMerged(c *gin.Context) {
	sess, err := currentSession(c, s.mediaSessions, mediaCookie, s.cookieMaxAge)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	prep, ok := sess.Artifact()
	if !ok || prep == nil || prep.Kind != media.KindPDF {
		c.String(http.StatusNotFound, "no merged PDF in this session")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.Merge.OutputName))
	c.Data(http.StatusOK, "application/pdf", prep.Data)
}

// mediaWorkDir returns a fresh directory for one upload under the
// session's directory, so overlapping uploads never share an output path.
func (s *Server) mediaWorkDir(sessionID string) (string, error) {
	uploadID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.Merge.WorkDir, sessionID, uploadID), nil
}

func uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return err
	}
	return errNoUpload
}
