package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-scannergen/pkg/lint"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
)

const (
	defaultCodeRenderer = "json"
	previewRenderer     = "html"
)

type moveRequest struct {
	Index *int `json:"index"`
}

type answerRequest struct {
	Value *model.Value `json:"value"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) openapi(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openapiDocument)
}

func (s *Server) listSections(c *gin.Context) {
	sections, err := s.svc.Store().ListSections(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if sections == nil {
		sections = []model.Section{}
	}
	c.JSON(http.StatusOK, sections)
}

func (s *Server) createSection(c *gin.Context) {
	s.writeSection(c, "", http.StatusCreated)
}

func (s *Server) saveSection(c *gin.Context) {
	s.writeSection(c, c.Param("id"), http.StatusOK)
}

func (s *Server) writeSection(c *gin.Context, id string, status int) {
	var section model.Section
	if err := c.ShouldBindJSON(&section); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if id != "" {
		section.ID = id
	}
	saved, err := s.svc.Store().SaveSection(c.Request.Context(), section)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, saved)
}

func (s *Server) deleteSection(c *gin.Context) {
	if err := s.svc.Store().DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) moveSection(c *gin.Context) {
	index, ok := bindMove(c)
	if !ok {
		return
	}
	if err := s.svc.Store().MoveSection(c.Request.Context(), c.Param("id"), index); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listQuestions(c *gin.Context) {
	questions, err := s.svc.Store().ListQuestions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	c.JSON(http.StatusOK, questions)
}

func (s *Server) createQuestion(c *gin.Context) {
	s.writeQuestion(c, "", http.StatusCreated)
}

func (s *Server) saveQuestion(c *gin.Context) {
	s.writeQuestion(c, c.Param("id"), http.StatusOK)
}

func (s *Server) writeQuestion(c *gin.Context, id string, status int) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	question, err := model.DecodeQuestionJSON(raw)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if id != "" {
		question = model.WithID(question, id)
	}
	saved, err := s.svc.Store().SaveQuestion(c.Request.Context(), question)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, saved)
}

func (s *Server) deleteQuestion(c *gin.Context) {
	if err := s.svc.Store().DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) moveQuestion(c *gin.Context) {
	index, ok := bindMove(c)
	if !ok {
		return
	}
	if err := s.svc.Store().MoveQuestion(c.Request.Context(), c.Param("id"), index); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindMove(c *gin.Context) (int, bool) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return 0, false
	}
	if req.Index == nil {
		fail(c, fmt.Errorf("%w: index is required", errBadRequest))
		return 0, false
	}
	return *req.Index, true
}

func (s *Server) getAnswers(c *gin.Context) {
	answers, err := s.svc.Answers(c.Request.Context(), c.Param("session"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (s *Server) putAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Value == nil {
		fail(c, fmt.Errorf("%w: value is required", errBadRequest))
		return
	}
	answers, err := s.svc.Answer(c.Request.Context(), c.Param("session"), c.Param("question"), *req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (s *Server) clearAnswers(c *gin.Context) {
	if err := s.svc.ClearAnswers(c.Request.Context(), c.Param("session")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sessionCode(c *gin.Context) {
	out, err := s.svc.Render(c.Request.Context(), c.Param("session"), rendererParam(c), render.RenderOptions{})
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

func (s *Server) generate(c *gin.Context) {
	var answers model.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	out, err := s.svc.RenderWith(c.Request.Context(), answers, rendererParam(c), render.RenderOptions{})
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

func (s *Server) lint(c *gin.Context) {
	var (
		report lint.Report
		err    error
	)
	if session := c.Query("session"); session != "" {
		report, err = s.svc.LintSession(c.Request.Context(), session)
	} else {
		report, err = s.svc.Lint(c.Request.Context())
	}
	if err != nil {
		fail(c, err)
		return
	}
	if report.Issues == nil {
		report.Issues = []lint.Issue{}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) preview(c *gin.Context) {
	var options render.RenderOptions
	if name, variant := c.Query("theme"), c.Query("variant"); name != "" || variant != "" {
		cfg, err := s.svc.Theme(name, variant)
		if err != nil {
			fail(c, err)
			return
		}
		options.Theme = cfg
	}
	out, err := s.svc.Render(c.Request.Context(), c.Param("session"), previewRenderer, options)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

func rendererParam(c *gin.Context) string {
	if name := c.Query("renderer"); name != "" {
		return name
	}
	return defaultCodeRenderer
}
