// Package service ties a store to the composition engine and the renderers.
// It is the layer the CLI and the HTTP API talk to.
package service

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-scannergen/internal/logger"
	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/lint"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/renderers/html"
	jsonrenderer "github.com/goliatone/go-scannergen/pkg/renderers/json"
	"github.com/goliatone/go-scannergen/pkg/renderers/terminal"
	"github.com/goliatone/go-scannergen/pkg/renderers/text"
	"github.com/goliatone/go-scannergen/pkg/store"
)

const (
	defaultRendererName = "text"
	defaultMemoSize     = 64
)

var (
	// ErrUnknownQuestion is returned by Answer for ids with no question.
	ErrUnknownQuestion = errors.New("service: unknown question")
	// ErrInvalidAnswer is returned when a value does not fit its question.
	ErrInvalidAnswer = errors.New("service: invalid answer")
)

// Option customises the service.
type Option func(*Service)

// WithRegistry replaces the built-in renderer set.
func WithRegistry(registry *render.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithDefaultRenderer names the renderer used when Render gets an empty name.
func WithDefaultRenderer(name string) Option {
	return func(s *Service) {
		s.defaultRenderer = name
	}
}

// WithThemeSelector resolves themes for renderers that request none.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(s *Service) {
		s.themes = selector
		s.themeName = name
		s.themeVariant = variant
	}
}

// WithMemoSize sets the composition cache size. Zero or less disables it.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		s.memoSize = size
		s.memoSet = true
	}
}

// WithLogger routes service logs to z.
func WithLogger(z *zap.Logger) Option {
	return func(s *Service) {
		s.log = logger.FromZap(z)
	}
}

// WithBranding fixes the branding when the store does not carry one.
func WithBranding(branding model.Branding) Option {
	return func(s *Service) {
		s.branding = &branding
	}
}

// Service is safe for concurrent use when its store is.
type Service struct {
	store           store.Store
	registry        *render.Registry
	defaultRenderer string
	themes          theme.ThemeSelector
	themeName       string
	themeVariant    string
	memo            *compose.Memo
	memoSize        int
	memoSet         bool
	branding        *model.Branding
	log             *logger.Logger
	sessions        sessionLocks
	initialiseErr   error
}

// New builds a service over st. Missing dependencies get the built-in
// implementations: text, terminal, json and html renderers and the default
// "scanner" theme.
func New(st store.Store, options ...Option) *Service {
	s := &Service{store: st, defaultRenderer: defaultRendererName}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.applyDefaults()
	return s
}

func (s *Service) applyDefaults() {
	if s.log == nil {
		s.log = logger.Nop()
	}
	if !s.memoSet {
		s.memoSize = defaultMemoSize
	}
	if s.memoSize > 0 {
		s.memo = compose.NewMemo(s.memoSize)
	}
	if s.registry == nil {
		s.registry = render.NewRegistry(text.New(), terminal.New(), jsonrenderer.New(true))
		htmlRenderer, err := html.New()
		if err != nil {
			s.initialiseErr = fmt.Errorf("service: html renderer: %w", err)
		} else {
			s.registry.MustRegister(htmlRenderer)
		}
	}
	if s.themes == nil {
		selector, err := render.NewManifestSelector(render.DefaultManifest())
		if err != nil {
			s.initialiseErr = fmt.Errorf("service: default theme: %w", err)
		} else {
			s.themes = selector
		}
	}
	if s.defaultRenderer == "" {
		s.defaultRenderer = defaultRendererName
	}
}

// Store exposes the underlying store for CRUD callers.
func (s *Service) Store() store.Store { return s.store }

// Registry exposes the renderer registry.
func (s *Service) Registry() *render.Registry { return s.registry }

// Template loads sections and questions concurrently.
func (s *Service) Template(ctx context.Context) ([]model.Section, []model.Question, error) {
	if err := s.ready(ctx); err != nil {
		return nil, nil, err
	}
	var (
		sections  []model.Section
		questions []model.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sections, err = s.store.ListSections(gctx)
		if err != nil {
			return fmt.Errorf("service: list sections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		questions, err = s.store.ListQuestions(gctx)
		if err != nil {
			return fmt.Errorf("service: list questions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sections, questions, nil
}

// Answers returns the sheet stored for session.
func (s *Service) Answers(ctx context.Context, session string) (model.Answers, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	answers, err := s.store.LoadAnswers(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("service: load answers: %w", err)
	}
	return answers, nil
}

// Generate composes the code for a stored session.
func (s *Service) Generate(ctx context.Context, session string) (compose.Result, error) {
	artifact, err := s.sessionArtifact(ctx, session)
	if err != nil {
		return compose.Result{}, err
	}
	return artifact.Result, nil
}

// GenerateWith composes the code for an ad hoc answer sheet.
func (s *Service) GenerateWith(ctx context.Context, answers model.Answers) (compose.Result, error) {
	artifact, err := s.Artifact(ctx, answers)
	if err != nil {
		return compose.Result{}, err
	}
	return artifact.Result, nil
}

// Artifact composes answers against the current template and gathers
// everything a renderer needs.
func (s *Service) Artifact(ctx context.Context, answers model.Answers) (render.Artifact, error) {
	sections, questions, err := s.Template(ctx)
	if err != nil {
		return render.Artifact{}, err
	}
	branding, err := s.brandingFor(ctx)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.compose(sections, questions, answers, branding), nil
}

func (s *Service) sessionArtifact(ctx context.Context, session string) (render.Artifact, error) {
	if err := s.ready(ctx); err != nil {
		return render.Artifact{}, err
	}
	if err := store.ValidSession(session); err != nil {
		return render.Artifact{}, err
	}

	var (
		sections  []model.Section
		questions []model.Question
		answers   model.Answers
		branding  model.Branding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sections, questions, err = s.Template(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		answers, err = s.store.LoadAnswers(gctx, session)
		if err != nil {
			return fmt.Errorf("service: load answers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		branding, err = s.brandingFor(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return render.Artifact{}, err
	}
	return s.compose(sections, questions, answers, branding), nil
}

func (s *Service) compose(sections []model.Section, questions []model.Question, answers model.Answers, branding model.Branding) render.Artifact {
	result := s.memo.Compose(sections, questions, answers)
	s.log.Debug("composed scanner",
		"sections", len(sections),
		"questions", len(questions),
		"answers", len(answers),
		"included", len(result.Included),
		"empty", result.Empty,
	)
	return render.Artifact{
		Result:    result,
		Sections:  sections,
		Questions: questions,
		Answers:   answers,
		Branding:  branding,
	}
}

// Output is a rendered artifact.
type Output struct {
	ContentType string
	Body        []byte
}

// Render composes a stored session and renders it with the named renderer.
func (s *Service) Render(ctx context.Context, session, rendererName string, options render.RenderOptions) (Output, error) {
	artifact, err := s.sessionArtifact(ctx, session)
	if err != nil {
		return Output{}, err
	}
	return s.RenderArtifact(ctx, artifact, rendererName, options)
}

// RenderWith renders an ad hoc answer sheet.
func (s *Service) RenderWith(ctx context.Context, answers model.Answers, rendererName string, options render.RenderOptions) (Output, error) {
	artifact, err := s.Artifact(ctx, answers)
	if err != nil {
		return Output{}, err
	}
	return s.RenderArtifact(ctx, artifact, rendererName, options)
}

// RenderArtifact runs a renderer over a prepared artifact, resolving the
// configured theme when options carry none.
func (s *Service) RenderArtifact(ctx context.Context, artifact render.Artifact, rendererName string, options render.RenderOptions) (Output, error) {
	renderer, err := s.rendererFor(rendererName)
	if err != nil {
		return Output{}, err
	}
	if options.Theme == nil && s.themes != nil {
		cfg, err := render.SelectConfig(s.themes, s.themeName, s.themeVariant)
		if err != nil {
			return Output{}, fmt.Errorf("service: theme: %w", err)
		}
		options.Theme = cfg
	}
	body, err := renderer.Render(ctx, artifact, options)
	if err != nil {
		return Output{}, fmt.Errorf("service: render %s: %w", renderer.Name(), err)
	}
	return Output{ContentType: renderer.ContentType(), Body: body}, nil
}

// Theme resolves a theme by name and variant through the configured
// selector. Empty values fall back to the service defaults.
func (s *Service) Theme(name, variant string) (*theme.RendererConfig, error) {
	if name == "" && variant == "" {
		name, variant = s.themeName, s.themeVariant
	}
	return render.SelectConfig(s.themes, name, variant)
}

func (s *Service) rendererFor(name string) (render.Renderer, error) {
	if s.registry == nil {
		return nil, errors.New("service: renderer registry is nil")
	}
	renderer, err := s.registry.Resolve(name, s.defaultRenderer)
	if err != nil {
		return nil, fmt.Errorf("service: renderer: %w", err)
	}
	return renderer, nil
}

// Lint checks the stored template.
func (s *Service) Lint(ctx context.Context) (lint.Report, error) {
	sections, questions, err := s.Template(ctx)
	if err != nil {
		return lint.Report{}, err
	}
	report := lint.Check(sections, questions)
	if len(report.Issues) > 0 {
		s.log.Info("template lint", "issues", len(report.Issues), "errors", report.HasErrors())
	}
	return report, nil
}

// LintSession checks the template and the answers stored for session.
func (s *Service) LintSession(ctx context.Context, session string) (lint.Report, error) {
	artifact, err := s.sessionArtifact(ctx, session)
	if err != nil {
		return lint.Report{}, err
	}
	return lint.Check(artifact.Sections, artifact.Questions).
		Merge(lint.CheckAnswers(artifact.Questions, artifact.Answers)), nil
}

// Answer records one answer for session and returns the updated sheet. The
// question must exist and the value must fit it. Updates to one session are
// serialized; stores implementing store.AnswerUpdater also guard against
// writers in other processes.
func (s *Service) Answer(ctx context.Context, session, questionID string, value model.Value) (model.Answers, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list questions: %w", err)
	}
	question, ok := model.FindQuestion(questions, questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	report := lint.CheckAnswers([]model.Question{question}, model.NewAnswers(model.Answer{QuestionID: questionID, Value: value}))
	for _, issue := range report.Issues {
		if issue.Severity == lint.SeverityError {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAnswer, issue.Message)
		}
	}

	unlock := s.sessions.lock(session)
	defer unlock()
	answers, err := store.UpdateAnswers(ctx, s.store, session, func(current model.Answers) (model.Answers, error) {
		next := current.Clone()
		next.Set(questionID, value)
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: record answer: %w", err)
	}
	s.log.Debug("answer recorded", "session", session, "question", questionID, "kind", value.Kind().String())
	return answers, nil
}

// ClearAnswers drops the sheet stored for session.
func (s *Service) ClearAnswers(ctx context.Context, session string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := store.ValidSession(session); err != nil {
		return err
	}
	unlock := s.sessions.lock(session)
	defer unlock()
	if err := s.store.ClearAnswers(ctx, session); err != nil {
		return fmt.Errorf("service: clear answers: %w", err)
	}
	return nil
}

func (s *Service) brandingFor(ctx context.Context) (model.Branding, error) {
	if s.branding != nil {
		return *s.branding, nil
	}
	source, ok := s.store.(store.BrandingSource)
	if !ok {
		return model.Branding{}, nil
	}
	branding, err := source.Branding(ctx)
	if err != nil {
		return model.Branding{}, fmt.Errorf("service: branding: %w", err)
	}
	return branding, nil
}

func (s *Service) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("service: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.initialiseErr != nil {
		return s.initialiseErr
	}
	if s.store == nil {
		return errors.New("service: store is nil")
	}
	return nil
}
