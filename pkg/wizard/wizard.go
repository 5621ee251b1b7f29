// Package wizard walks a user through the question list on a terminal and
// collects an ordered answer sheet.
package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/model"
)

// RequiredMessage is shown when a required text question is left empty.
const RequiredMessage = "An answer is required."

// AnswerFunc observes every collected answer, e.g. to persist it.
type AnswerFunc func(ctx context.Context, questionID string, value model.Value) error

// Option configures Run.
type Option func(*runner)

// WithDriver replaces the survey driver.
func WithDriver(driver PromptDriver) Option {
	return func(r *runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithPreview sends the generated code to the driver's Info after every
// answer.
func WithPreview(enabled bool) Option {
	return func(r *runner) {
		r.preview = enabled
	}
}

// WithInitialAnswers seeds defaults and the starting answer sheet.
func WithInitialAnswers(answers model.Answers) Option {
	return func(r *runner) {
		r.answers = answers.Clone()
	}
}

// WithOnAnswer registers a callback invoked after each answer.
func WithOnAnswer(fn AnswerFunc) Option {
	return func(r *runner) {
		r.onAnswer = fn
	}
}

// WithMemo reuses a composition cache for previews.
func WithMemo(memo *compose.Memo) Option {
	return func(r *runner) {
		r.memo = memo
	}
}

type runner struct {
	driver   PromptDriver
	preview  bool
	answers  model.Answers
	onAnswer AnswerFunc
	memo     *compose.Memo
}

// Run asks every question in order and returns the collected answers.
// Interrupts surface as ErrAborted.
func Run(ctx context.Context, questions []model.Question, sections []model.Section, opts ...Option) (model.Answers, error) {
	r := &runner{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}

	for _, question := range questions {
		question = model.Concrete(question)
		if question == nil {
			continue
		}
		value, err := r.ask(ctx, question)
		if err != nil {
			return r.answers, err
		}
		id := question.Common().ID
		r.answers.Set(id, value)
		if r.onAnswer != nil {
			if err := r.onAnswer(ctx, id, value); err != nil {
				return r.answers, fmt.Errorf("wizard: record answer %s: %w", id, err)
			}
		}
		if r.preview {
			code := r.memo.Compose(sections, questions, r.answers).Code
			if err := r.driver.Info(ctx, code); err != nil {
				return r.answers, err
			}
		}
	}
	return r.answers, nil
}

func (r *runner) ask(ctx context.Context, question model.Question) (model.Value, error) {
	current, _ := r.answers.Get(question.Common().ID)
	message := promptMessage(question)

	switch q := question.(type) {
	case model.TextQuestion:
		def, _ := current.Str()
		for {
			text, err := r.driver.Input(ctx, InputConfig{Message: message, Default: def, Help: placeholderHelp(q)})
			if err != nil {
				return model.Value{}, err
			}
			if !q.Required || strings.TrimSpace(text) != "" {
				return model.String(text), nil
			}
			if err := r.driver.Info(ctx, RequiredMessage); err != nil {
				return model.Value{}, err
			}
		}
	case model.BooleanQuestion:
		def, _ := current.Flag()
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
		if err != nil {
			return model.Value{}, err
		}
		return model.Bool(ok), nil
	case model.ChoiceQuestion:
		return r.askChoice(ctx, q, message, current)
	default:
		return model.Value{}, fmt.Errorf("wizard: unsupported question %T", question)
	}
}

func (r *runner) askChoice(ctx context.Context, q model.ChoiceQuestion, message string, current model.Value) (model.Value, error) {
	labels := make([]string, len(q.Options))
	for i, option := range q.Options {
		labels[i] = option.Text
		if labels[i] == "" {
			labels[i] = option.Value
		}
	}
	selected := optionIndices(q.Options, current.Strings())

	if q.Multiple {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Defaults: selected})
		if err != nil {
			return model.Value{}, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx < 0 || idx >= len(q.Options) {
				return model.Value{}, fmt.Errorf("%w: %d for %s", ErrInvalidSelection, idx, q.ID)
			}
			values = append(values, q.Options[idx].Value)
		}
		return model.List(values...), nil
	}

	def := 0
	if len(selected) > 0 {
		def = selected[0]
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def})
	if err != nil {
		return model.Value{}, err
	}
	if idx < 0 || idx >= len(q.Options) {
		return model.Value{}, fmt.Errorf("%w: %d for %s", ErrInvalidSelection, idx, q.ID)
	}
	return model.String(q.Options[idx].Value), nil
}

func promptMessage(question model.Question) string {
	base := question.Common()
	text := base.Text
	if text == "" {
		text = base.ID
	}
	if base.Required {
		text += " *"
	}
	return text
}

func placeholderHelp(q model.TextQuestion) string {
	if q.PlaceholderVariable == "" {
		return ""
	}
	return fmt.Sprintf("Replaces {{%s}} in the generated code.", q.PlaceholderVariable)
}

func optionIndices(options []model.Option, values []string) []int {
	var out []int
	for _, value := range values {
		for i, option := range options {
			if option.Value == value {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
