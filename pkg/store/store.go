// Package store defines persistence for the administrator-maintained sections
// and questions and for per-session answer sheets. The composition engine
// never talks to a store; callers load snapshots and pass them in.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-scannergen/pkg/model"
)

// ErrNotFound is returned when a delete or move names an unknown id.
var ErrNotFound = errors.New("store: not found")

// SectionStore persists the ordered section list.
type SectionStore interface {
	ListSections(ctx context.Context) ([]model.Section, error)
	// SaveSection assigns an id when empty, updates an existing id in place
	// and appends new ids.
	SaveSection(ctx context.Context, section model.Section) (model.Section, error)
	DeleteSection(ctx context.Context, id string) error
	MoveSection(ctx context.Context, id string, index int) error
}

// QuestionStore persists the ordered question list.
type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
	SaveQuestion(ctx context.Context, question model.Question) (model.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	MoveQuestion(ctx context.Context, id string, index int) error
}

// AnswerStore persists answer sheets per session. Loading an unknown session
// yields an empty sheet.
type AnswerStore interface {
	LoadAnswers(ctx context.Context, session string) (model.Answers, error)
	SaveAnswers(ctx context.Context, session string, answers model.Answers) error
	ClearAnswers(ctx context.Context, session string) error
}

// Store bundles the three stores.
type Store interface {
	SectionStore
	QuestionStore
	AnswerStore
}

// BrandingSource is implemented by stores that also keep the bundle's
// branding block.
type BrandingSource interface {
	Branding(ctx context.Context) (model.Branding, error)
}

// UpdateFunc derives a new sheet from the stored one. It may run more than
// once when a backend retries after a conflicting write.
type UpdateFunc func(current model.Answers) (model.Answers, error)

// AnswerUpdater is implemented by answer stores that can read, modify and
// write a sheet without losing concurrent updates from other processes.
type AnswerUpdater interface {
	UpdateAnswers(ctx context.Context, session string, fn UpdateFunc) (model.Answers, error)
}

// UpdateAnswers applies fn through st's AnswerUpdater when it has one, and
// through a plain load and save otherwise. The fallback is not atomic;
// callers sharing a store must serialize updates per session themselves.
func UpdateAnswers(ctx context.Context, st AnswerStore, session string, fn UpdateFunc) (model.Answers, error) {
	if updater, ok := st.(AnswerUpdater); ok {
		return updater.UpdateAnswers(ctx, session, fn)
	}
	current, err := st.LoadAnswers(ctx, session)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := st.SaveAnswers(ctx, session, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Composite assembles a Store from independent backends, e.g. SQL for the
// template and Redis for answers.
type Composite struct {
	SectionStore
	QuestionStore
	AnswerStore
}

var (
	_ Store         = Composite{}
	_ AnswerUpdater = Composite{}
)

// UpdateAnswers forwards to the answer backend.
func (c Composite) UpdateAnswers(ctx context.Context, session string, fn UpdateFunc) (model.Answers, error) {
	return UpdateAnswers(ctx, c.AnswerStore, session, fn)
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}

// ValidSession rejects blank session keys.
func ValidSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return errors.New("store: session is required")
	}
	return nil
}

// PrepareSection assigns an id to a new section.
func PrepareSection(section model.Section) model.Section {
	if section.ID == "" {
		section.ID = NewID()
	}
	return section
}

// PrepareQuestion assigns ids to a new question and its options.
func PrepareQuestion(question model.Question) (model.Question, error) {
	question = model.Concrete(question)
	if question == nil {
		return nil, errors.New("store: question is nil")
	}
	if question.Common().ID == "" {
		question = model.WithID(question, NewID())
	}
	if choice, ok := question.(model.ChoiceQuestion); ok {
		options := append([]model.Option(nil), choice.Options...)
		for i := range options {
			if options[i].ID == "" {
				options[i].ID = NewID()
			}
		}
		choice.Options = options
		question = choice
	}
	return question, nil
}

// Upsert replaces the item with the same id in place or appends it.
func Upsert[T any](items []T, item T, id func(T) string) []T {
	key := id(item)
	for i := range items {
		if id(items[i]) == key {
			out := append([]T(nil), items...)
			out[i] = item
			return out
		}
	}
	return append(append([]T(nil), items...), item)
}

// Remove drops the item with the given id.
func Remove[T any](items []T, key string, id func(T) string) ([]T, error) {
	for i := range items {
		if id(items[i]) == key {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), nil
		}
	}
	return nil, ErrNotFound
}

// Move relocates the item with the given id to index, clamped to the list
// bounds.
func Move[T any](items []T, key string, index int, id func(T) string) ([]T, error) {
	from := -1
	for i := range items {
		if id(items[i]) == key {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, ErrNotFound
	}
	item := items[from]
	rest := make([]T, 0, len(items))
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)

	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}
	out := make([]T, 0, len(items))
	out = append(out, rest[:index]...)
	out = append(out, item)
	return append(out, rest[index:]...), nil
}

// SectionID and QuestionID are key functions for the helpers above.
func SectionID(s model.Section) string { return s.ID }

func QuestionID(q model.Question) string {
	if q == nil {
		return ""
	}
	return q.Common().ID
}
