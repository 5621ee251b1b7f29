// Package memory provides a mutex-guarded in-process store.
package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/store"
)

// Store keeps everything in memory. The zero value is not usable; call New.
type Store struct {
	mu        sync.RWMutex
	sections  []model.Section
	questions []model.Question
	answers   map[string]model.Answers
	branding  model.Branding
}

var _ store.Store = (*Store)(nil)

// New returns a store seeded with b.
func New(b model.Bundle) *Store {
	return &Store{
		sections:  append([]model.Section(nil), b.Sections...),
		questions: append([]model.Question(nil), b.Questions...),
		answers:   make(map[string]model.Answers),
		branding:  b.Branding,
	}
}

// Branding returns the branding the store was seeded with.
func (s *Store) Branding(ctx context.Context) (model.Branding, error) {
	if err := ctx.Err(); err != nil {
		return model.Branding{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branding, nil
}

func (s *Store) ListSections(ctx context.Context) ([]model.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Section(nil), s.sections...), nil
}

func (s *Store) SaveSection(ctx context.Context, section model.Section) (model.Section, error) {
	if err := ctx.Err(); err != nil {
		return model.Section{}, err
	}
	section = store.PrepareSection(section)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = store.Upsert(s.sections, section, store.SectionID)
	return section, nil
}

func (s *Store) DeleteSection(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.Remove(s.sections, id, store.SectionID)
	if err != nil {
		return err
	}
	s.sections = next
	return nil
}

func (s *Store) MoveSection(ctx context.Context, id string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.Move(s.sections, id, index, store.SectionID)
	if err != nil {
		return err
	}
	s.sections = next
	return nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]model.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Question(nil), s.questions...), nil
}

func (s *Store) SaveQuestion(ctx context.Context, question model.Question) (model.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	question, err := store.PrepareQuestion(question)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = store.Upsert(s.questions, question, store.QuestionID)
	return question, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.Remove(s.questions, id, store.QuestionID)
	if err != nil {
		return err
	}
	s.questions = next
	return nil
}

func (s *Store) MoveQuestion(ctx context.Context, id string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.Move(s.questions, id, index, store.QuestionID)
	if err != nil {
		return err
	}
	s.questions = next
	return nil
}

func (s *Store) LoadAnswers(ctx context.Context, session string) (model.Answers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers[session].Clone(), nil
}

func (s *Store) SaveAnswers(ctx context.Context, session string, answers model.Answers) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidSession(session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[session] = answers.Clone()
	return nil
}

func (s *Store) ClearAnswers(ctx context.Context, session string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, session)
	return nil
}

// Snapshot returns the current sections and questions as a bundle.
func (s *Store) Snapshot() model.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Bundle{
		Branding:  s.branding,
		Sections:  append([]model.Section(nil), s.sections...),
		Questions: append(model.Questions(nil), s.questions...),
	}
}
