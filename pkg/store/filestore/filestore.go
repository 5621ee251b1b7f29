// Package filestore persists a template bundle as a single JSON or YAML
// document and keeps one JSON answer file per session next to it.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/store"
)

// AnswersDir is the directory, relative to the bundle file, holding answers.
const AnswersDir = "answers"

// Store reads the bundle file on every call, so edits made by hand are picked
// up without a restart. Writes go through a temp file and a rename.
type Store struct {
	mu         sync.Mutex
	path       string
	yamlOutput bool
	answersDir string
}

var _ store.Store = (*Store)(nil)

// New opens the bundle at path. A missing file behaves as an empty bundle
// and is created on the first write.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("filestore: bundle path is required")
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("filestore: unsupported bundle extension %q", ext)
	}
	clean := filepath.Clean(path)
	return &Store{
		path:       clean,
		yamlOutput: ext != ".json",
		answersDir: filepath.Join(filepath.Dir(clean), AnswersDir),
	}, nil
}

// Create writes b to path and opens it.
func Create(path string, b model.Bundle) (*Store, error) {
	s, err := New(path)
	if err != nil {
		return nil, err
	}
	if err := s.writeBundle(b); err != nil {
		return nil, err
	}
	return s, nil
}

// Path reports the bundle file location.
func (s *Store) Path() string { return s.path }

func (s *Store) readBundle() (model.Bundle, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Bundle{}, nil
	}
	if err != nil {
		return model.Bundle{}, fmt.Errorf("filestore: read bundle: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return model.Bundle{}, nil
	}
	b, err := bundle.DecodeBundle(raw)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("filestore: %w", err)
	}
	return b, nil
}

func (s *Store) writeBundle(b model.Bundle) error {
	raw, err := bundle.EncodeBundle(b, s.yamlOutput)
	if err != nil {
		return fmt.Errorf("filestore: encode bundle: %w", err)
	}
	return writeAtomic(s.path, raw)
}

// update applies fn to the current bundle and persists the result.
func (s *Store) update(ctx context.Context, fn func(*model.Bundle) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.readBundle()
	if err != nil {
		return err
	}
	if err := fn(&b); err != nil {
		return err
	}
	return s.writeBundle(b)
}

func (s *Store) snapshot(ctx context.Context) (model.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return model.Bundle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readBundle()
}

// Branding returns the bundle branding block.
func (s *Store) Branding(ctx context.Context) (model.Branding, error) {
	b, err := s.snapshot(ctx)
	return b.Branding, err
}

func (s *Store) ListSections(ctx context.Context) ([]model.Section, error) {
	b, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return b.Sections, nil
}

func (s *Store) SaveSection(ctx context.Context, section model.Section) (model.Section, error) {
	section = store.PrepareSection(section)
	err := s.update(ctx, func(b *model.Bundle) error {
		b.Sections = store.Upsert(b.Sections, section, store.SectionID)
		return nil
	})
	if err != nil {
		return model.Section{}, err
	}
	return section, nil
}

func (s *Store) DeleteSection(ctx context.Context, id string) error {
	return s.update(ctx, func(b *model.Bundle) error {
		next, err := store.Remove(b.Sections, id, store.SectionID)
		b.Sections = next
		return err
	})
}

func (s *Store) MoveSection(ctx context.Context, id string, index int) error {
	return s.update(ctx, func(b *model.Bundle) error {
		next, err := store.Move(b.Sections, id, index, store.SectionID)
		b.Sections = next
		return err
	})
}

func (s *Store) ListQuestions(ctx context.Context) ([]model.Question, error) {
	b, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return b.Questions, nil
}

func (s *Store) SaveQuestion(ctx context.Context, question model.Question) (model.Question, error) {
	question, err := store.PrepareQuestion(question)
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(b *model.Bundle) error {
		b.Questions = store.Upsert(b.Questions, question, store.QuestionID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.update(ctx, func(b *model.Bundle) error {
		next, err := store.Remove(b.Questions, id, store.QuestionID)
		b.Questions = next
		return err
	})
}

func (s *Store) MoveQuestion(ctx context.Context, id string, index int) error {
	return s.update(ctx, func(b *model.Bundle) error {
		next, err := store.Move(b.Questions, id, index, store.QuestionID)
		b.Questions = next
		return err
	})
}

func (s *Store) answersPath(session string) (string, error) {
	if err := store.ValidSession(session); err != nil {
		return "", err
	}
	return filepath.Join(s.answersDir, url.PathEscape(session)+".json"), nil
}

func (s *Store) LoadAnswers(ctx context.Context, session string) (model.Answers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.answersPath(session)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read answers: %w", err)
	}
	var answers model.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("filestore: decode answers %s: %w", session, err)
	}
	return answers, nil
}

func (s *Store) SaveAnswers(ctx context.Context, session string, answers model.Answers) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.answersPath(session)
	if err != nil {
		return err
	}
	if answers == nil {
		answers = model.Answers{}
	}
	raw, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode answers: %w", err)
	}
	return writeAtomic(path, raw)
}

func (s *Store) ClearAnswers(ctx context.Context, session string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.answersPath(session)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: clear answers: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("filestore: rename %s: %w", path, err)
	}
	return nil
}
