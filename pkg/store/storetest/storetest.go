// Package storetest holds a behaviour suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/store"
)

// Factory builds a store seeded with b.
type Factory func(t *testing.T, b model.Bundle) store.Store

func seed() model.Bundle {
	return model.Bundle{
		Sections: []model.Section{
			{ID: "a", Title: "A", Code: "// a", IsMandatory: true},
			{ID: "b", Title: "B", Code: "// b"},
			{ID: "c", Title: "C", Code: "// c"},
		},
		Questions: model.Questions{
			model.TextQuestion{QuestionBase: model.QuestionBase{ID: "q1", Text: "Name"}, LinkedSectionID: "b", PlaceholderVariable: "NAME"},
			model.BooleanQuestion{QuestionBase: model.QuestionBase{ID: "q2", Text: "Flag"}, LinkedSectionID: "c"},
		},
	}
}

func sectionIDs(t *testing.T, s store.Store) []string {
	t.Helper()
	sections, err := s.ListSections(context.Background())
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	ids := make([]string, 0, len(sections))
	for _, section := range sections {
		ids = append(ids, section.ID)
	}
	return ids
}

func questionIDs(t *testing.T, s store.Store) []string {
	t.Helper()
	questions, err := s.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	ids := make([]string, 0, len(questions))
	for _, question := range questions {
		ids = append(ids, question.Common().ID)
	}
	return ids
}

// Run exercises sections, questions and answers against a fresh store per
// subtest.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("sections", func(t *testing.T) {
		s := factory(t, seed())
		got, err := s.ListSections(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if diff := cmp.Diff(seed().Sections, got); diff != "" {
			t.Fatalf("seeded sections mismatch (-want +got):\n%s", diff)
		}

		created, err := s.SaveSection(ctx, model.Section{Title: "New", Code: "// new"})
		if err != nil {
			t.Fatalf("save new: %v", err)
		}
		if created.ID == "" {
			t.Fatalf("expected an id to be assigned")
		}
		if _, err := s.SaveSection(ctx, model.Section{ID: "b", Title: "B2", Code: "// b2"}); err != nil {
			t.Fatalf("update: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b", "c", created.ID}, sectionIDs(t, s)); diff != "" {
			t.Fatalf("order after save (-want +got):\n%s", diff)
		}
		sections, _ := s.ListSections(ctx)
		if sections[1].Title != "B2" || sections[1].Code != "// b2" {
			t.Fatalf("update not applied in place: %+v", sections[1])
		}

		if err := s.MoveSection(ctx, created.ID, 0); err != nil {
			t.Fatalf("move: %v", err)
		}
		if err := s.MoveSection(ctx, "a", 99); err != nil {
			t.Fatalf("move clamp: %v", err)
		}
		if diff := cmp.Diff([]string{created.ID, "b", "c", "a"}, sectionIDs(t, s)); diff != "" {
			t.Fatalf("order after move (-want +got):\n%s", diff)
		}

		if err := s.DeleteSection(ctx, "b"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if diff := cmp.Diff([]string{created.ID, "c", "a"}, sectionIDs(t, s)); diff != "" {
			t.Fatalf("order after delete (-want +got):\n%s", diff)
		}
		if err := s.DeleteSection(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on delete, got %v", err)
		}
		if err := s.MoveSection(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on move, got %v", err)
		}
	})

	t.Run("questions", func(t *testing.T) {
		s := factory(t, seed())
		got, err := s.ListQuestions(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if diff := cmp.Diff([]model.Question(seed().Questions), got); diff != "" {
			t.Fatalf("seeded questions mismatch (-want +got):\n%s", diff)
		}

		saved, err := s.SaveQuestion(ctx, model.ChoiceQuestion{
			QuestionBase: model.QuestionBase{Text: "Pick"},
			Multiple:     true,
			Options:      []model.Option{{Text: "One", Value: "1", LinkedSectionID: "a"}},
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		choice, ok := saved.(model.ChoiceQuestion)
		if !ok || choice.ID == "" || choice.Options[0].ID == "" {
			t.Fatalf("expected ids on question and options, got %+v", saved)
		}

		if _, err := s.SaveQuestion(ctx, model.BooleanQuestion{QuestionBase: model.QuestionBase{ID: "q1", Text: "Now boolean"}}); err != nil {
			t.Fatalf("replace variant: %v", err)
		}
		questions, _ := s.ListQuestions(ctx)
		if _, isBool := questions[0].(model.BooleanQuestion); !isBool {
			t.Fatalf("expected q1 to become a boolean question, got %T", questions[0])
		}
		last, _ := questions[2].(model.ChoiceQuestion)
		if diff := cmp.Diff(choice, last); diff != "" {
			t.Fatalf("stored choice mismatch (-want +got):\n%s", diff)
		}

		if err := s.MoveQuestion(ctx, choice.ID, -5); err != nil {
			t.Fatalf("move: %v", err)
		}
		if diff := cmp.Diff([]string{choice.ID, "q1", "q2"}, questionIDs(t, s)); diff != "" {
			t.Fatalf("order after move (-want +got):\n%s", diff)
		}
		if err := s.DeleteQuestion(ctx, "q1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteQuestion(ctx, "q1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if diff := cmp.Diff([]string{choice.ID, "q2"}, questionIDs(t, s)); diff != "" {
			t.Fatalf("order after delete (-want +got):\n%s", diff)
		}
	})

	t.Run("answers", func(t *testing.T) {
		RunAnswers(t, func(t *testing.T) store.AnswerStore { return factory(t, seed()) })
	})
}

// RunAnswers exercises an AnswerStore on its own.
func RunAnswers(t *testing.T, factory func(t *testing.T) store.AnswerStore) {
	t.Helper()
	ctx := context.Background()
	s := factory(t)

	empty, err := s.LoadAnswers(ctx, "fresh")
	if err != nil {
		t.Fatalf("load unknown session: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty sheet, got %v", empty)
	}

	sheet := model.NewAnswers(
		model.Answer{QuestionID: "q2", Value: model.Bool(false)},
		model.Answer{QuestionID: "q1", Value: model.String("Ada")},
		model.Answer{QuestionID: "q3", Value: model.List("x", "y")},
	)
	if err := s.SaveAnswers(ctx, "s1", sheet); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveAnswers(ctx, "s2", model.NewAnswers(model.Answer{QuestionID: "q1", Value: model.String("Grace")})); err != nil {
		t.Fatalf("save other session: %v", err)
	}
	got, err := s.LoadAnswers(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(sheet, got); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}

	if err := s.ClearAnswers(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.LoadAnswers(ctx, "s1")
	if len(got) != 0 {
		t.Fatalf("expected cleared session, got %v", got)
	}
	other, _ := s.LoadAnswers(ctx, "s2")
	if len(other) != 1 {
		t.Fatalf("clearing one session touched another: %v", other)
	}
	if err := s.SaveAnswers(ctx, " ", sheet); err == nil {
		t.Fatalf("expected blank session to be rejected")
	}

	runUpdates(t, s)
}

func runUpdates(t *testing.T, s store.AnswerStore) {
	t.Helper()
	ctx := context.Background()
	addBeep := func(current model.Answers) (model.Answers, error) {
		next := current.Clone()
		next.Set("q9", model.Bool(true))
		return next, nil
	}

	updated, err := store.UpdateAnswers(ctx, s, "s2", addBeep)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := model.NewAnswers(
		model.Answer{QuestionID: "q1", Value: model.String("Grace")},
		model.Answer{QuestionID: "q9", Value: model.Bool(true)},
	)
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("updated sheet mismatch (-want +got):\n%s", diff)
	}
	stored, err := s.LoadAnswers(ctx, "s2")
	if err != nil {
		t.Fatalf("load after update: %v", err)
	}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Fatalf("stored sheet mismatch (-want +got):\n%s", diff)
	}

	errRejected := errors.New("rejected")
	reject := func(model.Answers) (model.Answers, error) { return nil, errRejected }
	if _, err := store.UpdateAnswers(ctx, s, "s2", reject); !errors.Is(err, errRejected) {
		t.Fatalf("expected update error to propagate, got %v", err)
	}
	stored, _ = s.LoadAnswers(ctx, "s2")
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Fatalf("failed update changed the sheet (-want +got):\n%s", diff)
	}
	if _, err := store.UpdateAnswers(ctx, s, "untouched", reject); !errors.Is(err, errRejected) {
		t.Fatalf("expected update error to propagate, got %v", err)
	}
	if fresh, _ := s.LoadAnswers(ctx, "untouched"); len(fresh) != 0 {
		t.Fatalf("failed update on a new session left %v behind", fresh)
	}

	created, err := store.UpdateAnswers(ctx, s, "s4", addBeep)
	if err != nil {
		t.Fatalf("update new session: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected one answer on a new session, got %v", created)
	}
}
