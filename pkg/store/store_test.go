package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scannergen/pkg/model"
)

func self(s string) string { return s }

func TestMoveClampsAndKeepsInput(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	cases := []struct {
		key   string
		index int
		want  []string
	}{
		{"a", 2, []string{"b", "c", "a", "d"}},
		{"d", 0, []string{"d", "a", "b", "c"}},
		{"b", 100, []string{"a", "c", "d", "b"}},
		{"c", -1, []string{"c", "a", "b", "d"}},
		{"b", 1, []string{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		got, err := Move(in, tc.key, tc.index, self)
		if err != nil {
			t.Fatalf("move %s: %v", tc.key, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("move %s to %d (-want +got):\n%s", tc.key, tc.index, diff)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, in); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
	if _, err := Move(in, "zz", 0, self); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertAndRemove(t *testing.T) {
	in := []model.Section{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	updated := Upsert(in, model.Section{ID: "a", Title: "A2"}, SectionID)
	if updated[0].Title != "A2" || in[0].Title != "A" {
		t.Fatalf("upsert should replace in a copy: %+v / %+v", updated, in)
	}
	appended := Upsert(in, model.Section{ID: "c"}, SectionID)
	if len(appended) != 3 || appended[2].ID != "c" {
		t.Fatalf("upsert should append new ids: %+v", appended)
	}
	removed, err := Remove(in, "a", SectionID)
	if err != nil || len(removed) != 1 || removed[0].ID != "b" {
		t.Fatalf("remove: %+v %v", removed, err)
	}
	if _, err := Remove(in, "zz", SectionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrepareQuestionAssignsIDs(t *testing.T) {
	original := model.ChoiceQuestion{Options: []model.Option{{Value: "x"}, {ID: "keep", Value: "y"}}}
	prepared, err := PrepareQuestion(original)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	choice := prepared.(model.ChoiceQuestion)
	if choice.ID == "" || choice.Options[0].ID == "" || choice.Options[1].ID != "keep" {
		t.Fatalf("unexpected ids: %+v", choice)
	}
	if original.Options[0].ID != "" {
		t.Fatalf("prepare mutated caller options")
	}
	if _, err := PrepareQuestion(nil); err == nil {
		t.Fatalf("expected error for nil question")
	}
}
