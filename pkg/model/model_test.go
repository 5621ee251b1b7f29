package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const bundleJSON = `{
  "branding": {"title": "Badge scanner"},
  "sections": [
    {"id": "s1", "title": "Header", "code": "HEADER", "isMandatory": true}
  ],
  "questions": [
    {"id": "q1", "type": "text", "text": "What is your name?", "required": true, "linkedSectionId": "s2", "placeholderVariable": "NAME"},
    {"id": "q2", "type": "choice", "text": "Pick a reader", "multiple": true, "options": [
      {"id": "o1", "text": "USB", "value": "usb", "linkedSectionId": "s3"},
      {"id": "o2", "text": "Camera", "value": "cam"}
    ]},
    {"id": "q3", "type": "boolean", "text": "Beep on scan?", "linkedSectionId": "s4"}
  ]
}`

func TestBundleDecodesQuestionVariants(t *testing.T) {
	var bundle Bundle
	if err := json.Unmarshal([]byte(bundleJSON), &bundle); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := Questions{
		TextQuestion{
			QuestionBase:        QuestionBase{ID: "q1", Text: "What is your name?", Required: true},
			LinkedSectionID:     "s2",
			PlaceholderVariable: "NAME",
		},
		ChoiceQuestion{
			QuestionBase: QuestionBase{ID: "q2", Text: "Pick a reader"},
			Multiple:     true,
			Options: []Option{
				{ID: "o1", Text: "USB", Value: "usb", LinkedSectionID: "s3"},
				{ID: "o2", Text: "Camera", Value: "cam"},
			},
		},
		BooleanQuestion{
			QuestionBase:    QuestionBase{ID: "q3", Text: "Beep on scan?"},
			LinkedSectionID: "s4",
		},
	}
	if diff := cmp.Diff(want, bundle.Questions); diff != "" {
		t.Fatalf("questions mismatch (-want +got):\n%s", diff)
	}
	if bundle.Branding.Title != "Badge scanner" {
		t.Fatalf("branding title = %q", bundle.Branding.Title)
	}
}

func TestQuestionsJSONKeepsTypeDiscriminator(t *testing.T) {
	questions := Questions{
		BooleanQuestion{QuestionBase: QuestionBase{ID: "q3", Text: "Beep?"}},
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(payload), `"type":"boolean"`) {
		t.Fatalf("expected type discriminator in %s", payload)
	}

	var decoded Questions
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(questions, decoded); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestQuestionsRejectUnknownType(t *testing.T) {
	var questions Questions
	err := json.Unmarshal([]byte(`[{"id":"q1","type":"slider"}]`), &questions)
	if err == nil || !strings.Contains(err.Error(), "slider") {
		t.Fatalf("expected unknown type error, got %v", err)
	}

	err = yaml.Unmarshal([]byte("- id: q1\n  type: slider\n"), &questions)
	if err == nil || !strings.Contains(err.Error(), "slider") {
		t.Fatalf("expected unknown type error from yaml, got %v", err)
	}
}

func TestQuestionsDecodeYAML(t *testing.T) {
	const doc = `
- id: q1
  type: text
  text: Name
  placeholderVariable: NAME
- id: q2
  type: choice
  text: Reader
  options:
    - {id: o1, text: USB, value: usb, linkedSectionId: s3}
`
	var questions Questions
	if err := yaml.Unmarshal([]byte(doc), &questions); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Questions{
		TextQuestion{QuestionBase: QuestionBase{ID: "q1", Text: "Name"}, PlaceholderVariable: "NAME"},
		ChoiceQuestion{
			QuestionBase: QuestionBase{ID: "q2", Text: "Reader"},
			Options:      []Option{{ID: "o1", Text: "USB", Value: "usb", LinkedSectionID: "s3"}},
		},
	}
	if diff := cmp.Diff(want, questions); diff != "" {
		t.Fatalf("questions mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "type: choice") {
		t.Fatalf("expected type discriminator in yaml output:\n%s", out)
	}
}

func TestAnswersJSONPreservesOrder(t *testing.T) {
	var answers Answers
	if err := json.Unmarshal([]byte(`{"zeta":"z","alpha":["a","b"],"mid":true,"gone":null}`), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := Answers{
		{QuestionID: "zeta", Value: String("z")},
		{QuestionID: "alpha", Value: List("a", "b")},
		{QuestionID: "mid", Value: Bool(true)},
		{QuestionID: "gone", Value: Value{}},
	}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}

	payload, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(payload); got != `{"zeta":"z","alpha":["a","b"],"mid":true,"gone":null}` {
		t.Fatalf("unexpected encoding: %s", got)
	}
}

func TestAnswersYAMLPreservesOrder(t *testing.T) {
	var answers Answers
	if err := yaml.Unmarshal([]byte("b: one\na: [x, y]\nc: false\nport: 8080\n"), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := NewAnswers(
		Answer{QuestionID: "b", Value: String("one")},
		Answer{QuestionID: "a", Value: List("x", "y")},
		Answer{QuestionID: "c", Value: Bool(false)},
		Answer{QuestionID: "port", Value: String("8080")},
	)
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(out), "b: one\n") {
		t.Fatalf("expected first key preserved, got:\n%s", out)
	}
}

func TestAnswersSetKeepsPosition(t *testing.T) {
	answers := NewAnswers(
		Answer{QuestionID: "q1", Value: String("a")},
		Answer{QuestionID: "q2", Value: String("b")},
	)
	answers.Set("q1", String("changed"))
	answers.Set("q3", Bool(true))

	var ids []string
	for _, answer := range answers {
		ids = append(ids, answer.QuestionID)
	}
	if diff := cmp.Diff([]string{"q1", "q2", "q3"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if v, _ := answers.Get("q1"); !v.Equal(String("changed")) {
		t.Fatalf("q1 = %v", v)
	}

	if !answers.Delete("q2") || answers.Delete("q2") {
		t.Fatalf("delete should report presence once")
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers after delete, got %d", len(answers))
	}
}

func TestValueTruthiness(t *testing.T) {
	cases := []struct {
		name  string
		value Value
		want  bool
	}{
		{"zero", Value{}, false},
		{"empty string", String(""), false},
		{"string", String("x"), true},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"empty list", List(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.value.Truthy(); got != tc.want {
				t.Fatalf("Truthy() = %v, want %v", got, tc.want)
			}
		})
	}

	if diff := cmp.Diff([]string{"solo"}, String("solo").Strings()); diff != "" {
		t.Fatalf("scalar normalisation mismatch: %s", diff)
	}
	if Bool(true).Strings() != nil {
		t.Fatalf("bool should not normalise into a list")
	}
}

func TestLinkedSectionIDs(t *testing.T) {
	choice := ChoiceQuestion{Options: []Option{
		{Value: "a", LinkedSectionID: "s1"},
		{Value: "b"},
		{Value: "c", LinkedSectionID: "s2"},
	}}
	if diff := cmp.Diff([]string{"s1", "s2"}, LinkedSectionIDs(choice)); diff != "" {
		t.Fatalf("linked ids mismatch: %s", diff)
	}
	if LinkedSectionIDs(TextQuestion{}) != nil {
		t.Fatalf("unlinked text question should yield nil")
	}
}

func TestConcreteUnwrapsPointerVariants(t *testing.T) {
	text := TextQuestion{QuestionBase: QuestionBase{ID: "q1"}, LinkedSectionID: "s1"}
	boolean := BooleanQuestion{QuestionBase: QuestionBase{ID: "q2"}}
	choice := ChoiceQuestion{QuestionBase: QuestionBase{ID: "q3"}, Options: []Option{{Value: "a", LinkedSectionID: "s2"}}}

	for _, tc := range []struct {
		in   Question
		want Question
	}{
		{&text, text},
		{&boolean, boolean},
		{&choice, choice},
		{text, text},
	} {
		if diff := cmp.Diff(tc.want, Concrete(tc.in)); diff != "" {
			t.Fatalf("Concrete(%T) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}

	var nilChoice *ChoiceQuestion
	if Concrete(nilChoice) != nil {
		t.Fatalf("nil pointer should yield nil")
	}
	if Concrete(nil) != nil {
		t.Fatalf("nil should stay nil")
	}

	found, ok := FindQuestion([]Question{nilChoice, &choice}, "q3")
	if !ok {
		t.Fatalf("pointer question not found")
	}
	if _, isValue := found.(ChoiceQuestion); !isValue {
		t.Fatalf("FindQuestion returned %T, want value form", found)
	}
	if diff := cmp.Diff([]string{"s2"}, LinkedSectionIDs(&choice)); diff != "" {
		t.Fatalf("linked ids mismatch: %s", diff)
	}
}
