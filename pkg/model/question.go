package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// QuestionType discriminates the question variants in their encoded form.
type QuestionType string

const (
	QuestionTypeText    QuestionType = "text"
	QuestionTypeChoice  QuestionType = "choice"
	QuestionTypeBoolean QuestionType = "boolean"
)

// QuestionBase holds the fields shared by every question variant.
type QuestionBase struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Required bool   `json:"required" yaml:"required"`
}

// Question is implemented by TextQuestion, ChoiceQuestion and BooleanQuestion
// only. Switch over the concrete types to handle each variant.
type Question interface {
	Type() QuestionType
	Common() QuestionBase
	isQuestion()
}

// TextQuestion collects free text. When PlaceholderVariable is set the answer
// replaces {{PlaceholderVariable}} tokens in the linked section's code.
type TextQuestion struct {
	QuestionBase        `yaml:",inline"`
	LinkedSectionID     string `json:"linkedSectionId,omitempty" yaml:"linkedSectionId,omitempty"`
	PlaceholderVariable string `json:"placeholderVariable,omitempty" yaml:"placeholderVariable,omitempty"`
}

// BooleanQuestion is a yes/no prompt linking to at most one section.
type BooleanQuestion struct {
	QuestionBase    `yaml:",inline"`
	LinkedSectionID string `json:"linkedSectionId,omitempty" yaml:"linkedSectionId,omitempty"`
}

// ChoiceQuestion offers an ordered list of options, each of which may link to
// its own section. Multiple enables multi-select answers.
type ChoiceQuestion struct {
	QuestionBase `yaml:",inline"`
	Multiple     bool     `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Options      []Option `json:"options" yaml:"options"`
}

// Option is a single selectable entry of a ChoiceQuestion. Answers reference
// options by Value.
type Option struct {
	ID              string `json:"id" yaml:"id"`
	Text            string `json:"text" yaml:"text"`
	Value           string `json:"value" yaml:"value"`
	LinkedSectionID string `json:"linkedSectionId,omitempty" yaml:"linkedSectionId,omitempty"`
}

func (TextQuestion) Type() QuestionType    { return QuestionTypeText }
func (BooleanQuestion) Type() QuestionType { return QuestionTypeBoolean }
func (ChoiceQuestion) Type() QuestionType  { return QuestionTypeChoice }

func (q TextQuestion) Common() QuestionBase    { return q.QuestionBase }
func (q BooleanQuestion) Common() QuestionBase { return q.QuestionBase }
func (q ChoiceQuestion) Common() QuestionBase  { return q.QuestionBase }

func (TextQuestion) isQuestion()    {}
func (BooleanQuestion) isQuestion() {}
func (ChoiceQuestion) isQuestion()  {}

// OptionByValue returns the first option whose Value matches.
func (q ChoiceQuestion) OptionByValue(value string) (Option, bool) {
	for _, option := range q.Options {
		if option.Value == value {
			return option, true
		}
	}
	return Option{}, false
}

// Concrete returns the value form of question. Pointers to the three
// variants also satisfy Question; they are dereferenced so type switches
// only need the value cases. Nil pointers yield nil.
func Concrete(question Question) Question {
	switch q := question.(type) {
	case *TextQuestion:
		if q == nil {
			return nil
		}
		return *q
	case *BooleanQuestion:
		if q == nil {
			return nil
		}
		return *q
	case *ChoiceQuestion:
		if q == nil {
			return nil
		}
		return *q
	default:
		return question
	}
}

// FindQuestion returns the first question with the given id in its value
// form. Nil entries are skipped.
func FindQuestion(questions []Question, id string) (Question, bool) {
	for _, question := range questions {
		question = Concrete(question)
		if question == nil {
			continue
		}
		if question.Common().ID == id {
			return question, true
		}
	}
	return nil, false
}

// LinkedSectionIDs lists every section id a question can pull in, in
// declaration order.
func LinkedSectionIDs(question Question) []string {
	switch q := Concrete(question).(type) {
	case TextQuestion:
		if q.LinkedSectionID != "" {
			return []string{q.LinkedSectionID}
		}
	case BooleanQuestion:
		if q.LinkedSectionID != "" {
			return []string{q.LinkedSectionID}
		}
	case ChoiceQuestion:
		var out []string
		for _, option := range q.Options {
			if option.LinkedSectionID != "" {
				out = append(out, option.LinkedSectionID)
			}
		}
		return out
	}
	return nil
}

func (q TextQuestion) MarshalJSON() ([]byte, error) {
	type alias TextQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{QuestionTypeText, alias(q)})
}

func (q BooleanQuestion) MarshalJSON() ([]byte, error) {
	type alias BooleanQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{QuestionTypeBoolean, alias(q)})
}

func (q ChoiceQuestion) MarshalJSON() ([]byte, error) {
	type alias ChoiceQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{QuestionTypeChoice, alias(q)})
}

func (q TextQuestion) MarshalYAML() (any, error) {
	type alias TextQuestion
	return struct {
		Type  QuestionType `yaml:"type"`
		alias `yaml:",inline"`
	}{QuestionTypeText, alias(q)}, nil
}

func (q BooleanQuestion) MarshalYAML() (any, error) {
	type alias BooleanQuestion
	return struct {
		Type  QuestionType `yaml:"type"`
		alias `yaml:",inline"`
	}{QuestionTypeBoolean, alias(q)}, nil
}

func (q ChoiceQuestion) MarshalYAML() (any, error) {
	type alias ChoiceQuestion
	return struct {
		Type  QuestionType `yaml:"type"`
		alias `yaml:",inline"`
	}{QuestionTypeChoice, alias(q)}, nil
}

// Questions is an ordered question list that decodes each entry into its
// concrete variant based on the `type` discriminator.
type Questions []Question

// UnmarshalJSON decodes a JSON array of tagged questions.
func (qs *Questions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("model: decode questions: %w", err)
	}
	out := make(Questions, 0, len(raws))
	for i, raw := range raws {
		question, err := DecodeQuestionJSON(raw)
		if err != nil {
			return fmt.Errorf("model: question %d: %w", i, err)
		}
		out = append(out, question)
	}
	*qs = out
	return nil
}

// UnmarshalYAML decodes a YAML sequence of tagged questions.
func (qs *Questions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*qs = nil
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("model: questions must be a sequence (line %d)", node.Line)
	}
	out := make(Questions, 0, len(node.Content))
	for i, item := range node.Content {
		var tagged struct {
			Type string `yaml:"type"`
		}
		if err := item.Decode(&tagged); err != nil {
			return fmt.Errorf("model: question %d: %w", i, err)
		}
		var (
			question Question
			err      error
		)
		switch QuestionType(strings.TrimSpace(tagged.Type)) {
		case QuestionTypeText:
			var q TextQuestion
			err = item.Decode(&q)
			question = q
		case QuestionTypeBoolean:
			var q BooleanQuestion
			err = item.Decode(&q)
			question = q
		case QuestionTypeChoice:
			var q ChoiceQuestion
			err = item.Decode(&q)
			question = q
		default:
			return fmt.Errorf("model: question %d: unknown type %q", i, tagged.Type)
		}
		if err != nil {
			return fmt.Errorf("model: question %d: %w", i, err)
		}
		out = append(out, question)
	}
	*qs = out
	return nil
}

// DecodeQuestionJSON decodes one tagged question object.
func DecodeQuestionJSON(raw []byte) (Question, error) {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, err
	}
	switch QuestionType(strings.TrimSpace(tagged.Type)) {
	case QuestionTypeText:
		var q TextQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return q, nil
	case QuestionTypeBoolean:
		var q BooleanQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return q, nil
	case QuestionTypeChoice:
		var q ChoiceQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", tagged.Type)
	}
}

// WithID returns a copy of question carrying id.
func WithID(question Question, id string) Question {
	switch q := Concrete(question).(type) {
	case TextQuestion:
		q.ID = id
		return q
	case BooleanQuestion:
		q.ID = id
		return q
	case ChoiceQuestion:
		q.ID = id
		return q
	default:
		return question
	}
}
