package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Answer pairs a question id with the value the user gave.
type Answer struct {
	QuestionID string `json:"questionId" yaml:"questionId"`
	Value      Value  `json:"value" yaml:"value"`
}

// Answers is an ordered answer sheet. Order is observable in the generated
// artifact, so updates keep an answer at its original position and new
// answers are appended.
type Answers []Answer

// NewAnswers builds an answer sheet from pairs, applying Set semantics so a
// repeated id keeps its first position and its last value.
func NewAnswers(pairs ...Answer) Answers {
	var out Answers
	for _, pair := range pairs {
		out.Set(pair.QuestionID, pair.Value)
	}
	return out
}

// Get returns the value recorded for a question.
func (a Answers) Get(questionID string) (Value, bool) {
	for _, answer := range a {
		if answer.QuestionID == questionID {
			return answer.Value, true
		}
	}
	return Value{}, false
}

// Set records a value, replacing an existing answer in place.
func (a *Answers) Set(questionID string, value Value) {
	for i := range *a {
		if (*a)[i].QuestionID == questionID {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Answer{QuestionID: questionID, Value: value})
}

// Delete removes the answer for a question and reports whether one existed.
func (a *Answers) Delete(questionID string) bool {
	for i := range *a {
		if (*a)[i].QuestionID == questionID {
			*a = append((*a)[:i], (*a)[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	return append(Answers(nil), a...)
}

// MarshalJSON encodes the sheet as a JSON object keyed by question id, in
// answer order.
func (a Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, answer := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(answer.QuestionID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(answer.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (a *Answers) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decode answers: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("model: answers must be a JSON object")
	}

	out := Answers{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decode answers: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("model: answers key must be a string")
		}
		var value Value
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("model: answer %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("model: decode answers: %w", err)
	}
	*a = out
	return nil
}

// MarshalYAML encodes the sheet as a mapping in answer order.
func (a Answers) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, answer := range a {
		var valueNode yaml.Node
		if err := valueNode.Encode(answer.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: answer.QuestionID},
			&valueNode,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping keeping key order.
func (a *Answers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*a = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("model: answers must be a mapping (line %d)", node.Line)
	}
	out := Answers{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var value Value
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("model: answer %q: %w", key, err)
		}
		out.Set(key, value)
	}
	*a = out
	return nil
}
