package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-scannergen/pkg/model"
)

// ErrDecode marks payloads that are neither valid JSON nor valid YAML for the
// target shape.
var ErrDecode = errors.New("bundle: decode failed")

// Decode parses a bundle document. JSON is tried first, then YAML.
func Decode(doc Document) (model.Bundle, error) {
	var out model.Bundle
	if err := decodeInto(doc.Raw(), doc.Location(), &out); err != nil {
		return model.Bundle{}, err
	}
	return out, nil
}

// DecodeBundle parses raw bundle bytes without a Document wrapper.
func DecodeBundle(raw []byte) (model.Bundle, error) {
	var out model.Bundle
	if err := decodeInto(raw, "bundle", &out); err != nil {
		return model.Bundle{}, err
	}
	return out, nil
}

// DecodeAnswers parses an ordered answer sheet from a JSON or YAML mapping of
// question id to value.
func DecodeAnswers(raw []byte) (model.Answers, error) {
	var out model.Answers
	if err := decodeInto(raw, "answers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeInto(raw []byte, source string, target any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrDecode, source)
	}

	jsonErr := json.Unmarshal(trimmed, target)
	if jsonErr == nil {
		return nil
	}
	// A payload that opens like JSON keeps the JSON error, which is the more
	// precise one.
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if yamlErr := yaml.Unmarshal(trimmed, target); yamlErr == nil {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrDecode, source, jsonErr)
	}
	if yamlErr := yaml.Unmarshal(trimmed, target); yamlErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, source, yamlErr)
	}
	return nil
}

// EncodeBundle serialises a bundle as YAML when yamlOutput is set and as
// indented JSON otherwise.
func EncodeBundle(b model.Bundle, yamlOutput bool) ([]byte, error) {
	if yamlOutput {
		return yaml.Marshal(b)
	}
	return json.MarshalIndent(b, "", "  ")
}
