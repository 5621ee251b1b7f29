// Package model defines the records the composition engine consumes: code
// sections, questions and the ordered answers an end user provides. Questions
// form a closed sum type over TextQuestion, ChoiceQuestion and BooleanQuestion;
// callers switch over the concrete types rather than probing optional fields.
// Answers keep insertion order because the engine's output depends on it, and
// their JSON/YAML encodings preserve that order in both directions. Field names
// in the encodings (`id`, `isMandatory`, `linkedSectionId`,
// `placeholderVariable`, ...) are the persisted shape every store must keep.
package model
