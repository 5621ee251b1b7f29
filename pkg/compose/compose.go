// Package compose assembles the generated scanner code from mandatory
// sections and the sections linked to a user's answers.
//
// The engine is a pure function of its three inputs. Missing questions and
// dangling section links are omitted silently; callers that want to surface
// them should run the lint package against the same data.
package compose

import (
	"strings"

	"github.com/goliatone/go-scannergen/pkg/model"
)

// EmptyMessage is returned when nothing was generated.
const EmptyMessage = "// No code generated yet. Answer questions or mark sections as mandatory."

// labelRunes caps the question text quoted in generated comments.
const labelRunes = 20

// Result is the outcome of a generation pass.
type Result struct {
	// Code is the generated artifact, or EmptyMessage.
	Code string `json:"code"`
	// Included lists emitted section ids in output order.
	Included []string `json:"included"`
	// Empty is true when Code is EmptyMessage.
	Empty bool `json:"empty"`
}

// Generate returns the generated artifact text.
func Generate(sections []model.Section, questions []model.Question, answers model.Answers) string {
	return Compose(sections, questions, answers).Code
}

// Compose runs the mandatory pass followed by the answer pass and returns the
// trimmed artifact along with the ids of the sections it contains.
func Compose(sections []model.Section, questions []model.Question, answers model.Answers) Result {
	var (
		mandatory strings.Builder
		linked    strings.Builder
		included  []string
	)
	seen := make(map[string]struct{}, len(sections))

	for _, section := range sections {
		if !section.IsMandatory {
			continue
		}
		if _, dup := seen[section.ID]; dup {
			continue
		}
		writeSection(&mandatory, section.Title, "Mandatory", section.Code)
		included = append(included, section.ID)
		seen[section.ID] = struct{}{}
	}

	for _, answer := range answers {
		question, ok := model.FindQuestion(questions, answer.QuestionID)
		if !ok {
			continue
		}

		candidate := candidateSection(question, answer.Value)
		if candidate != "" {
			if _, done := seen[candidate]; done {
				continue
			}
			section, found := model.FindSection(sections, candidate)
			if !found {
				continue
			}
			code := section.Code
			if text, isText := question.(model.TextQuestion); isText && text.PlaceholderVariable != "" {
				if value, isString := answer.Value.Str(); isString {
					code = Substitute(code, text.PlaceholderVariable, value)
				}
			}
			writeSection(&linked, section.Title, "Linked by: "+label(question), code)
			included = append(included, section.ID)
			seen[section.ID] = struct{}{}
			continue
		}

		if text, isText := question.(model.TextQuestion); isText && text.PlaceholderVariable != "" {
			if value, isString := answer.Value.Str(); isString {
				linked.WriteString(`// User input for "` + label(question) + `": ` + value + "\n\n")
			}
		}
	}

	code := strings.TrimSpace(mandatory.String() + linked.String())
	if code == "" {
		return Result{Code: EmptyMessage, Included: included, Empty: true}
	}
	return Result{Code: code, Included: included}
}

// candidateSection picks the section an answer pulls in. For choice questions
// every selected option is visited and the last linked one wins.
// TODO: decide whether multi-select choices should include every linked
// section instead of only the last one; kept for output compatibility.
func candidateSection(question model.Question, value model.Value) string {
	switch q := question.(type) {
	case model.ChoiceQuestion:
		if !value.Truthy() {
			return ""
		}
		candidate := ""
		for _, selected := range value.Strings() {
			option, ok := q.OptionByValue(selected)
			if ok && option.LinkedSectionID != "" {
				candidate = option.LinkedSectionID
			}
		}
		return candidate
	case model.TextQuestion:
		return q.LinkedSectionID
	case model.BooleanQuestion:
		return q.LinkedSectionID
	default:
		return ""
	}
}

func writeSection(b *strings.Builder, title, origin, code string) {
	b.WriteString("// --- Section: ")
	b.WriteString(title)
	b.WriteString(" (")
	b.WriteString(origin)
	b.WriteString(") ---\n")
	b.WriteString(code)
	b.WriteString("\n\n")
}

func label(question model.Question) string {
	text := []rune(question.Common().Text)
	if len(text) > labelRunes {
		text = text[:labelRunes]
	}
	return string(text) + "..."
}
