// Package lint cross-references sections, questions and answers to surface
// data-integrity problems the composition engine deliberately ignores, such
// as a question linking to a deleted section.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/model"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeEmptySectionID          = "empty-section-id"
	CodeDuplicateSectionID      = "duplicate-section-id"
	CodeEmptyQuestionID         = "empty-question-id"
	CodeDuplicateQuestionID     = "duplicate-question-id"
	CodeDanglingSectionLink     = "dangling-section-link"
	CodeDanglingOptionLink      = "dangling-option-link"
	CodeChoiceWithoutOptions    = "choice-without-options"
	CodeDuplicateOptionValue    = "duplicate-option-value"
	CodePlaceholderNotInSection = "placeholder-not-in-section"
	CodePlaceholderNoSection    = "placeholder-without-section"
	CodeUnknownQuestion         = "unknown-question"
	CodeMissingRequired         = "missing-required"
	CodeValueTypeMismatch       = "value-type-mismatch"
	CodeUnknownChoiceValue      = "unknown-choice-value"
)

// Issue is a single finding. Subject names the offending record, e.g.
// "question q1" or "section s2".
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s [%s] %s", i.Severity, i.Subject, i.Code, i.Message)
}

// Report collects issues in a stable order.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue is an error.
func (r Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Merge appends the issues of other reports and re-sorts.
func (r Report) Merge(others ...Report) Report {
	out := Report{Issues: append([]Issue(nil), r.Issues...)}
	for _, other := range others {
		out.Issues = append(out.Issues, other.Issues...)
	}
	sortIssues(out.Issues)
	return out
}

// Codes lists issue codes in report order.
func (r Report) Codes() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Code)
	}
	return out
}

// Check validates the administrator-maintained sections and questions.
func Check(sections []model.Section, questions []model.Question) Report {
	var issues []Issue
	add := func(sev Severity, code, subject, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	sectionIDs := make(map[string]model.Section, len(sections))
	for i, section := range sections {
		if strings.TrimSpace(section.ID) == "" {
			add(SeverityError, CodeEmptySectionID, fmt.Sprintf("section #%d", i), "section %q has no id", section.Title)
			continue
		}
		if _, dup := sectionIDs[section.ID]; dup {
			add(SeverityError, CodeDuplicateSectionID, "section "+section.ID, "id is used by more than one section")
			continue
		}
		sectionIDs[section.ID] = section
	}

	questionIDs := make(map[string]struct{}, len(questions))
	for i, question := range questions {
		question = model.Concrete(question)
		if question == nil {
			continue
		}
		id := question.Common().ID
		subject := "question " + id
		if strings.TrimSpace(id) == "" {
			subject = fmt.Sprintf("question #%d", i)
			add(SeverityError, CodeEmptyQuestionID, subject, "question %q has no id", question.Common().Text)
		} else if _, dup := questionIDs[id]; dup {
			add(SeverityError, CodeDuplicateQuestionID, subject, "id is used by more than one question")
		}
		questionIDs[id] = struct{}{}

		switch q := question.(type) {
		case model.TextQuestion:
			checkLink(q.LinkedSectionID, sectionIDs, subject, add)
			if q.PlaceholderVariable == "" {
				break
			}
			if q.LinkedSectionID == "" {
				add(SeverityWarning, CodePlaceholderNoSection, subject,
					"answers for {{%s}} have no section to fill and are only recorded as comments", q.PlaceholderVariable)
				break
			}
			if section, ok := sectionIDs[q.LinkedSectionID]; ok {
				if section.Code == "" || !containsPlaceholder(section.Code, q.PlaceholderVariable) {
					add(SeverityError, CodePlaceholderNotInSection, subject,
						"section %s does not contain {{%s}}", section.ID, q.PlaceholderVariable)
				}
			}
		case model.BooleanQuestion:
			checkLink(q.LinkedSectionID, sectionIDs, subject, add)
		case model.ChoiceQuestion:
			if len(q.Options) == 0 {
				add(SeverityError, CodeChoiceWithoutOptions, subject, "choice question has no options")
			}
			values := make(map[string]struct{}, len(q.Options))
			for _, option := range q.Options {
				if _, dup := values[option.Value]; dup {
					add(SeverityWarning, CodeDuplicateOptionValue, subject,
						"option value %q appears more than once; only the first option is ever matched", option.Value)
				}
				values[option.Value] = struct{}{}
				if option.LinkedSectionID == "" {
					continue
				}
				if _, ok := sectionIDs[option.LinkedSectionID]; !ok {
					add(SeverityError, CodeDanglingOptionLink, subject,
						"option %q links to missing section %s", option.Value, option.LinkedSectionID)
				}
			}
		}
	}

	sortIssues(issues)
	return Report{Issues: issues}
}

// CheckAnswers validates an answer sheet against the questions it refers to.
// Required questions are advisory, so missing answers are warnings.
func CheckAnswers(questions []model.Question, answers model.Answers) Report {
	var issues []Issue
	add := func(sev Severity, code, subject, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	for _, answer := range answers {
		subject := "answer " + answer.QuestionID
		question, ok := model.FindQuestion(questions, answer.QuestionID)
		if !ok {
			add(SeverityWarning, CodeUnknownQuestion, subject, "no question with this id")
			continue
		}
		kind := answer.Value.Kind()
		if kind == model.ValueNone {
			continue
		}
		switch q := question.(type) {
		case model.TextQuestion:
			if kind != model.ValueString {
				add(SeverityError, CodeValueTypeMismatch, subject, "text question expects a string, got %s", kind)
			}
		case model.BooleanQuestion:
			if kind != model.ValueBool {
				add(SeverityError, CodeValueTypeMismatch, subject, "boolean question expects a bool, got %s", kind)
			}
		case model.ChoiceQuestion:
			if kind != model.ValueString && kind != model.ValueList {
				add(SeverityError, CodeValueTypeMismatch, subject, "choice question expects a string or list, got %s", kind)
				break
			}
			if kind == model.ValueList && !q.Multiple && len(answer.Value.Strings()) > 1 {
				add(SeverityWarning, CodeValueTypeMismatch, subject, "single choice question has several selections")
			}
			for _, selected := range answer.Value.Strings() {
				if selected == "" {
					continue
				}
				if _, found := q.OptionByValue(selected); !found {
					add(SeverityError, CodeUnknownChoiceValue, subject, "%q is not an option value", selected)
				}
			}
		}
	}

	for _, question := range questions {
		question = model.Concrete(question)
		if question == nil || !question.Common().Required {
			continue
		}
		value, ok := answers.Get(question.Common().ID)
		if !ok || !answered(value) {
			add(SeverityWarning, CodeMissingRequired, "question "+question.Common().ID, "required question has no answer")
		}
	}

	sortIssues(issues)
	return Report{Issues: issues}
}

func answered(value model.Value) bool {
	switch value.Kind() {
	case model.ValueBool:
		return true
	case model.ValueList:
		return len(value.Strings()) > 0
	default:
		return value.Truthy()
	}
}

func checkLink(id string, sections map[string]model.Section, subject string, add func(Severity, string, string, string, ...any)) {
	if id == "" {
		return
	}
	if _, ok := sections[id]; !ok {
		add(SeverityError, CodeDanglingSectionLink, subject, "links to missing section %s", id)
	}
}

func containsPlaceholder(code, variable string) bool {
	return compose.Substitute(code, variable, "\x00") != code
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Subject != issues[j].Subject {
			return issues[i].Subject < issues[j].Subject
		}
		if issues[i].Code != issues[j].Code {
			return issues[i].Code < issues[j].Code
		}
		return issues[i].Message < issues[j].Message
	})
}
