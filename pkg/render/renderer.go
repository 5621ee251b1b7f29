package render

import (
	"context"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/model"
)

// Artifact is everything a renderer may show: the composed code plus the
// inputs it was built from.
type Artifact struct {
	Result    compose.Result
	Sections  []model.Section
	Questions []model.Question
	Answers   model.Answers
	Branding  model.Branding
}

// Renderer turns an Artifact into bytes (plain text, JSON, HTML, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, artifact Artifact, options RenderOptions) ([]byte, error)
}

// AnswerLine is one row of an answer summary.
type AnswerLine struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Summary pairs every answer with its question text, in answer order.
// Answers to unknown questions fall back to the raw id.
func (a Artifact) Summary() []AnswerLine {
	out := make([]AnswerLine, 0, len(a.Answers))
	for _, answer := range a.Answers {
		line := AnswerLine{QuestionID: answer.QuestionID, Question: answer.QuestionID, Answer: answer.Value.String()}
		if question, ok := model.FindQuestion(a.Questions, answer.QuestionID); ok && question.Common().Text != "" {
			line.Question = question.Common().Text
		}
		out = append(out, line)
	}
	return out
}
